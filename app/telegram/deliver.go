package telegram

import (
	"context"
	"log/slog"
)

// Deliver sends msg to chatID. A message with an image is sent as a photo
// with the text as caption; if that fails the text is sent on its own.
func (c *Client) Deliver(ctx context.Context, chatID, parseMode string, msg Message) error {
	if msg.Image != "" {
		err := c.SendPhoto(ctx, chatID, msg.Image, msg.Text, parseMode)
		if err == nil {
			return nil
		}

		photoFallbacksTotal.Inc()
		slog.Error("Failed to send photo, falling back to text", "chat_id", chatID, "image", msg.Image, "error", err)
	}

	return c.SendMessage(ctx, chatID, msg.Text, parseMode)
}
