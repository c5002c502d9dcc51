package transform

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/lysyi3m/rss-relay/app/feed"
)

const unknownAuthor = "Unknown User"

var attributionRe = regexp.MustCompile(`—\s*([^(]+)\s*\(`)

// Social formats short posts as title, author and link, attaching the
// post's image when it carries a usable one.
type Social struct{}

func NewSocial() *Social {
	return &Social{}
}

func (s *Social) Transform(entries []feed.Entry, opts Options) ([]Item, error) {
	items := make([]Item, 0, len(entries))

	for _, entry := range entries {
		author := s.author(entry)

		item := Item{Entry: entry}
		item.Description = Truncate(CleanText(StripTags(DecodeEntities(entry.Description))), opts.MaxLength)
		item.Image = s.image(entry)
		item.Message = escapeText(entry.Title, opts.ParseMode) + "\n\n" +
			escapeText(author, opts.ParseMode) + ": " + escapeText(entry.Link, opts.ParseMode)

		items = append(items, item)
	}

	return items, nil
}

// author tries the creator tags first and then the "— Name (@handle)"
// attribution embedded in the description.
func (s *Social) author(entry feed.Entry) string {
	for _, tag := range []string{"dc:creator", "creator"} {
		if name := feed.Field(entry.Raw, tag); name != "" {
			return name
		}
	}

	if m := attributionRe.FindStringSubmatch(entry.Description); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}

	return unknownAuthor
}

func (s *Social) image(entry feed.Entry) string {
	candidate := findImage(entry.Raw)
	if candidate == "" {
		return ""
	}

	image, err := ValidateImageURL(candidate)
	if err != nil {
		slog.Debug("Dropping image", "item_id", entry.ID, "error", err)
		return ""
	}

	return image
}
