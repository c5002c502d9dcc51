package transform

const (
	DefaultMaxLength = 400
	ellipsis         = "..."
)

// Truncate shortens text to at most maxLength characters and appends an
// ellipsis. When the kept part has a newline at or beyond 80% of maxLength
// the cut is made at that newline instead.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}

	kept := runes[:maxLength]
	for i := len(kept) - 1; i >= 0; i-- {
		if kept[i] != '\n' {
			continue
		}
		if i*5 >= maxLength*4 {
			return string(kept[:i]) + ellipsis
		}
		break
	}

	return string(kept) + ellipsis
}
