package transform

import (
	"regexp"
	"strings"

	"github.com/lysyi3m/rss-relay/app/feed"
)

var (
	boilerplateRe = regexp.MustCompile(`IT之家\s\d+\s月\s\d+\s日消息，`)
	imgRe         = regexp.MustCompile(`(?i)<img[^>]*>`)
	tableRe       = regexp.MustCompile(`(?is)<table(?:\s[^>]*)?>.*?</table>`)
	listOpenRe    = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	listCloseRe   = regexp.MustCompile(`(?i)</li>`)
	paraCloseRe   = regexp.MustCompile(`(?i)</p>`)
	breakRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// Prose formats long-form articles: the description is reduced to plain
// text with paragraphs, list bullets and tables kept readable.
type Prose struct{}

func NewProse() *Prose {
	return &Prose{}
}

func (p *Prose) Transform(entries []feed.Entry, opts Options) ([]Item, error) {
	items := make([]Item, 0, len(entries))

	for _, entry := range entries {
		description, err := p.cleanDescription(entry.Description, opts.MaxLength)
		if err != nil {
			return nil, err
		}

		item := Item{Entry: entry}
		item.Description = description
		item.Message = p.compose(entry.Title, description, entry.Link, opts)

		items = append(items, item)
	}

	return items, nil
}

func (p *Prose) cleanDescription(description string, maxLength int) (string, error) {
	text := DecodeEntities(description)
	text = boilerplateRe.ReplaceAllString(text, "")
	text = imgRe.ReplaceAllString(text, "")

	var tableErr error
	text = tableRe.ReplaceAllStringFunc(text, func(table string) string {
		formatted, err := formatTable(table)
		if err != nil {
			tableErr = err
			return ""
		}
		return formatted
	})
	if tableErr != nil {
		return "", tableErr
	}

	text = listOpenRe.ReplaceAllString(text, "• ")
	text = listCloseRe.ReplaceAllString(text, "\n")
	text = paraCloseRe.ReplaceAllString(text, "\n\n")
	text = breakRe.ReplaceAllString(text, "\n")
	text = StripTags(text)
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return Truncate(text, maxLength), nil
}

func (p *Prose) compose(title, description, url string, opts Options) string {
	var b strings.Builder

	b.WriteString(bold(title, opts.ParseMode))
	b.WriteString("\n\n")
	b.WriteString(escapeText(description, opts.ParseMode))
	b.WriteString("\n\n")
	b.WriteString(link(opts.LinkLabel, url, opts.ParseMode))

	return b.String()
}
