package transform

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/rss-relay/app/feed"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	htmlEscaper       = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	markdownV2Escaper = strings.NewReplacer(
		`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
		"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
		"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	)
	markdownV2URLEscaper = strings.NewReplacer(`\`, `\\`, ")", `\)`)

	// Legacy Markdown only escapes outside entities, and a "*" inside bold
	// text would close it early.
	markdownEscaper     = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")
	markdownBoldCleaner = strings.NewReplacer("*", "")
)

// DecodeEntities resolves named and numeric character references. Non-breaking
// spaces become plain spaces.
func DecodeEntities(s string) string {
	return strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " ")
}

func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// CleanText collapses whitespace runs into single spaces and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// formatTable renders the rows of a table as plain text lines, with cells
// joined by " | ".
func formatTable(table string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(table))
	if err != nil {
		return "", err
	}

	var rows []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, strings.Join(cells, " | "))
	})

	return strings.Join(rows, "\n"), nil
}

func escapeText(s string, mode feed.ParseMode) string {
	switch mode {
	case feed.ParseModeHTML:
		return htmlEscaper.Replace(s)
	case feed.ParseModeMarkdownV2:
		return markdownV2Escaper.Replace(s)
	case feed.ParseModeMarkdown:
		return markdownEscaper.Replace(s)
	default:
		return s
	}
}

func bold(s string, mode feed.ParseMode) string {
	switch mode {
	case feed.ParseModeHTML:
		return "<b>" + escapeText(s, mode) + "</b>"
	case feed.ParseModeMarkdown:
		return "*" + markdownBoldCleaner.Replace(s) + "*"
	default:
		return "*" + escapeText(s, mode) + "*"
	}
}

func link(label, url string, mode feed.ParseMode) string {
	switch mode {
	case feed.ParseModeHTML:
		return `<a href="` + html.EscapeString(url) + `">` + escapeText(label, mode) + "</a>"
	case feed.ParseModeMarkdownV2:
		return "[" + escapeText(label, mode) + "](" + markdownV2URLEscaper.Replace(url) + ")"
	default:
		return "[" + label + "](" + url + ")"
	}
}
