package feed

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lysyi3m/rss-relay/app/errs"
)

const payloadPrefixLength = 200

var (
	itemBlockRe = regexp.MustCompile(`(?s)<item(?:\s[^>]*)?>(.*?)</item>`)
	cdataRe     = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

	tagPatterns sync.Map // tag name -> *regexp.Regexp
)

// Extract finds every <item> block in payload and reads the fixed set of
// fields from it. It is deliberately tolerant: a block with missing fields
// still yields an Entry with those fields empty. Only a payload without any
// item block is an error.
func Extract(payload string) ([]Entry, error) {
	blocks := itemBlockRe.FindAllStringSubmatch(payload, -1)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no item blocks found in payload %q", errs.ErrParse, PayloadPrefix(payload))
	}

	entries := make([]Entry, 0, len(blocks))
	for _, block := range blocks {
		entries = append(entries, extractEntry(block[1]))
	}

	return entries, nil
}

func extractEntry(block string) Entry {
	link := Field(block, "link")
	guid := Field(block, "guid")

	entry := Entry{
		ID:          cmp.Or(guid, link),
		Title:       Field(block, "title"),
		Description: Field(block, "description"),
		Link:        link,
		Raw:         block,
	}

	if published, ok := parseDate(cmp.Or(Field(block, "pubDate"), Field(block, "dc:date"))); ok {
		entry.PublishedAt = &published
	}

	return entry
}

// Field returns the trimmed text of the first <tag> element in block with
// any CDATA wrappers removed. A namespaced tag such as "dc:creator" falls
// back to matching the local name under any prefix. Missing tags yield "".
func Field(block, tag string) string {
	if content, ok := findTag(block, tag); ok {
		return content
	}

	if i := strings.IndexByte(tag, ':'); i >= 0 && i < len(tag)-1 {
		if content, ok := findTag(block, "*:"+tag[i+1:]); ok {
			return content
		}
	}

	return ""
}

func findTag(block, tag string) (string, bool) {
	m := tagPattern(tag).FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(RemoveCDATA(m[1])), true
}

func tagPattern(tag string) *regexp.Regexp {
	if re, ok := tagPatterns.Load(tag); ok {
		return re.(*regexp.Regexp)
	}

	name := regexp.QuoteMeta(tag)
	if local, ok := strings.CutPrefix(tag, "*:"); ok {
		name = `[^\s:<>/]+:` + regexp.QuoteMeta(local)
	}

	// The attribute group refuses a trailing slash so self-closing tags
	// never open a match.
	re := regexp.MustCompile(`(?s)<` + name + `(?:\s[^>]*[^/>])?\s*>(.*?)</` + name + `\s*>`)
	tagPatterns.Store(tag, re)

	return re
}

func RemoveCDATA(s string) string {
	return cdataRe.ReplaceAllString(s, "$1")
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}

// PayloadPrefix returns the leading part of payload for error messages.
func PayloadPrefix(payload string) string {
	runes := []rune(strings.TrimSpace(payload))
	if len(runes) > payloadPrefixLength {
		return string(runes[:payloadPrefixLength])
	}
	return string(runes)
}
