package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-relay/app/feed"
)

func TestProseCleanDescription(t *testing.T) {
	p := NewProse()

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "boilerplate prefix and paragraphs",
			description: "<p>IT之家 3 月 5 日消息，新机发布。</p><p>第二段</p>",
			want:        "新机发布。\n\n第二段",
		},
		{
			name:        "encoded markup is decoded first",
			description: "&lt;p&gt;Hello &amp;amp; bye&lt;/p&gt;",
			want:        "Hello &amp; bye",
		},
		{
			name:        "images removed",
			description: `<p>Before<img src="https://img.ithome.com/a.jpg" alt="x"/>After</p>`,
			want:        "BeforeAfter",
		},
		{
			name:        "list items become bullets",
			description: "<ul><li>one</li><li class=\"x\">two</li></ul>",
			want:        "• one\n• two",
		},
		{
			name:        "line breaks",
			description: "a<br>b<br/>c<BR />d",
			want:        "a\nb\nc\nd",
		},
		{
			name:        "tables become pipe rows",
			description: "<p>Specs:</p><table><tr><td>CPU</td><td>A18</td></tr><tr><td>RAM</td><td>8GB</td></tr></table>",
			want:        "Specs:\n\nCPU | A18\nRAM | 8GB",
		},
		{
			name:        "blank lines collapse",
			description: "<p>a</p>\n\n\n<p>b</p>",
			want:        "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.cleanDescription(tt.description, DefaultMaxLength)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProseTransform(t *testing.T) {
	registry := NewRegistry()
	prose, err := registry.Get(ProseID)
	require.NoError(t, err)

	entries := []feed.Entry{
		{ID: "1", Title: "A & B", Description: "<p>Body</p>", Link: "https://www.ithome.com/0/1.htm"},
		{ID: "2", Title: "Long", Description: strings.Repeat("字", 500), Link: "https://www.ithome.com/0/2.htm"},
	}

	items, err := prose.Transform(entries, Options{ParseMode: feed.ParseModeHTML})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "<b>A &amp; B</b>\n\nBody\n\n<a href=\"https://www.ithome.com/0/1.htm\">阅读更多</a>", items[0].Message)
	assert.Equal(t, "Body", items[0].Description)
	assert.Equal(t, "1", items[0].ID)
	assert.Empty(t, items[0].Image)

	assert.Equal(t, strings.Repeat("字", 400)+"...", items[1].Description)
}

func TestProseTransformMarkdown(t *testing.T) {
	items, err := NewProse().Transform(
		[]feed.Entry{{Title: "Title", Description: "Body", Link: "https://e.com/1"}},
		Options{ParseMode: feed.ParseModeMarkdown, LinkLabel: "Read more", MaxLength: 400},
	)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "*Title*\n\nBody\n\n[Read more](https://e.com/1)", items[0].Message)
}

func TestProseTransformMarkdownEscapesFeedText(t *testing.T) {
	items, err := NewProse().Transform(
		[]feed.Entry{{Title: "*New* RTX_5090", Description: "<p>use snake_case and *stars*</p>", Link: "https://e.com/1"}},
		Options{ParseMode: feed.ParseModeMarkdown, LinkLabel: "Read more", MaxLength: 400},
	)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "*New RTX_5090*\n\nuse snake\\_case and \\*stars\\*\n\n[Read more](https://e.com/1)", items[0].Message)
}
