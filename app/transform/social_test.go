package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-relay/app/errs"
	"github.com/lysyi3m/rss-relay/app/feed"
)

func TestSocialAuthor(t *testing.T) {
	s := NewSocial()

	tests := []struct {
		name  string
		entry feed.Entry
		want  string
	}{
		{
			name:  "namespaced creator",
			entry: feed.Entry{Raw: `<title>t</title><dc:creator><![CDATA[@elonmusk]]></dc:creator>`},
			want:  "@elonmusk",
		},
		{
			name:  "plain creator",
			entry: feed.Entry{Raw: `<creator> Jack </creator>`},
			want:  "Jack",
		},
		{
			name:  "attribution in description",
			entry: feed.Entry{Description: "— Elon Musk (@elonmusk)"},
			want:  "Elon Musk",
		},
		{
			name:  "unknown",
			entry: feed.Entry{Description: "no attribution here"},
			want:  "Unknown User",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.author(tt.entry))
		})
	}
}

func TestSocialTransform(t *testing.T) {
	raw := `<title>Launch day</title>
<dc:creator>@spacex</dc:creator>
<description>&lt;p&gt;Liftoff!   &lt;img src="https://other.example.com/x.jpg"&gt;&lt;/p&gt;</description>
<media:content url="https://pbs.twimg.com/media/abc?format=jpg&amp;name=small" medium="image" />`

	entries := []feed.Entry{{
		ID:          "tw-1",
		Title:       "Launch day",
		Description: `<p>Liftoff!   <img src="https://other.example.com/x.jpg"></p>`,
		Link:        "https://x.com/spacex/status/1",
		Raw:         raw,
	}}

	items, err := NewSocial().Transform(entries, Options{ParseMode: feed.ParseModeHTML, MaxLength: 400})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Launch day\n\n@spacex: https://x.com/spacex/status/1", item.Message)
	assert.Equal(t, "https://pbs.twimg.com/media/abc?format=jpg&name=small", item.Image)
	assert.Equal(t, "Liftoff!", item.Description)
}

func TestSocialIgnoresInlineImages(t *testing.T) {
	entries := []feed.Entry{{
		Title:       "t",
		Description: `<img src="https://pbs.twimg.com/media/inline.jpg">`,
		Raw:         `<media:content url="https://pbs.twimg.com/media/video.mp4" medium="video"/>`,
	}}

	items, err := NewSocial().Transform(entries, Options{MaxLength: 400})
	require.NoError(t, err)
	assert.Empty(t, items[0].Image)
}

func TestSocialDropsInvalidImage(t *testing.T) {
	entries := []feed.Entry{{
		Title: "t",
		Raw:   `<media:content medium="image" url="https://tracker.example.com/pixel"/>`,
	}}

	items, err := NewSocial().Transform(entries, Options{MaxLength: 400})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Image)
}

func TestValidateImageURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"trusted with query", "https://pbs.twimg.com/media/Gx1?format=jpg&amp;name=large", "https://pbs.twimg.com/media/Gx1?format=jpg&name=large", false},
		{"image extension", " https://cdn.example.com/a/b.PNG ", "https://cdn.example.com/a/b.PNG", false},
		{"image extension with query", "https://cdn.example.com/b.webp?w=100", "https://cdn.example.com/b.webp?w=100", false},
		{"untrusted without extension", "https://cdn.example.com/image", "", true},
		{"relative", "/media/a.jpg", "", true},
		{"non http scheme", "javascript:alert(1).jpg", "", true},
		{"unsafe characters", "https://cdn.example.com/a b.jpg", "", true},
		{"quote", `https://cdn.example.com/a".jpg`, "", true},
		{"empty", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImageURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
