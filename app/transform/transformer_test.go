package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-relay/app/errs"
	"github.com/lysyi3m/rss-relay/app/feed"
)

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()

	for _, id := range []string{ProseID, SocialID} {
		transformer, err := registry.Get(id)
		require.NoError(t, err, id)
		assert.NotNil(t, transformer)
	}

	_, err := registry.Get("foo")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfig)
	assert.Contains(t, err.Error(), `"foo"`)
	assert.Contains(t, err.Error(), "known: it-home, twitter")

	assert.Equal(t, []string{ProseID, SocialID}, registry.IDs())
}

func TestRegistryIDsAreSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("zhihu", NewProse())
	registry.Register("atom", NewProse())

	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"atom", ProseID, SocialID, "zhihu"}, registry.IDs())
	}
}

func TestRegistryWrapsFailures(t *testing.T) {
	registry := NewRegistry()
	registry.Register("broken", TransformerFunc(func([]feed.Entry, Options) ([]Item, error) {
		return nil, errors.New("bad markup")
	}))
	registry.Register("panicky", TransformerFunc(func([]feed.Entry, Options) ([]Item, error) {
		panic("index out of range")
	}))

	entries := []feed.Entry{{Raw: "<title>payload head</title>"}}

	broken, err := registry.Get("broken")
	require.NoError(t, err)
	_, err = broken.Transform(entries, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTransform)
	assert.Contains(t, err.Error(), "bad markup")
	assert.Contains(t, err.Error(), "payload head")

	panicky, err := registry.Get("panicky")
	require.NoError(t, err)
	_, err = panicky.Transform(entries, Options{})
	assert.ErrorIs(t, err, errs.ErrTransform)
}

func TestRegistryAppliesDefaults(t *testing.T) {
	registry := NewRegistry()

	var got Options
	registry.Register("spy", TransformerFunc(func(_ []feed.Entry, opts Options) ([]Item, error) {
		got = opts
		return nil, nil
	}))

	spy, err := registry.Get("spy")
	require.NoError(t, err)
	_, err = spy.Transform(nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, feed.ParseModeHTML, got.ParseMode)
	assert.Equal(t, DefaultMaxLength, got.MaxLength)
	assert.Equal(t, "阅读更多", got.LinkLabel)
}
