package transform

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/lysyi3m/rss-relay/app/errs"
	"github.com/lysyi3m/rss-relay/app/feed"
)

const (
	ProseID  = "it-home"
	SocialID = "twitter"

	defaultLinkLabel = "阅读更多"
)

// Item is an entry ready for delivery.
type Item struct {
	feed.Entry

	Message string
	Image   string
}

type Options struct {
	ParseMode feed.ParseMode
	LinkLabel string
	MaxLength int
}

// Transformer turns the entries of one feed into deliverable items. Order
// and count are preserved.
type Transformer interface {
	Transform(entries []feed.Entry, opts Options) ([]Item, error)
}

type TransformerFunc func(entries []feed.Entry, opts Options) ([]Item, error)

func (f TransformerFunc) Transform(entries []feed.Entry, opts Options) ([]Item, error) {
	return f(entries, opts)
}

type Registry struct {
	transformers map[string]Transformer
	mu           sync.RWMutex
}

// NewRegistry returns a registry holding the built-in transformers.
func NewRegistry() *Registry {
	r := &Registry{transformers: make(map[string]Transformer)}
	r.Register(ProseID, NewProse())
	r.Register(SocialID, NewSocial())
	return r
}

func (r *Registry) Register(id string, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[id] = t
}

// Get returns the transformer registered under id. The returned transformer
// converts a panic inside the implementation into a transform error.
func (r *Registry) Get(id string) (Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transformers[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transformer %q (known: %s)", errs.ErrConfig, id, strings.Join(r.ids(), ", "))
	}

	return guarded{id: id, inner: t}, nil
}

// IDs returns the registered transformer ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ids()
}

func (r *Registry) ids() []string {
	return slices.Sorted(maps.Keys(r.transformers))
}

type guarded struct {
	id    string
	inner Transformer
}

func (g guarded) Transform(entries []feed.Entry, opts Options) (items []Item, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			items = nil
			err = fmt.Errorf("%w: %s panicked: %v (payload %q)", errs.ErrTransform, g.id, rec, entriesPrefix(entries))
		}
	}()

	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.LinkLabel == "" {
		opts.LinkLabel = defaultLinkLabel
	}
	if opts.ParseMode == "" {
		opts.ParseMode = feed.ParseModeHTML
	}

	items, err = g.inner.Transform(entries, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w (payload %q)", errs.ErrTransform, g.id, err, entriesPrefix(entries))
	}

	return items, nil
}

func entriesPrefix(entries []feed.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	return feed.PayloadPrefix(entries[0].Raw)
}
