package codec

import (
	"fmt"
	"slices"
	"sync"
)

// Factory builds a fresh codec instance. Each archive gets its own
// instance so a loaded dictionary never leaks into another archive.
type Factory func() (Codec, error)

// Registry maps tags to codec factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[Tag]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Tag]Factory)}
}

// DefaultRegistry returns a registry holding the builtin codecs.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err) // builtin tags are distinct
	}
	return r
}

// RegisterBuiltins registers NONE, ZSTD, LZ4F and S2BK with their
// default settings.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		tag Tag
		f   Factory
	}{
		{TagStore, func() (Codec, error) { return NewStore(), nil }},
		{TagZstd, func() (Codec, error) { return NewZstd() }},
		{TagLZ4, func() (Codec, error) { return NewLZ4(), nil }},
		{TagS2, func() (Codec, error) { return NewS2(), nil }},
	}
	for _, b := range builtins {
		if err := r.Register(b.tag, b.f); err != nil {
			return err
		}
	}
	return nil
}

// Register adds a factory for tag. It fails with ErrDuplicate when the
// tag is already registered.
func (r *Registry) Register(tag Tag, f Factory) error {
	if _, err := ParseTag(string(tag[:])); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: nil factory for %s", ErrCodec, tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, tag)
	}
	r.factories[tag] = f
	return nil
}

// New returns a fresh codec for tag, or ErrUnknown.
func (r *Registry) New(tag Tag) (Codec, error) {
	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, tag)
	}
	c, err := f()
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrCodec, tag, err)
	}
	if c.Tag() != tag {
		_ = Close(c) //nolint:errcheck // discarding a misregistered codec
		return nil, fmt.Errorf("%w: factory for %s built %s", ErrCodec, tag, c.Tag())
	}
	return c, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []Tag {
	r.mu.RLock()
	tags := make([]Tag, 0, len(r.factories))
	for t := range r.factories {
		tags = append(tags, t)
	}
	r.mu.RUnlock()
	slices.SortFunc(tags, func(a, b Tag) int {
		return slices.Compare(a[:], b[:])
	})
	return tags
}
