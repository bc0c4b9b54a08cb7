package pubform

import (
	"fmt"
	"slices"
	"sync"
)

// DefaultMediaType is the type assigned to every item by the combined-field policy.
const DefaultMediaType = "mp3"

// NormalizeTags splits raw tag text on commas and trims each tag.
// Order and empty entries are preserved.
func NormalizeTags(raw string) []string {
	return splitTrim(raw)
}

// MediaPolicy turns the media part of a form into the media_items list.
type MediaPolicy interface {
	Name() string
	Normalize(f FormState) []MediaItem
}

// Media policy names as used in config files.
const (
	MediaCombined = "combined"
	MediaList     = "list"
	MediaInline   = "inline"
)

// CombinedField reads one comma-separated field of storage paths.
type CombinedField struct {
	// Type is stamped on every item. Empty means DefaultMediaType.
	Type string
}

func (CombinedField) Name() string { return MediaCombined }

func (p CombinedField) Normalize(f FormState) []MediaItem {
	typ := p.Type
	if typ == "" {
		typ = DefaultMediaType
	}
	paths := splitTrim(f.MediaText)
	items := make([]MediaItem, len(paths))
	for i, path := range paths {
		items[i] = MediaItem{
			Type:        typ,
			StoragePath: path,
			Title:       lastPathSegment(path),
		}
	}
	return items
}

// ListBuilder uses the items accumulated through AddMediaItem as-is.
type ListBuilder struct{}

func (ListBuilder) Name() string { return MediaList }

func (ListBuilder) Normalize(f FormState) []MediaItem {
	items := make([]MediaItem, len(f.MediaItems))
	copy(items, f.MediaItems)
	return items
}

// InlineRecord turns the single pending sub-record into a one-element list
// when all of its fields are filled.
type InlineRecord struct{}

func (InlineRecord) Name() string { return MediaInline }

func (InlineRecord) Normalize(f FormState) []MediaItem {
	if !f.Pending.complete() {
		return []MediaItem{}
	}
	return []MediaItem{f.Pending}
}

// NewMediaPolicy returns the policy registered under name.
func NewMediaPolicy(name, mediaType string) (MediaPolicy, error) {
	switch name {
	case "", MediaCombined:
		return CombinedField{Type: mediaType}, nil
	case MediaList:
		return ListBuilder{}, nil
	case MediaInline:
		return InlineRecord{}, nil
	}
	return nil, fmt.Errorf("pubform: unknown media policy %q", name)
}

// CategoryPolicy decides which category values a form accepts.
type CategoryPolicy interface {
	Accept(category string) bool
	// Options lists the allowed values; nil means free text.
	Options() []string
}

// Category policy names as used in config files.
const (
	CategoryFree  = "free"
	CategoryFixed = "fixed"
)

// FreeText accepts any non-empty category.
type FreeText struct{}

func (FreeText) Accept(c string) bool { return c != "" }
func (FreeText) Options() []string    { return nil }

// FixedSet accepts only one of a configured list of categories. The list
// can be swapped at runtime when the config file changes.
type FixedSet struct {
	mu      sync.RWMutex
	options []string
}

// NewFixedSet creates a FixedSet with the given options. Blank entries are dropped.
func NewFixedSet(options []string) *FixedSet {
	return &FixedSet{options: FilterEmpty(options)}
}

// Accept reports whether c is exactly one of the options, so an accepted
// category is always stored as configured.
func (s *FixedSet) Accept(c string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.options, c)
}

func (s *FixedSet) Options() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.options...)
}

// Replace swaps the allowed options.
func (s *FixedSet) Replace(options []string) {
	cleaned := FilterEmpty(options)
	s.mu.Lock()
	s.options = cleaned
	s.mu.Unlock()
}

// NewCategoryPolicy returns the policy registered under name.
func NewCategoryPolicy(name string, options []string) (CategoryPolicy, error) {
	switch name {
	case "", CategoryFree:
		return FreeText{}, nil
	case CategoryFixed:
		return NewFixedSet(options), nil
	}
	return nil, fmt.Errorf("pubform: unknown category policy %q", name)
}

// BuildRecord normalizes a form into the record sent to the content table.
func BuildRecord(f FormState, media MediaPolicy) ContentRecord {
	return ContentRecord{
		Title:      f.Title,
		AuthorName: f.AuthorName,
		Department: f.Department,
		Category:   f.Category,
		Body:       f.Body,
		MediaItems: media.Normalize(f),
		IsFeatured: f.IsFeatured,
		Tags:       NormalizeTags(f.Tags),
	}
}
