package pubform

// MediaItem references a media file already uploaded to storage.
type MediaItem struct {
	Type        string `json:"type"`
	StoragePath string `json:"storagePath"`
	Title       string `json:"title"`
}

// complete reports whether all three sub-fields are non-empty.
func (m MediaItem) complete() bool {
	return m.Type != "" && m.StoragePath != "" && m.Title != ""
}

// ContentRecord is the normalized row sent to the content table.
// The persistence layer assigns content_id.
type ContentRecord struct {
	Title      string      `json:"title"`
	AuthorName string      `json:"author_name"`
	Department string      `json:"department"`
	Category   string      `json:"category"`
	Body       string      `json:"body"`
	MediaItems []MediaItem `json:"media_items"`
	IsFeatured bool        `json:"is_featured"`
	Tags       []string    `json:"tags"`
}

// FormState holds the editable field values of one form session.
// The zero value is the initial state.
type FormState struct {
	Title      string
	AuthorName string
	Department string
	Category   string
	Body       string
	Tags       string
	IsFeatured bool

	// MediaText is the raw comma-separated path list (combined policy).
	MediaText string
	// MediaItems is the list built up by AddMediaItem (list builder policy).
	MediaItems []MediaItem
	// Pending holds the media sub-fields not yet added (list builder),
	// or the single inline record (inline policy).
	Pending MediaItem
}

// clone returns a deep copy so snapshots never share the MediaItems backing array.
func (f FormState) clone() FormState {
	if f.MediaItems != nil {
		f.MediaItems = append([]MediaItem(nil), f.MediaItems...)
	}
	return f
}

// addMediaItem appends the pending item and clears the pending fields.
// An incomplete pending item leaves the state unchanged.
func (f *FormState) addMediaItem() error {
	if !f.Pending.complete() {
		return ErrIncompleteMediaItem
	}
	f.MediaItems = append(f.MediaItems, f.Pending)
	f.Pending = MediaItem{}
	return nil
}

// removeMediaItem drops the builder item at index i. Out-of-range indexes are ignored.
func (f *FormState) removeMediaItem(i int) {
	if i < 0 || i >= len(f.MediaItems) {
		return
	}
	f.MediaItems = append(f.MediaItems[:i:i], f.MediaItems[i+1:]...)
	if len(f.MediaItems) == 0 {
		f.MediaItems = nil
	}
}

// MissingFields returns the names of required fields that are empty.
// Like a browser's required attribute, whitespace counts as a value.
// Category is checked against the category policy.
func (f FormState) MissingFields(categories CategoryPolicy) []string {
	var missing []string
	if f.Title == "" {
		missing = append(missing, "title")
	}
	if f.AuthorName == "" {
		missing = append(missing, "author_name")
	}
	if f.Department == "" {
		missing = append(missing, "department")
	}
	if categories != nil && !categories.Accept(f.Category) {
		missing = append(missing, "category")
	}
	if f.Body == "" {
		missing = append(missing, "body")
	}
	return missing
}

// Status is a position in the submission state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return "unknown"
}

// Outcome is the feedback state derived from the last submit attempt.
type Outcome struct {
	Status    Status
	ContentID string // set on success when the store returned one
	Message   string // set on failure
}
