package weblink

import (
	"time"
)

// FetchResult is produced once per fetch attempt and never modified afterwards.
type FetchResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Content    string `json:"-"`
	Message    string `json:"message,omitempty"`
	// Err holds the typed failure behind Message.
	Err error `json:"-"`
}

// FetchFailed builds a failed FetchResult whose message mirrors err.
func FetchFailed(statusCode int, err error) FetchResult {
	return FetchResult{
		Success:    false,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// Record is a versioned snapshot of the metadata extracted for one URL.
type Record struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Version     int       `json:"version"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Keywords    *string   `json:"keywords,omitempty"`
	Author      *string   `json:"author,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	SnapshotURI string    `json:"snapshot_uri,omitempty"`
	InspectedAt time.Time `json:"inspected_at"`
}

// Outcome is returned from a single inspection.
type Outcome struct {
	Success bool    `json:"success"`
	Record  *Record `json:"record,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Notification is published after a record has been persisted.
type Notification struct {
	RecordID    string    `json:"record_id"`
	URL         string    `json:"url"`
	Version     int       `json:"version"`
	SnapshotURI string    `json:"snapshot_uri,omitempty"`
	InspectedAt time.Time `json:"inspected_at"`
}

// NextVersion returns the version a new record for the same URL should get,
// given the existing records ordered by version descending.
func NextVersion(existing []Record) int {
	if len(existing) == 0 {
		return 1
	}
	return existing[0].Version + 1
}

// ItemStatus is the publication state of a blog page or post.
type ItemStatus string

// Publication states.
const (
	ItemStatusDraft     ItemStatus = "draft"
	ItemStatusPublished ItemStatus = "published"
)

// Page is a static blog page.
type Page struct {
	ID         int64      `json:"id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Status     ItemStatus `json:"status"`
	ModifiedAt time.Time  `json:"modified_at"`
}

// Post is a blog post.
type Post struct {
	ID           int64      `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	ShortContent string     `json:"short_content"`
	FullContent  string     `json:"full_content"`
	Status       ItemStatus `json:"status"`
	ModifiedAt   time.Time  `json:"modified_at"`
}

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult groups the pages and posts matching a search term.
type SearchResult struct {
	Pages []Page `json:"pages"`
	Posts []Post `json:"posts"`
}
