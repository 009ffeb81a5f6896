package weblink

import (
	"context"
	"io"
	"time"
)

// Fetcher retrieves a page. Failures are reported in the result, never as a panic.
type Fetcher interface {
	Fetch(ctx context.Context, url string) FetchResult
}

// RecordStore persists versioned weblink records.
type RecordStore interface {
	// WebLinks returns the records for url ordered by version descending.
	// A limit <= 0 returns every version.
	WebLinks(ctx context.Context, url string, limit int) ([]Record, error)
	SaveWebLink(ctx context.Context, record Record) error
}

// BlogStore serves the blog entities kept next to the weblink records.
type BlogStore interface {
	PublishedPage(ctx context.Context, slug string) (Page, error)
	PublishedPages(ctx context.Context) ([]Page, error)
	PublishedPost(ctx context.Context, id int64, slug string) (Post, error)
	// PublishedPosts returns published posts, most recently modified first.
	PublishedPosts(ctx context.Context) ([]Post, error)
	Search(ctx context.Context, term string) (SearchResult, error)
	SavePage(ctx context.Context, page Page) (Page, error)
	SavePost(ctx context.Context, post Post) (Post, error)
	SaveSubscriber(ctx context.Context, subscriber Subscriber) (Subscriber, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes record notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs.
type IDGenerator interface {
	NewID() (string, error)
}
