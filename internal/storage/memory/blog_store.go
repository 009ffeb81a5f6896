package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// BlogStore implements weblink.BlogStore.
type BlogStore struct {
	mu          sync.RWMutex
	pages       []weblink.Page
	posts       []weblink.Post
	subscribers []weblink.Subscriber
	nextID      int64
	now         func() time.Time
}

// NewBlogStore constructs an empty BlogStore.
func NewBlogStore() *BlogStore {
	return &BlogStore{now: func() time.Time { return time.Now().UTC() }}
}

// PublishedPage returns the published page with slug.
func (s *BlogStore) PublishedPage(_ context.Context, slug string) (weblink.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, page := range s.pages {
		if page.Slug == slug && page.Status == weblink.ItemStatusPublished {
			return page, nil
		}
	}
	return weblink.Page{}, weblink.ErrNotFound
}

// PublishedPages returns every published page.
func (s *BlogStore) PublishedPages(_ context.Context) ([]weblink.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []weblink.Page
	for _, page := range s.pages {
		if page.Status == weblink.ItemStatusPublished {
			out = append(out, page)
		}
	}
	return out, nil
}

// PublishedPost returns the published post matching both id and slug.
func (s *BlogStore) PublishedPost(_ context.Context, id int64, slug string) (weblink.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, post := range s.posts {
		if post.ID == id && post.Slug == slug && post.Status == weblink.ItemStatusPublished {
			return post, nil
		}
	}
	return weblink.Post{}, weblink.ErrNotFound
}

// PublishedPosts returns published posts, most recently modified first.
func (s *BlogStore) PublishedPosts(_ context.Context) ([]weblink.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []weblink.Post
	for _, post := range s.posts {
		if post.Status == weblink.ItemStatusPublished {
			out = append(out, post)
		}
	}
	sortPosts(out)
	return out, nil
}

// Search matches pages by title or content in any status, and published
// posts by title, short or full content.
func (s *BlogStore) Search(_ context.Context, term string) (weblink.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result weblink.SearchResult
	for _, page := range s.pages {
		if strings.Contains(page.Title, term) || strings.Contains(page.Content, term) {
			result.Pages = append(result.Pages, page)
		}
	}
	for _, post := range s.posts {
		if post.Status != weblink.ItemStatusPublished {
			continue
		}
		if strings.Contains(post.Title, term) ||
			strings.Contains(post.ShortContent, term) ||
			strings.Contains(post.FullContent, term) {
			result.Posts = append(result.Posts, post)
		}
	}
	sortPosts(result.Posts)
	return result, nil
}

// SavePage inserts page, or replaces the page with the same ID.
func (s *BlogStore) SavePage(_ context.Context, page weblink.Page) (weblink.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.ModifiedAt = s.now()
	if page.ID == 0 {
		page.ID = s.allocateID()
		s.pages = append(s.pages, page)
		return page, nil
	}
	for i := range s.pages {
		if s.pages[i].ID == page.ID {
			s.pages[i] = page
			return page, nil
		}
	}
	return weblink.Page{}, weblink.ErrNotFound
}

// SavePost inserts post, or replaces the post with the same ID.
func (s *BlogStore) SavePost(_ context.Context, post weblink.Post) (weblink.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ModifiedAt = s.now()
	if post.ID == 0 {
		post.ID = s.allocateID()
		s.posts = append(s.posts, post)
		return post, nil
	}
	for i := range s.posts {
		if s.posts[i].ID == post.ID {
			s.posts[i] = post
			return post, nil
		}
	}
	return weblink.Post{}, weblink.ErrNotFound
}

// SaveSubscriber records a new subscription.
func (s *BlogStore) SaveSubscriber(_ context.Context, subscriber weblink.Subscriber) (weblink.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subscriber.ID = s.allocateID()
	subscriber.CreatedAt = s.now()
	s.subscribers = append(s.subscribers, subscriber)
	return subscriber, nil
}

func (s *BlogStore) allocateID() int64 {
	s.nextID++
	return s.nextID
}

func sortPosts(posts []weblink.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ModifiedAt.After(posts[j].ModifiedAt)
	})
}
