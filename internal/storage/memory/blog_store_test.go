package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

func newTestBlogStore() *BlogStore {
	store := NewBlogStore()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return store
}

func TestBlogStorePages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestBlogStore()
	about, err := store.SavePage(ctx, weblink.Page{Slug: "about", Title: "About", Status: weblink.ItemStatusPublished})
	require.NoError(t, err)
	require.NotZero(t, about.ID)
	_, err = store.SavePage(ctx, weblink.Page{Slug: "draft", Title: "Draft", Status: weblink.ItemStatusDraft})
	require.NoError(t, err)

	got, err := store.PublishedPage(ctx, "about")
	require.NoError(t, err)
	require.Equal(t, about, got)

	_, err = store.PublishedPage(ctx, "draft")
	require.ErrorIs(t, err, weblink.ErrNotFound)

	pages, err := store.PublishedPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	about.Title = "About us"
	updated, err := store.SavePage(ctx, about)
	require.NoError(t, err)
	require.True(t, updated.ModifiedAt.After(about.ModifiedAt))

	_, err = store.SavePage(ctx, weblink.Page{ID: 999})
	require.ErrorIs(t, err, weblink.ErrNotFound)
}

func TestBlogStorePostsOrderedByModified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestBlogStore()
	first, err := store.SavePost(ctx, weblink.Post{Slug: "first", Title: "First", Status: weblink.ItemStatusPublished})
	require.NoError(t, err)
	second, err := store.SavePost(ctx, weblink.Post{Slug: "second", Title: "Second", Status: weblink.ItemStatusPublished})
	require.NoError(t, err)
	_, err = store.SavePost(ctx, weblink.Post{Slug: "hidden", Title: "Hidden", Status: weblink.ItemStatusDraft})
	require.NoError(t, err)

	posts, err := store.PublishedPosts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"second", "first"}, []string{posts[0].Slug, posts[1].Slug})

	got, err := store.PublishedPost(ctx, first.ID, "first")
	require.NoError(t, err)
	require.Equal(t, first, got)

	_, err = store.PublishedPost(ctx, second.ID, "first")
	require.ErrorIs(t, err, weblink.ErrNotFound)
}

func TestBlogStoreSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestBlogStore()
	_, err := store.SavePage(ctx, weblink.Page{Slug: "go", Title: "Go notes", Status: weblink.ItemStatusDraft})
	require.NoError(t, err)
	_, err = store.SavePage(ctx, weblink.Page{Slug: "misc", Content: "nothing here", Status: weblink.ItemStatusPublished})
	require.NoError(t, err)
	_, err = store.SavePost(ctx, weblink.Post{Slug: "a", FullContent: "Go channels", Status: weblink.ItemStatusPublished})
	require.NoError(t, err)
	_, err = store.SavePost(ctx, weblink.Post{Slug: "b", ShortContent: "Go draft", Status: weblink.ItemStatusDraft})
	require.NoError(t, err)

	result, err := store.Search(ctx, "Go")
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	require.Equal(t, "go", result.Pages[0].Slug)
	require.Len(t, result.Posts, 1)
	require.Equal(t, "a", result.Posts[0].Slug)
}

func TestBlogStoreSaveSubscriber(t *testing.T) {
	t.Parallel()

	store := newTestBlogStore()
	sub, err := store.SaveSubscriber(context.Background(), weblink.Subscriber{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	require.NotZero(t, sub.ID)
	require.False(t, sub.CreatedAt.IsZero())
}
