package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

const (
	pageColumns = `id, slug, title, content, status, modified_at`
	postColumns = `id, slug, title, short_content, full_content, status, modified_at`
)

// PublishedPage returns the published page with slug.
func (s *Store) PublishedPage(ctx context.Context, slug string) (weblink.Page, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = $1 AND status = $2 LIMIT 1`,
		slug, string(weblink.ItemStatusPublished))
	page, err := scanPage(row)
	if err != nil {
		return weblink.Page{}, notFound(err, "page")
	}
	return page, nil
}

// PublishedPages returns every published page.
func (s *Store) PublishedPages(ctx context.Context) ([]weblink.Page, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE status = $1 ORDER BY id`,
		string(weblink.ItemStatusPublished))
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	return collect(rows, scanPage)
}

// PublishedPost returns the published post matching id and slug.
func (s *Store) PublishedPost(ctx context.Context, id int64, slug string) (weblink.Post, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1 AND slug = $2 AND status = $3`,
		id, slug, string(weblink.ItemStatusPublished))
	post, err := scanPost(row)
	if err != nil {
		return weblink.Post{}, notFound(err, "post")
	}
	return post, nil
}

// PublishedPosts returns published posts, most recently modified first.
func (s *Store) PublishedPosts(ctx context.Context) ([]weblink.Post, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE status = $1 ORDER BY modified_at DESC`,
		string(weblink.ItemStatusPublished))
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return collect(rows, scanPost)
}

// Search matches pages by title or content, and published posts by any text column.
func (s *Store) Search(ctx context.Context, term string) (weblink.SearchResult, error) {
	pageRows, err := s.pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE strpos(title, $1) > 0 OR strpos(content, $1) > 0 ORDER BY id`,
		term)
	if err != nil {
		return weblink.SearchResult{}, fmt.Errorf("search pages: %w", err)
	}
	pages, err := collect(pageRows, scanPage)
	if err != nil {
		return weblink.SearchResult{}, err
	}

	postRows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts
WHERE status = $2 AND (strpos(title, $1) > 0 OR strpos(short_content, $1) > 0 OR strpos(full_content, $1) > 0)
ORDER BY modified_at DESC`,
		term, string(weblink.ItemStatusPublished))
	if err != nil {
		return weblink.SearchResult{}, fmt.Errorf("search posts: %w", err)
	}
	posts, err := collect(postRows, scanPost)
	if err != nil {
		return weblink.SearchResult{}, err
	}
	return weblink.SearchResult{Pages: pages, Posts: posts}, nil
}

// SavePage inserts a page when ID is zero and updates it otherwise.
func (s *Store) SavePage(ctx context.Context, page weblink.Page) (weblink.Page, error) {
	if page.ID == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO pages (slug, title, content, status) VALUES ($1,$2,$3,$4) RETURNING id, modified_at`,
			page.Slug, page.Title, page.Content, string(page.Status),
		).Scan(&page.ID, &page.ModifiedAt)
		if err != nil {
			return weblink.Page{}, fmt.Errorf("insert page: %w", err)
		}
		return page, nil
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE pages SET slug = $2, title = $3, content = $4, status = $5, modified_at = now() WHERE id = $1 RETURNING modified_at`,
		page.ID, page.Slug, page.Title, page.Content, string(page.Status),
	).Scan(&page.ModifiedAt)
	if err != nil {
		return weblink.Page{}, notFound(err, "page")
	}
	return page, nil
}

// SavePost inserts a post when ID is zero and updates it otherwise.
func (s *Store) SavePost(ctx context.Context, post weblink.Post) (weblink.Post, error) {
	if post.ID == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO posts (slug, title, short_content, full_content, status) VALUES ($1,$2,$3,$4,$5) RETURNING id, modified_at`,
			post.Slug, post.Title, post.ShortContent, post.FullContent, string(post.Status),
		).Scan(&post.ID, &post.ModifiedAt)
		if err != nil {
			return weblink.Post{}, fmt.Errorf("insert post: %w", err)
		}
		return post, nil
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE posts SET slug = $2, title = $3, short_content = $4, full_content = $5, status = $6, modified_at = now()
WHERE id = $1 RETURNING modified_at`,
		post.ID, post.Slug, post.Title, post.ShortContent, post.FullContent, string(post.Status),
	).Scan(&post.ModifiedAt)
	if err != nil {
		return weblink.Post{}, notFound(err, "post")
	}
	return post, nil
}

// SaveSubscriber inserts a subscription.
func (s *Store) SaveSubscriber(ctx context.Context, subscriber weblink.Subscriber) (weblink.Subscriber, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO subscribers (name, email) VALUES ($1,$2) RETURNING id, created_at`,
		subscriber.Name, subscriber.Email,
	).Scan(&subscriber.ID, &subscriber.CreatedAt)
	if err != nil {
		return weblink.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	return subscriber, nil
}

func scanPage(row pgx.Row) (weblink.Page, error) {
	var (
		page   weblink.Page
		status string
	)
	if err := row.Scan(&page.ID, &page.Slug, &page.Title, &page.Content, &status, &page.ModifiedAt); err != nil {
		return weblink.Page{}, err
	}
	page.Status = weblink.ItemStatus(status)
	return page, nil
}

func scanPost(row pgx.Row) (weblink.Post, error) {
	var (
		post   weblink.Post
		status string
	)
	if err := row.Scan(&post.ID, &post.Slug, &post.Title, &post.ShortContent, &post.FullContent, &status, &post.ModifiedAt); err != nil {
		return weblink.Post{}, err
	}
	post.Status = weblink.ItemStatus(status)
	return post, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func notFound(err error, kind string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", kind, weblink.ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", kind, err)
}
