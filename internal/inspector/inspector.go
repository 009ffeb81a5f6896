// Package inspector runs one inspection: fetch a page, extract its metadata
// and persist a new versioned record for the URL.
package inspector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/weblink-inspector/internal/clock/system"
	"github.com/JakeFAU/weblink-inspector/internal/codec"
	"github.com/JakeFAU/weblink-inspector/internal/extractor"
	"github.com/JakeFAU/weblink-inspector/internal/hash/sha256"
	"github.com/JakeFAU/weblink-inspector/internal/id/uuid"
	"github.com/JakeFAU/weblink-inspector/internal/metrics"
	"github.com/JakeFAU/weblink-inspector/internal/telemetry"
	"github.com/JakeFAU/weblink-inspector/internal/urlutil"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

const (
	statusSuccess = "success"

	defaultContentType = "text/html; charset=utf-8"
)

// Service inspects URLs. It is safe for concurrent use as long as its
// collaborators are; version assignment is not serialized across calls.
type Service struct {
	fetcher   weblink.Fetcher
	store     weblink.RecordStore
	archive   weblink.BlobStore
	publisher weblink.Publisher

	archivePrefix string
	contentType   string
	topic         string

	hasher weblink.Hasher
	ids    weblink.IDGenerator
	clock  weblink.Clock
	tracer trace.Tracer
	logger *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithArchive stores the raw HTML of every successful inspection under prefix.
func WithArchive(store weblink.BlobStore, prefix, contentType string) Option {
	return func(s *Service) {
		s.archive = store
		s.archivePrefix = prefix
		if contentType != "" {
			s.contentType = contentType
		}
	}
}

// WithPublisher announces every saved record on topic.
func WithPublisher(publisher weblink.Publisher, topic string) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.topic = topic
	}
}

// WithHasher overrides the content hasher.
func WithHasher(h weblink.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithIDGenerator overrides the record ID generator.
func WithIDGenerator(ids weblink.IDGenerator) Option {
	return func(s *Service) { s.ids = ids }
}

// WithClock overrides the clock used for InspectedAt.
func WithClock(c weblink.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New builds a Service around a fetcher and a record store.
func New(fetcher weblink.Fetcher, store weblink.RecordStore, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		store:       store,
		contentType: defaultContentType,
		hasher:      sha256.New(),
		ids:         uuid.New(),
		clock:       system.New(),
		tracer:      telemetry.Tracer(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Inspect fetches url, extracts its metadata and saves a new record version.
// Failures are reported in the Outcome.
func (s *Service) Inspect(ctx context.Context, url string) weblink.Outcome {
	ctx, span := s.tracer.Start(ctx, "inspector.Inspect", trace.WithAttributes(attribute.String("url", url)))
	defer span.End()
	logger := s.logger.With(zap.String("url", url))

	fetched := s.fetcher.Fetch(ctx, url)
	if !fetched.Success {
		kind := weblink.FailureTransport
		if fetched.Err != nil {
			kind = weblink.FailureKind(fetched.Err)
		}
		logger.Info("fetch failed",
			zap.String("kind", kind),
			zap.Int("status", fetched.StatusCode),
			zap.String("message", fetched.Message),
		)
		s.finish(span, url, kind, errors.New(fetched.Message))
		return weblink.Outcome{Success: false, Message: fetched.Message}
	}

	record, err := s.buildRecord(ctx, url, fetched)
	if err != nil {
		return s.fail(span, logger, url, err)
	}

	if s.archive != nil {
		uri, err := s.archiveSnapshot(ctx, url, record.ContentHash, fetched.Content)
		if err != nil {
			logger.Warn("archive snapshot failed", zap.Error(err))
		} else {
			record.SnapshotURI = uri
		}
	}

	if err := s.store.SaveWebLink(ctx, record); err != nil {
		return s.fail(span, logger, url, fmt.Errorf("save weblink: %w", err))
	}

	if s.publisher != nil {
		s.notify(ctx, logger, record)
	}

	logger.Info("inspection stored",
		zap.String("record_id", record.ID),
		zap.Int("version", record.Version),
	)
	span.SetAttributes(attribute.Int("version", record.Version))
	s.finish(span, url, statusSuccess, nil)
	return weblink.Outcome{Success: true, Record: &record}
}

// History returns every stored version of url, newest first.
func (s *Service) History(ctx context.Context, url string) ([]weblink.Record, error) {
	records, err := s.store.WebLinks(ctx, url, 0)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", url, err)
	}
	return records, nil
}

// Latest returns the newest stored version of url or weblink.ErrNotFound.
func (s *Service) Latest(ctx context.Context, url string) (weblink.Record, error) {
	records, err := s.store.WebLinks(ctx, url, 1)
	if err != nil {
		return weblink.Record{}, fmt.Errorf("load latest for %s: %w", url, err)
	}
	if len(records) == 0 {
		return weblink.Record{}, weblink.ErrNotFound
	}
	return records[0], nil
}

func (s *Service) buildRecord(ctx context.Context, url string, fetched weblink.FetchResult) (weblink.Record, error) {
	doc, err := extractor.Parse(fetched.Content)
	if err != nil {
		return weblink.Record{}, err
	}

	// Read-then-write; concurrent inspections of one URL can collide.
	existing, err := s.store.WebLinks(ctx, url, 1)
	if err != nil {
		return weblink.Record{}, fmt.Errorf("query versions: %w", err)
	}
	version := weblink.NextVersion(existing)

	meta, err := extractor.Extract(doc)
	if err != nil {
		return weblink.Record{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return weblink.Record{}, err
	}
	digest, err := s.hasher.Hash([]byte(fetched.Content))
	if err != nil {
		return weblink.Record{}, fmt.Errorf("hash content: %w", err)
	}

	return weblink.Record{
		ID:          id,
		URL:         url,
		Version:     version,
		Title:       meta.Title,
		Description: meta.Description,
		Keywords:    meta.Keywords,
		Author:      meta.Author,
		StatusCode:  fetched.StatusCode,
		ContentHash: digest,
		InspectedAt: s.clock.Now(),
	}, nil
}

func (s *Service) archiveSnapshot(ctx context.Context, url, digest, content string) (string, error) {
	objectPath := path.Join(s.archivePrefix, urlutil.Site(url), digest+".html")
	body, err := codec.Encode(content)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	uri, err := s.archive.PutObject(ctx, objectPath, s.contentType, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("put %s: %w", objectPath, err)
	}
	return uri, nil
}

func (s *Service) notify(ctx context.Context, logger *zap.Logger, record weblink.Record) {
	msgID, err := s.publisher.Publish(ctx, s.topic, weblink.Notification{
		RecordID:    record.ID,
		URL:         record.URL,
		Version:     record.Version,
		SnapshotURI: record.SnapshotURI,
		InspectedAt: record.InspectedAt,
	})
	if err != nil {
		logger.Warn("publish notification failed", zap.String("topic", s.topic), zap.Error(err))
		return
	}
	logger.Debug("notification published", zap.String("message_id", msgID))
}

func (s *Service) fail(span trace.Span, logger *zap.Logger, url string, err error) weblink.Outcome {
	message := fmt.Sprintf("Exception on inspection url %s: %v", url, err)
	logger.Warn("inspection failed", zap.Error(err))
	s.finish(span, url, weblink.FailureExtraction, err)
	return weblink.Outcome{Success: false, Message: message}
}

func (s *Service) finish(span trace.Span, url, status string, err error) {
	metrics.ObserveInspection(url, status)
	span.SetAttributes(attribute.String("status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
