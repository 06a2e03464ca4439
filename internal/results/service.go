// Package results implements the dual-persistence coordinator: an
// unconditional write to the authoritative store, followed by a
// best-effort mirror of the canonical form to the analytics store.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/blob"
	"github.com/Djennat/web-scraping/internal/etl"
	"github.com/Djennat/web-scraping/internal/metrics"
	"github.com/Djennat/web-scraping/internal/notify"
	"github.com/Djennat/web-scraping/internal/scraping"
)

// Config bounds the mirror path so a slow or dead secondary store can
// never stall the primary response.
type Config struct {
	MirrorTimeout time.Duration
	MirrorRetries int
	MirrorBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MirrorTimeout <= 0 {
		c.MirrorTimeout = 5 * time.Second
	}
	if c.MirrorRetries < 0 {
		c.MirrorRetries = 0
	}
	if c.MirrorBackoff <= 0 {
		c.MirrorBackoff = 500 * time.Millisecond
	}
	return c
}

// Service coordinates authoritative and mirror persistence. The
// authoritative write is the durability boundary: once it is
// acknowledged the result exists, whatever the mirror or the notifier do
// afterwards.
type Service struct {
	users       scraping.UserStore
	results     scraping.ResultStore
	mirror      scraping.MirrorStore
	archive     blob.Store
	transformer *etl.Transformer
	notifier    notify.Notifier
	clock       scraping.Clock
	logger      *zap.Logger
	cfg         Config

	mirrorWG sync.WaitGroup
}

// NewService constructs a Service.
func NewService(
	users scraping.UserStore,
	results scraping.ResultStore,
	mirror scraping.MirrorStore,
	archive blob.Store,
	transformer *etl.Transformer,
	notifier notify.Notifier,
	clock scraping.Clock,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if archive == nil {
		archive = blob.NoOpStore{}
	}
	return &Service{
		users:       users,
		results:     results,
		mirror:      mirror,
		archive:     archive,
		transformer: transformer,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
		cfg:         cfg.withDefaults(),
	}
}

// Store persists a submitted result. The raw-shaped record is written to
// the authoritative store unconditionally; the canonical form produced
// by the transformer is mirrored in the background and returned to the
// caller. A record that fails normalization is returned raw. Mirror and
// notification failures never fail the call.
func (s *Service) Store(ctx context.Context, userID string, in scraping.ResultCreate) (scraping.Result, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return scraping.Result{}, fmt.Errorf("look up user: %w", err)
	}

	raw := scraping.Result{
		UserID:      userID,
		RequestID:   in.RequestID,
		WebsiteURLs: append([]string(nil), in.WebsiteURLs...),
		Keywords:    append([]string(nil), in.Keywords...),
		Fields:      in.Fields,
		ScrapedAt:   s.clock.Now(),
	}

	s.archiveRaw(ctx, userID, raw)

	id, err := s.results.InsertResult(ctx, raw)
	if err != nil {
		return scraping.Result{}, fmt.Errorf("store result: %w", err)
	}
	raw.ID = id
	s.logger.Info("result stored",
		zap.String("result_id", id),
		zap.String("user_id", userID))

	canonical, err := s.transformer.Transform(s.rawRecordView(userID, in))
	if err != nil {
		// The authoritative write stands; only the mirror is skipped.
		s.logger.Warn("result did not normalize, skipping mirror",
			zap.String("result_id", id), zap.Error(err))
		return raw, nil
	}
	canonical.ID = id

	s.mirrorWG.Add(1)
	go s.mirrorResult(user, canonical)

	return canonical, nil
}

// GetResults serves reads mirror-first with fallback to the
// authoritative store. A double failure degrades to an empty list
// rather than an error.
func (s *Service) GetResults(ctx context.Context, userID string) ([]scraping.Result, error) {
	mirrorCtx, cancel := context.WithTimeout(ctx, s.cfg.MirrorTimeout)
	defer cancel()

	mirrored, err := s.mirror.ListResultsByUser(mirrorCtx, userID)
	if err != nil {
		metrics.ObserveMirrorReadFailure()
		s.logger.Warn("mirror read failed, falling back to authoritative store",
			zap.String("user_id", userID), zap.Error(err))
	} else if len(mirrored) > 0 {
		return mirrored, nil
	}

	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("authoritative read failed, degrading to empty result set",
			zap.String("user_id", userID), zap.Error(err))
		return []scraping.Result{}, nil
	}
	if results == nil {
		results = []scraping.Result{}
	}
	return results, nil
}

// Wait blocks until all in-flight mirror writes have settled. Called on
// shutdown and by tests.
func (s *Service) Wait() {
	s.mirrorWG.Wait()
}

// rawRecordView reconstructs the agent-protocol record the transformer
// expects from the flattened public write shape.
func (s *Service) rawRecordView(userID string, in scraping.ResultCreate) scraping.RawScrapeRecord {
	raw := scraping.RawScrapeRecord{
		Title:          in.Fields.Title,
		Authors:        in.Fields.Authors,
		Date:           in.Fields.Date,
		Content:        in.Fields.Content,
		CharacterCount: in.Fields.CharacterCount,
		RequestID:      in.RequestID,
		UserID:         userID,
	}
	if len(in.WebsiteURLs) > 0 {
		raw.URL = in.WebsiteURLs[0]
	}
	if len(in.Keywords) > 0 {
		raw.Keyword = in.Keywords[0]
	}
	return raw
}

// archiveRaw keeps the submitted record as received. Best effort only.
func (s *Service) archiveRaw(ctx context.Context, userID string, raw scraping.Result) {
	data, err := json.Marshal(raw)
	if err != nil {
		s.logger.Warn("marshal raw result for archive failed", zap.Error(err))
		return
	}
	path := fmt.Sprintf("raw/%s/%d.json", userID, s.clock.Now().UnixNano())
	uri, err := s.archive.PutObject(ctx, path, "application/json", data)
	if err != nil {
		s.logger.Warn("raw result archive failed", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Debug("raw result archived", zap.String("uri", uri))
}

// mirrorResult writes the canonical form to the secondary store with
// bounded, retried attempts, then emits the results-ready notification.
// It runs detached from the caller's request context.
func (s *Service) mirrorResult(user scraping.User, canonical scraping.Result) {
	defer s.mirrorWG.Done()

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MirrorRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.cfg.MirrorBackoff * time.Duration(attempt))
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MirrorTimeout)
		lastErr = s.mirror.WriteResult(ctx, canonical)
		cancel()
		if lastErr == nil {
			metrics.ObserveMirrorWrite("ok")
			s.logger.Info("result mirrored", zap.String("result_id", canonical.ID))
			s.notifyReady(user, canonical)
			return
		}
	}
	metrics.ObserveMirrorWrite("failed")
	s.logger.Error("mirror write failed, authoritative copy stands",
		zap.String("result_id", canonical.ID), zap.Error(lastErr))
}

func (s *Service) notifyReady(user scraping.User, canonical scraping.Result) {
	website := ""
	if len(canonical.WebsiteURLs) > 0 {
		website = canonical.WebsiteURLs[0]
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MirrorTimeout)
	defer cancel()
	err := s.notifier.NotifyResultsReady(ctx, notify.ResultsReadyNotification{
		Email:      user.Email,
		Username:   user.Username,
		WebsiteURL: website,
		ResultID:   canonical.ID,
	})
	if err != nil {
		s.logger.Warn("results-ready notification failed",
			zap.String("result_id", canonical.ID), zap.Error(err))
	}
}
