package results

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmem "github.com/Djennat/web-scraping/internal/blob/memory"
	"github.com/Djennat/web-scraping/internal/etl"
	notifymem "github.com/Djennat/web-scraping/internal/notify/memory"
	"github.com/Djennat/web-scraping/internal/scraping"
	"github.com/Djennat/web-scraping/internal/store/memory"
)

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	svc      *Service
	results  *memory.ResultStore
	mirror   *memory.MirrorStore
	archive  *blobmem.BlobStore
	notifier *notifymem.Notifier
	userID   string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	idGen := &seqIDGen{}
	clock := fixedClock{now: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)}

	users := memory.NewUserStore(idGen)
	userID, err := users.CreateUser(context.Background(), scraping.User{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     scraping.RoleUser,
	})
	require.NoError(t, err)

	results := memory.NewResultStore(idGen)
	mirror := memory.NewMirrorStore()
	archive := blobmem.NewBlobStore()
	notifier := notifymem.New()

	svc := NewService(users, results, mirror, archive,
		etl.NewTransformer(clock, nil), notifier, clock, cfg, nil)
	return &fixture{
		svc:      svc,
		results:  results,
		mirror:   mirror,
		archive:  archive,
		notifier: notifier,
		userID:   userID,
	}
}

func validCreate() scraping.ResultCreate {
	return scraping.ResultCreate{
		RequestID:   "req-1",
		WebsiteURLs: []string{"https://www.example.com/page"},
		Keywords:    []string{"economy"},
		Fields: scraping.ResultFields{
			Title:   "Prices rise",
			Content: "hello world",
			Date:    "2024-03-20",
		},
	}
}

func TestStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	ctx := context.Background()

	result, err := f.svc.Store(ctx, f.userID, validCreate())
	require.NoError(t, err)
	f.svc.Wait()

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, f.userID, result.UserID)
	assert.Equal(t, []string{"example.com"}, result.WebsiteURLs,
		"the caller sees the canonical form")
	assert.Equal(t, 11, result.Fields.CharacterCount)

	stored, err := f.results.ListResultsByUser(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []string{"https://www.example.com/page"}, stored[0].WebsiteURLs,
		"the authoritative copy keeps the record as submitted")

	mirrored, err := f.mirror.ListResultsByUser(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, result.ID, mirrored[0].ID)
	assert.Equal(t, []string{"example.com"}, mirrored[0].WebsiteURLs,
		"the mirror carries the canonical form")
	assert.Equal(t, 11, mirrored[0].Fields.CharacterCount)

	assert.Equal(t, 1, f.archive.Len(), "the raw submission is archived")

	ready := f.notifier.ResultsReady()
	require.Len(t, ready, 1)
	assert.Equal(t, result.ID, ready[0].ResultID)
	assert.Equal(t, "alice@example.com", ready[0].Email)
}

func TestStore_UnknownUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	_, err := f.svc.Store(context.Background(), "nobody", validCreate())
	assert.ErrorIs(t, err, scraping.ErrNotFound)
}

func TestStore_MirrorFailureDoesNotFailCall(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.mirror.FailWrites = true

	result, err := f.svc.Store(context.Background(), f.userID, validCreate())
	require.NoError(t, err)
	f.svc.Wait()

	assert.NotEmpty(t, result.ID)
	assert.Empty(t, f.notifier.ResultsReady(), "no ready notification without a mirrored copy")

	stored, err := f.results.ListResultsByUser(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, result.ID, stored[0].ID)
}

func TestStore_UnnormalizableStillPersists(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	in := validCreate()
	in.Fields.Content = ""

	result, err := f.svc.Store(context.Background(), f.userID, in)
	require.NoError(t, err)
	f.svc.Wait()

	assert.NotEmpty(t, result.ID)
	mirrored, err := f.mirror.ListResultsByUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, mirrored, "a record that fails normalization is never mirrored")
}

func TestGetResults_MirrorFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.Store(ctx, f.userID, validCreate())
	require.NoError(t, err)
	f.svc.Wait()

	got, err := f.svc.GetResults(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"example.com"}, got[0].WebsiteURLs, "mirror reads win when available")
}

func TestGetResults_FallsBackToAuthoritative(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.Store(ctx, f.userID, validCreate())
	require.NoError(t, err)
	f.svc.Wait()

	f.mirror.FailReads = true
	got, err := f.svc.GetResults(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"https://www.example.com/page"}, got[0].WebsiteURLs)
}

func TestGetResults_NoRowsAnywhere(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.mirror.FailReads = true

	got, err := f.svc.GetResults(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

type failingResultStore struct{}

func (failingResultStore) InsertResult(context.Context, scraping.Result) (string, error) {
	return "", scraping.ErrUpstreamUnavailable
}

func (failingResultStore) ListResultsByUser(context.Context, string) ([]scraping.Result, error) {
	return nil, scraping.ErrUpstreamUnavailable
}

func TestGetResults_DoubleFailureDegradesToEmpty(t *testing.T) {
	t.Parallel()

	idGen := &seqIDGen{}
	clock := fixedClock{now: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)}
	mirror := memory.NewMirrorStore()
	mirror.FailReads = true

	svc := NewService(memory.NewUserStore(idGen), failingResultStore{}, mirror, nil,
		etl.NewTransformer(clock, nil), notifymem.New(), clock, Config{}, nil)

	got, err := svc.GetResults(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStore_MirrorRetriesSucceed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{MirrorRetries: 2, MirrorBackoff: time.Millisecond})
	f.mirror.FailNextWrites(2)

	_, err := f.svc.Store(context.Background(), f.userID, validCreate())
	require.NoError(t, err)
	f.svc.Wait()

	mirrored, err := f.mirror.ListResultsByUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, mirrored, 1)
}
