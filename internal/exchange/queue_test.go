package exchange

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djennat/web-scraping/internal/scraping"
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

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(&seqIDGen{}, newStubClock(), Config{}, nil)

	id, err := q.Enqueue("user-1", []string{"site.org"}, []string{"economy"}, []byte("payload"))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, q.Len())

	payload, err := q.Dequeue("user-1", id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)
	assert.Equal(t, 0, q.Len())

	_, err = q.Dequeue("user-1", id)
	assert.ErrorIs(t, err, scraping.ErrNotFound, "a descriptor is delivered exactly once")
}

func TestQueue_DequeueOwnerMismatch(t *testing.T) {
	t.Parallel()

	q := NewQueue(&seqIDGen{}, newStubClock(), Config{}, nil)

	id, err := q.Enqueue("user-1", []string{"site.org"}, nil, []byte("payload"))
	require.NoError(t, err)

	_, err = q.Dequeue("user-2", id)
	assert.ErrorIs(t, err, scraping.ErrNotFound)
	assert.Equal(t, 1, q.Len(), "a mismatched dequeue must not consume the entry")

	_, err = q.Dequeue("user-1", id)
	require.NoError(t, err)
}

func TestQueue_ConcurrentDequeueSingleWinner(t *testing.T) {
	t.Parallel()

	q := NewQueue(&seqIDGen{}, newStubClock(), Config{}, nil)

	id, err := q.Enqueue("user-1", []string{"site.org"}, nil, []byte("payload"))
	require.NoError(t, err)

	const attempts = 32
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.Dequeue("user-1", id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestQueue_EvictsExpiredEntries(t *testing.T) {
	t.Parallel()

	clock := newStubClock()
	q := NewQueue(&seqIDGen{}, clock, Config{MaxAge: time.Minute}, nil)

	stale, err := q.Enqueue("user-1", []string{"site.org"}, nil, []byte("old"))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	fresh, err := q.Enqueue("user-1", []string{"site.org"}, nil, []byte("new"))
	require.NoError(t, err)

	_, err = q.Dequeue("user-1", stale)
	assert.ErrorIs(t, err, scraping.ErrNotFound)

	payload, err := q.Dequeue("user-1", fresh)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), payload)
}

func TestQueue_EvictsOldestOverCapacity(t *testing.T) {
	t.Parallel()

	clock := newStubClock()
	q := NewQueue(&seqIDGen{}, clock, Config{MaxEntries: 2}, nil)

	first, err := q.Enqueue("user-1", []string{"site.org"}, nil, []byte("a"))
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = q.Enqueue("user-1", []string{"site.org"}, nil, []byte("b"))
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = q.Enqueue("user-1", []string{"site.org"}, nil, []byte("c"))
	require.NoError(t, err)

	assert.Equal(t, 2, q.Len())
	_, err = q.Dequeue("user-1", first)
	assert.ErrorIs(t, err, scraping.ErrNotFound, "the oldest entry makes room for the newest")
}
