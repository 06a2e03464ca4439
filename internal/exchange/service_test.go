package exchange

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djennat/web-scraping/internal/agentxml"
	"github.com/Djennat/web-scraping/internal/scraping"
	"github.com/Djennat/web-scraping/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	users := memory.NewUserStore(&seqIDGen{})
	userID, err := users.CreateUser(context.Background(), scraping.User{
		Username:        "alice",
		Email:           "alice@example.com",
		Role:            scraping.RoleUser,
		AllowedWebsites: []string{"https://site.org"},
	})
	require.NoError(t, err)

	queue := NewQueue(&seqIDGen{}, newStubClock(), Config{}, nil)
	return NewService(queue, users, newStubClock(), nil), userID
}

func TestService_CreateJob(t *testing.T) {
	t.Parallel()

	svc, userID := newTestService(t)

	requestID, payload, err := svc.CreateJob(context.Background(), userID, []string{"https://site.org"}, []string{"economy"})
	require.NoError(t, err)
	require.NotEmpty(t, requestID)
	assert.Contains(t, string(payload), "<url>https://site.org</url>")
	assert.Contains(t, string(payload), "<keyword>economy</keyword>")

	fetched, err := svc.FetchJob(userID, requestID)
	require.NoError(t, err)
	assert.Equal(t, payload, fetched)

	_, err = svc.FetchJob(userID, requestID)
	assert.ErrorIs(t, err, scraping.ErrNotFound)
}

func TestService_CreateJobDeniedSite(t *testing.T) {
	t.Parallel()

	svc, userID := newTestService(t)

	_, _, err := svc.CreateJob(context.Background(), userID, []string{"https://forbidden.example"}, nil)
	assert.ErrorIs(t, err, scraping.ErrNotAllowed)
}

func TestService_CreateJobUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, _, err := svc.CreateJob(context.Background(), "nobody", []string{"https://site.org"}, nil)
	assert.ErrorIs(t, err, scraping.ErrNotFound)
}

func TestService_SubmitPayload(t *testing.T) {
	t.Parallel()

	svc, userID := newTestService(t)

	payload, err := agentxml.Generate([]string{"https://site.org"}, []string{"economy"}, newStubClock().Now())
	require.NoError(t, err)

	requestID, err := svc.SubmitPayload(context.Background(), userID, payload)
	require.NoError(t, err)

	fetched, err := svc.FetchJob(userID, requestID)
	require.NoError(t, err)
	assert.Equal(t, payload, fetched)
}

func TestService_SubmitPayloadMalformed(t *testing.T) {
	t.Parallel()

	svc, userID := newTestService(t)

	_, err := svc.SubmitPayload(context.Background(), userID, []byte("<scraping_request><site>"))
	var verr *scraping.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_SubmitPayloadDeniedSite(t *testing.T) {
	t.Parallel()

	svc, userID := newTestService(t)

	payload, err := agentxml.Generate([]string{"https://forbidden.example"}, nil, newStubClock().Now())
	require.NoError(t, err)

	_, err = svc.SubmitPayload(context.Background(), userID, payload)
	assert.ErrorIs(t, err, scraping.ErrNotAllowed)
}
