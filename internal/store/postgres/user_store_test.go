package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Djennat/web-scraping/internal/scraping"
)

func TestCreateUserInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewUserStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	user := scraping.User{
		Username:  "alice",
		Email:     "alice@example.com",
		Role:      scraping.RoleUser,
		Active:    true,
		CreatedAt: now,
	}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", "user", []string{}, []string{}, true, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("user-1"))

	id, err := store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, "user-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserMapsNoRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewUserStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, scraping.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserScansRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewUserStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "username", "email", "role", "interests", "allowed_websites", "active", "created_at",
	}).AddRow("user-1", "alice", "alice@example.com", "admin",
		[]string{"economy"}, []string{"https://site.org"}, true, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("user-1").
		WillReturnRows(rows)

	user, err := store.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, scraping.RoleAdmin, user.Role)
	require.Equal(t, []string{"https://site.org"}, user.AllowedWebsites)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantWebsiteAppends(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewUserStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE users").
		WithArgs("user-1", "https://site.org").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.GrantWebsite(context.Background(), "user-1", "https://site.org"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantWebsiteAlreadyGranted(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewUserStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE users").
		WithArgs("user-1", "https://site.org").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, store.GrantWebsite(context.Background(), "user-1", "https://site.org"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantWebsiteUnknownUser(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewUserStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE users").
		WithArgs("missing", "https://site.org").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	err = store.GrantWebsite(context.Background(), "missing", "https://site.org")
	require.ErrorIs(t, err, scraping.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
