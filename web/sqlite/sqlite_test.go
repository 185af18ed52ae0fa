package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadewadee/google-place-resolver/place"
	"github.com/sadewadee/google-place-resolver/web"
)

func newTestRepo(t *testing.T) web.JournalRepository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	return repo
}

func okRecord(id string, date time.Time) *web.JournalRecord {
	return &web.JournalRecord{
		ID:       id,
		URL:      "https://www.google.com/maps/place/Some+Cafe",
		Language: "en",
		Status:   web.StatusOK,
		Date:     date,
		Place: &place.Place{
			Name:   "Some Cafe",
			Source: "html",
		},
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, okRecord("a", date)))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
	require.Equal(t, web.StatusOK, got.Status)
	require.Equal(t, date, got.Date)
	require.NotNil(t, got.Place)
	require.Equal(t, "Some Cafe", got.Place.Name)
}

func TestFailedRecordHasNoPlace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &web.JournalRecord{
		ID:     "b",
		URL:    "https://maps.app.goo.gl/broken",
		Status: web.StatusFailed,
		Error:  "no place found",
		Date:   time.Now().UTC(),
	}

	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	require.Nil(t, got.Place)
	require.Equal(t, "no place found", got.Error)
}

func TestSelectFiltersAndOrders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, okRecord("old", base)))
	require.NoError(t, repo.Create(ctx, okRecord("new", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, &web.JournalRecord{
		ID:     "bad",
		URL:    "https://maps.app.goo.gl/broken",
		Status: web.StatusFailed,
		Error:  "boom",
		Date:   base.Add(2 * time.Hour),
	}))

	all, err := repo.Select(ctx, web.SelectParams{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "bad", all[0].ID)

	ok, err := repo.Select(ctx, web.SelectParams{Status: web.StatusOK, Limit: 1})
	require.NoError(t, err)
	require.Len(t, ok, 1)
	require.Equal(t, "new", ok[0].ID)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, okRecord("a", time.Now().UTC())))
	require.NoError(t, repo.Delete(ctx, "a"))

	_, err := repo.Get(ctx, "a")
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, okRecord("a", base)))
	require.NoError(t, repo.Create(ctx, okRecord("b", base.Add(10*time.Minute))))
	require.NoError(t, repo.Create(ctx, &web.JournalRecord{
		ID:     "c",
		URL:    "https://maps.app.goo.gl/broken",
		Status: web.StatusFailed,
		Error:  "boom",
		Date:   base.Add(20 * time.Minute),
	}))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Succeeded)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, base.Add(20*time.Minute), stats.LastActivity)
	require.InDelta(t, 0.15, stats.ResolvesPerMin, 0.01)
}
