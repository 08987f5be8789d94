package boltstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
)

func openStore(t *testing.T) (*PendingStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pending.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store, path
}

func pending(id, user string) models.PendingTrip {
	return models.PendingTrip{
		Record: models.TripRecord{
			ID:         id,
			UserID:     user,
			StartTime:  time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC),
			DistanceKm: 3.5,
			Purpose:    models.DefaultPurpose,
		},
		LastError: "connection refused",
		Attempts:  1,
		StoredAt:  time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC),
	}
}

func TestPendingStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	defer store.Close()

	if err := store.Put(ctx, pending("a", "u1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, pending("b", "u2")); err != nil {
		t.Fatalf("put: %v", err)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(all))
	}

	mine, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].Record.ID != "a" {
		t.Fatalf("expected only trip a, got %+v", mine)
	}

	got, err := store.Get(ctx, "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Record.UserID != "u2" || got.Attempts != 1 || got.Record.DistanceKm != 3.5 {
		t.Fatalf("unexpected trip %+v", got)
	}

	if err := store.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, types.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "b"); err != nil {
		t.Fatalf("deleting twice should succeed: %v", err)
	}
}

func TestPendingStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)
	defer store.Close()

	p := pending("a", "u1")
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("put: %v", err)
	}
	p.Attempts = 3
	p.LastError = "timeout"
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("put: %v", err)
	}

	all, _ := store.List(ctx, "")
	if len(all) != 1 || all[0].Attempts != 3 || all[0].LastError != "timeout" {
		t.Fatalf("expected replaced record, got %+v", all)
	}
}

func TestPendingStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t)

	if err := store.Put(ctx, pending("a", "u1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !got.StoredAt.Equal(time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected stored at %v", got.StoredAt)
	}
}

func TestPendingStoreRejectsMissingID(t *testing.T) {
	store, _ := openStore(t)
	defer store.Close()

	if err := store.Put(context.Background(), pending("", "u1")); !errors.Is(err, types.ErrTripRejected) {
		t.Fatalf("expected ErrTripRejected, got %v", err)
	}
}
