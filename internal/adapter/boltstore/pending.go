package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// bucket holding pending trips keyed by trip id
const pendingBucket = "pending_trips"

// PendingStore keeps trips the sink refused in a local bbolt file,
// so they survive restarts until resubmitted.
type PendingStore struct {
	db *bolt.DB
}

func Open(path string) (*PendingStore, error) {
	const op = "boltstore.Open"

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", op, path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(pendingBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: create bucket: %w", op, err)
	}

	return &PendingStore{db: db}, nil
}

func (s *PendingStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the trip.
func (s *PendingStore) Put(ctx context.Context, trip models.PendingTrip) error {
	const op = "PendingStore.Put"

	if trip.Record.ID == "" {
		return wrap.Error(ctx, fmt.Errorf("%s: %w: missing trip id", op, types.ErrTripRejected))
	}

	data, err := json.Marshal(trip)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal: %w", op, err))
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).Put([]byte(trip.Record.ID), data)
	})
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// List returns the trips of userID, or every trip when userID is empty.
func (s *PendingStore) List(ctx context.Context, userID string) ([]models.PendingTrip, error) {
	const op = "PendingStore.List"

	trips := []models.PendingTrip{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).ForEach(func(k, v []byte) error {
			var p models.PendingTrip
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if userID == "" || p.Record.UserID == userID {
				trips = append(trips, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return trips, nil
}

func (s *PendingStore) Get(ctx context.Context, tripID string) (*models.PendingTrip, error) {
	const op = "PendingStore.Get"

	var p models.PendingTrip
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(pendingBucket)).Get([]byte(tripID))
		if v == nil {
			return types.ErrTripNotFound
		}
		return json.Unmarshal(v, &p)
	})
	if err != nil {
		if errors.Is(err, types.ErrTripNotFound) {
			return nil, err
		}
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return &p, nil
}

// Delete removes the trip; deleting an unknown id is not an error.
func (s *PendingStore) Delete(ctx context.Context, tripID string) error {
	const op = "PendingStore.Delete"

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).Delete([]byte(tripID))
	})
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}
