package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
	"github.com/Temutjin2k/triplog/pkg/postgres"
	"github.com/Temutjin2k/triplog/pkg/trm"
)

const serviceName = "triplog"

// TripRepo stores finished trips. It is the trip sink of the tracker.
type TripRepo struct {
	db  DB
	trm trm.TxManager
}

func NewTripRepo(db DB) *TripRepo {
	return &TripRepo{
		db:  db,
		trm: trm.New(db),
	}
}

// Save inserts the trip and its two locations in one transaction.
// Saving a trip id twice is a no-op, so resubmitting an already stored record succeeds.
func (r *TripRepo) Save(ctx context.Context, trip *models.TripRecord) (err error) {
	const op = "TripRepo.Save"

	if err := validateTrip(trip); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	analysis, err := marshalNullable(trip.RouteAnalysis)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal route analysis: %w", op, err))
	}
	quality, err := marshalNullable(trip.TrackingQuality)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: marshal tracking quality: %w", op, err))
	}

	start := time.Now()
	defer func() {
		metrics.RecordDatabaseQuery(serviceName, "save_trip", err, time.Since(start))
	}()

	err = r.trm.Do(ctx, func(ctx context.Context) error {
		q := TxorDB(ctx, r.db)

		const insertTrip = `
			INSERT INTO trips (
				id, user_id, trip_date, start_time, end_time, duration_seconds,
				distance_km, purpose, route_analysis, tracking_quality
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`

		tag, err := q.Exec(ctx, insertTrip,
			trip.ID,
			trip.UserID,
			trip.Date,
			trip.StartTime,
			trip.EndTime,
			trip.DurationSeconds,
			trip.DistanceKm,
			trip.Purpose,
			analysis,
			quality,
		)
		if err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// stored by an earlier attempt
			return nil
		}

		const insertLocation = `
			INSERT INTO trip_locations (trip_id, kind, address, latitude, longitude, accuracy_m)
			VALUES ($1, $2, $3, $4, $5, $6)`

		for _, loc := range []struct {
			kind string
			loc  models.TripLocation
		}{
			{"start", trip.StartLocation},
			{"end", trip.EndLocation},
		} {
			if _, err := q.Exec(ctx, insertLocation,
				trip.ID,
				loc.kind,
				loc.loc.Address,
				loc.loc.Coordinates.Lat,
				loc.loc.Coordinates.Lng,
				loc.loc.Coordinates.Accuracy,
			); err != nil {
				return fmt.Errorf("insert %s location: %w", loc.kind, err)
			}
		}
		return nil
	})
	if err != nil {
		if postgres.IsConstraintViolation(err) {
			return wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrTripRejected, err))
		}
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return nil
}

// Exists reports whether a trip with id is stored.
func (r *TripRepo) Exists(ctx context.Context, id string) (bool, error) {
	const op = "TripRepo.Exists"

	var exists bool
	err := TxorDB(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return exists, nil
}

func validateTrip(trip *models.TripRecord) error {
	switch {
	case trip == nil:
		return fmt.Errorf("%w: empty record", types.ErrTripRejected)
	case trip.ID == "":
		return fmt.Errorf("%w: missing id", types.ErrTripRejected)
	case trip.UserID == "":
		return fmt.Errorf("%w: missing user id", types.ErrTripRejected)
	case trip.StartTime.IsZero():
		return fmt.Errorf("%w: missing start time", types.ErrTripRejected)
	case trip.DistanceKm <= 0:
		return fmt.Errorf("%w: distance must be positive", types.ErrTripRejected)
	}
	return nil
}

func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
