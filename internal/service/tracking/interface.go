package tracking

import (
	"context"

	"github.com/Temutjin2k/triplog/internal/domain/models"
)

/*=================Remote Distance Provider======================*/

// RouteOptions select the routing profile and preference of a provider request
type RouteOptions struct {
	Profile    string
	Preference string
}

type DistanceProvider interface {
	Route(ctx context.Context, from, to models.Position, opts RouteOptions) (models.Route, error)
}

/*=================Address Resolver==============================*/

// AddressResolver never fails; it falls back to formatted coordinates.
type AddressResolver interface {
	Resolve(ctx context.Context, lat, lng float64) string
}

/*=================Trip Sink=====================================*/

type TripSink interface {
	Save(ctx context.Context, trip *models.TripRecord) error
}

/*=================Pending Trips=================================*/

type PendingStore interface {
	Put(ctx context.Context, trip models.PendingTrip) error
	List(ctx context.Context, userID string) ([]models.PendingTrip, error)
	Get(ctx context.Context, tripID string) (*models.PendingTrip, error)
	Delete(ctx context.Context, tripID string) error
}

/*=================Position Source===============================*/

// PositionSource delivers fixes for one user until ctx is cancelled.
type PositionSource interface {
	Subscribe(ctx context.Context, userID string) (<-chan models.Position, error)
}

/*=================Status Notifier===============================*/

type StatusNotifier interface {
	Notify(ctx context.Context, userID string, snapshot models.Snapshot)
}

/*=================Trip Events===================================*/

type EventPublisher interface {
	PublishTripCompleted(ctx context.Context, event models.TripCompletedEvent) error
}
