package tracking

import (
	"context"
	"math"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// RouteComparison compares the driven distance with the provider's optimal route.
type RouteComparison struct {
	provider DistanceProvider
	opts     RouteOptions
	log      logger.Logger
}

func NewRouteComparison(provider DistanceProvider, log logger.Logger) *RouteComparison {
	return &RouteComparison{
		provider: provider,
		opts:     RouteOptions{Profile: "driving-car"},
		log:      log,
	}
}

// Compare returns nil when no comparison is available.
func (c *RouteComparison) Compare(ctx context.Context, start, end models.Position, actualKm float64) *models.RouteAnalysis {
	if c == nil || c.provider == nil {
		return nil
	}

	optimal, err := c.provider.Route(ctx, start, end, c.opts)
	if err != nil {
		c.log.Warn(wrap.WithAction(wrap.ErrorCtx(ctx, err), types.ActionExternalServiceFailed),
			"optimal route unavailable", "error", err.Error())
		return nil
	}
	if !(optimal.DistanceKm > 0) || math.IsInf(optimal.DistanceKm, 1) {
		return nil
	}

	difference := actualKm - optimal.DistanceKm
	percent := round1(difference / optimal.DistanceKm * 100)

	return &models.RouteAnalysis{
		OptimalDistanceKm:        optimal.DistanceKm,
		ActualDistanceKm:         actualKm,
		DifferenceKm:             difference,
		EfficiencyPercent:        percent,
		EstimatedDurationMinutes: optimal.DurationMin,
		Rating:                   Rate(percent),
	}
}

// Rate classifies a route difference percent. Shorter than optimal counts the same as longer.
func Rate(percent float64) types.Rating {
	return bucket(math.Abs(percent), 5, 15, 30, 50)
}

// RateAccuracy classifies an average GPS accuracy in meters.
func RateAccuracy(meters float64) types.Rating {
	return bucket(meters, 5, 15, 30, 100)
}

func bucket(v, excellent, good, fair, poor float64) types.Rating {
	switch {
	case v <= excellent:
		return types.RatingExcellent
	case v <= good:
		return types.RatingGood
	case v <= fair:
		return types.RatingFair
	case v <= poor:
		return types.RatingPoor
	default:
		return types.RatingVeryPoor
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
