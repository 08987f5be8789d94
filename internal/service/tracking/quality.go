package tracking

import "github.com/Temutjin2k/triplog/internal/domain/models"

// qualityCounter tallies the fixes a session saw
type qualityCounter struct {
	accepted    int
	rejected    int
	accuracySum float64
	lastAcc     float64
}

func (q *qualityCounter) accept(fix models.Position) {
	q.accepted++
	q.accuracySum += fix.AccuracyMeters
	q.lastAcc = fix.AccuracyMeters
}

// reject counts fixes dropped for bad coordinates or accuracy. Rate limited fixes are not counted.
func (q *qualityCounter) reject(fix models.Position) {
	q.rejected++
	q.lastAcc = fix.AccuracyMeters
}

func (q *qualityCounter) report(speed *SpeedEstimator, averageKmh float64) *models.TrackingQuality {
	if q.accepted == 0 {
		return nil
	}
	avg := round1(q.accuracySum / float64(q.accepted))
	return &models.TrackingQuality{
		AverageAccuracy: avg,
		PositionCount:   q.accepted,
		RejectedCount:   q.rejected,
		SpeedVariation:  round1(speed.Variation()),
		MaxSpeed:        round1(speed.Peak()),
		AverageSpeed:    round1(averageKmh),
		GPSRating:       RateAccuracy(avg),
	}
}
