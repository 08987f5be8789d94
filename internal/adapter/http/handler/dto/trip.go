package dto

import (
	"net/url"
	"strconv"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/pkg/validator"
)

// FixRequest is one position pushed over HTTP. Timestamp is unix milliseconds, 0 means now.
type FixRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Timestamp int64    `json:"timestamp" validate:"gte=0"`
	Accuracy  *float64 `json:"accuracy" validate:"omitempty,gte=0"`
	Speed     *float64 `json:"speed" validate:"omitempty,gte=0"`
	Heading   *float64 `json:"heading" validate:"omitempty,gte=0,lte=360"`
}

func (r *FixRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *FixRequest) ToModel(now time.Time) models.Position {
	ts := now
	if r.Timestamp > 0 {
		ts = time.UnixMilli(r.Timestamp)
	}

	accuracy := models.UnknownAccuracyMeters
	if r.Accuracy != nil && *r.Accuracy > 0 {
		accuracy = *r.Accuracy
	}

	return models.Position{
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		Timestamp:      ts,
		AccuracyMeters: accuracy,
		SpeedMps:       r.Speed,
		HeadingDegrees: r.Heading,
	}
}

// PendingSortSafelist are the sort keys of the pending trips listing
var PendingSortSafelist = []string{"-stored_at", "stored_at", "-start_time", "start_time", "-distance", "distance"}

// ParsePendingQuery reads page, page_size, sort and user_id.
func ParsePendingQuery(q url.Values, v *validator.Validator) (models.Filters, string) {
	page := readInt(q, "page", 1, v)
	pageSize := readInt(q, "page_size", 20, v)

	filters, _ := models.NewFilters(page, pageSize, q.Get("sort"), PendingSortSafelist)
	filters.Validate(v)

	return filters, q.Get("user_id")
}

func readInt(q url.Values, key string, def int, v *validator.Validator) int {
	s := q.Get(key)
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return def
	}
	return i
}
