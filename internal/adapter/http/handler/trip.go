package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Temutjin2k/triplog/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/validator"
)

type TripService interface {
	Start(ctx context.Context, userID string) (models.Snapshot, error)
	Stop(ctx context.Context, userID string) (*models.TripRecord, error)
	Current(ctx context.Context, userID string) models.Snapshot
	PushFix(ctx context.Context, userID string, fix models.Position) (models.FixResult, error)
	Pending(ctx context.Context, userID string, filters models.Filters) ([]models.PendingTrip, models.Metadata, error)
	Resubmit(ctx context.Context, userID string) (models.ResubmitResult, error)
}

type Trip struct {
	service TripService
	l       logger.Logger
}

func NewTrip(service TripService, l logger.Logger) *Trip {
	return &Trip{
		service: service,
		l:       l,
	}
}

func currentUser(r *http.Request) (*models.User, bool) {
	user := models.UserFromContext(r.Context())
	if user.IsAnonymous() {
		return nil, false
	}
	return user, true
}

func (h *Trip) Start(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "start_trip")

	user, ok := currentUser(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	snapshot, err := h.service.Start(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to start trip", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"trip": snapshot}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(wrap.WithTripID(ctx, snapshot.TripID), "trip started via api")
}

func (h *Trip) Stop(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "stop_trip")

	user, ok := currentUser(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	record, err := h.service.Stop(ctx, user.ID)
	switch {
	case errors.Is(err, types.ErrNothingToSave):
		_ = writeJSON(w, http.StatusOK, envelope{"message": "nothing to save"}, nil)
		return
	case errors.Is(err, types.ErrTripNotSaved):
		// the record is kept for resubmission, the client still gets it
		h.l.Warn(wrap.ErrorCtx(ctx, err), "trip stopped but not saved", "error", err.Error())
		_ = writeJSON(w, http.StatusBadGateway, envelope{
			"error": err.Error(),
			"trip":  record,
		}, nil)
		return
	case err != nil:
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to stop trip", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"trip": record}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Trip) Current(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "current_trip")

	user, ok := currentUser(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"trip": h.service.Current(ctx, user.ID)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Trip) PushFix(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "push_fix")

	user, ok := currentUser(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	var req dto.FixRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	result, err := h.service.PushFix(ctx, user.ID, req.ToModel(time.Now()))
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "fix not handled", "error", err.Error())
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"result": result}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// pendingScope returns whose retained trips the caller may see: admins choose with
// user_id (empty means everyone), everybody else sees their own.
func pendingScope(user *models.User, requested string) string {
	if user.Role == types.AdminRole {
		return requested
	}
	return user.ID
}

func (h *Trip) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_pending_trips")

	user, ok := currentUser(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	v := validator.New()
	filters, requested := dto.ParsePendingQuery(r.URL.Query(), v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	trips, meta, err := h.service.Pending(ctx, pendingScope(user, requested), filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list pending trips", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"trips": trips, "metadata": meta}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Trip) Resubmit(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "resubmit_trips")

	user, ok := currentUser(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	result, err := h.service.Resubmit(ctx, pendingScope(user, r.URL.Query().Get("user_id")))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to resubmit trips", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"result": result}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "resubmission finished", "saved", len(result.Saved), "failed", len(result.Failed))
}
