package handler

import (
	"context"
	"net/http"

	"zerowaste/internal/model"
	"zerowaste/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DonationHandler handles donation-related HTTP requests.
type DonationHandler struct {
	registry    service.DonationService
	coordinator service.ReservationService
	logger      zerolog.Logger
}

// NewDonationHandler creates a new donation handler.
func NewDonationHandler(registry service.DonationService, coordinator service.ReservationService, logger zerolog.Logger) *DonationHandler {
	return &DonationHandler{
		registry:    registry,
		coordinator: coordinator,
		logger:      logger.With().Str("handler", "donation").Logger(),
	}
}

// Create handles POST /api/donations requests.
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req model.CreateDonationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := h.registry.Create(r.Context(), actor, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusCreated, d)
}

// Get handles GET /api/donations/{id} requests.
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := donationID(w, r)
	if !ok {
		return
	}

	d, err := h.registry.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, d)
}

// Edit handles PATCH /api/donations/{id} requests.
func (h *DonationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := donationID(w, r)
	if !ok {
		return
	}

	var req model.EditDonationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := h.registry.Edit(r.Context(), id, actor, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, d)
}

// Delete handles DELETE /api/donations/{id} requests.
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := donationID(w, r)
	if !ok {
		return
	}

	if err := h.registry.Delete(r.Context(), id, actor); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Accept handles POST /api/donations/{id}/accept requests.
func (h *DonationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.coordinator.Accept)
}

// Cancel handles POST /api/donations/{id}/cancel requests.
func (h *DonationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.coordinator.Cancel)
}

// Complete handles POST /api/donations/{id}/complete requests.
func (h *DonationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.coordinator.Complete)
}

type transitionFunc func(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error)

func (h *DonationHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := donationID(w, r)
	if !ok {
		return
	}

	d, err := fn(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, d)
}

// List handles GET /api/donations requests.
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, fields := parseFilter(r)
	if len(fields) > 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, model.ErrValidation.Message, fields)
		return
	}

	donations, err := h.registry.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, r, http.StatusOK, donations)
}

func parseFilter(r *http.Request) (model.DonationFilter, []model.FieldError) {
	var (
		filter model.DonationFilter
		verr   model.ValidationError
	)
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := model.Status(raw)
		if !status.Valid() {
			verr.Add("status", "must be AVAILABLE, RESERVED or COMPLETED")
		} else {
			filter.Status = &status
		}
	}
	if raw := q.Get("establishmentId"); raw != "" {
		if id, err := uuid.Parse(raw); err != nil {
			verr.Add("establishmentId", "must be a UUID")
		} else {
			filter.EstablishmentID = &id
		}
	}
	if raw := q.Get("foodBankId"); raw != "" {
		if id, err := uuid.Parse(raw); err != nil {
			verr.Add("foodBankId", "must be a UUID")
		} else {
			filter.FoodBankID = &id
		}
	}

	return filter, verr.Fields
}
