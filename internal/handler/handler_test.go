package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"zerowaste/internal/middleware"
	"zerowaste/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDonationService is a mock implementation of DonationService.
type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) Create(ctx context.Context, actor model.Actor, req *model.CreateDonationRequest) (*model.Donation, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) Edit(ctx context.Context, id uuid.UUID, actor model.Actor, req *model.EditDonationRequest) (*model.Donation, error) {
	args := m.Called(ctx, id, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockDonationService) Get(ctx context.Context, id uuid.UUID) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) List(ctx context.Context, filter model.DonationFilter) ([]model.Donation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Donation), args.Error(1)
}

// MockReservationService is a mock implementation of ReservationService.
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Accept(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockReservationService) Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockReservationService) Complete(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Donation, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

// newTestRouter mounts the donation routes the way the application router does.
func newTestRouter(h *DonationHandler, d *DashboardHandler) http.Handler {
	logger := zerolog.Nop()
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Actor(logger))
	r.Get("/health", Health)
	r.Get("/api/donations", h.List)
	r.Post("/api/donations", h.Create)
	r.Get("/api/donations/{id}", h.Get)
	r.Patch("/api/donations/{id}", h.Edit)
	r.Delete("/api/donations/{id}", h.Delete)
	r.Post("/api/donations/{id}/accept", h.Accept)
	r.Post("/api/donations/{id}/cancel", h.Cancel)
	r.Post("/api/donations/{id}/complete", h.Complete)
	if d != nil {
		r.Get("/api/dashboard", d.Get)
	}
	return r
}

func newRequest(t *testing.T, method, path string, actor *model.Actor, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(middleware.HeaderRequestID, "test-request")
	if actor != nil {
		req.Header.Set(middleware.HeaderActorKind, string(actor.Kind))
		req.Header.Set(middleware.HeaderActorID, actor.ID.String())
	}
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteJSON_LogsEncodingFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	req := httptest.NewRequest(http.MethodGet, "/api/donations", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	w := httptest.NewRecorder()

	writeJSON(w, req, http.StatusOK, map[string]float64{"quantity": math.Inf(1)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode response")
}
