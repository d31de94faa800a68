package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"zerowaste/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Preflight request",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectHandler:  false,
		},
		{
			name:           "GET request",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "PATCH request",
			method:         http.MethodPatch,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := CORS(okHandler(&handlerCalled))

			req := httptest.NewRequest(tt.method, "/api/donations", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Actor-Kind")
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	logger := zerolog.Nop()
	validAPIKey := "test-api-key-123"

	tests := []struct {
		name           string
		apiKey         string
		expectedStatus int
		expectHandler  bool
		expectedMsg    string
	}{
		{
			name:           "Valid API key",
			apiKey:         validAPIKey,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Invalid API key",
			apiKey:         "invalid-key",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
			expectedMsg:    "invalid API key",
		},
		{
			name:           "Missing API key",
			apiKey:         "",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
			expectedMsg:    "missing API key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := RequestID(APIKeyAuth(validAPIKey, logger)(okHandler(&handlerCalled)))

			req := httptest.NewRequest(http.MethodGet, "/api/donations", nil)
			req.Header.Set(HeaderRequestID, "req-1")
			if tt.apiKey != "" {
				req.Header.Set(HeaderAPIKey, tt.apiKey)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)

			if tt.expectedMsg != "" {
				var body model.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, model.ErrCodeUnauthorised, body.Error)
				assert.Equal(t, tt.expectedMsg, body.Message)
				assert.Equal(t, "req-1", body.CorrelationID)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("Propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	})

	t.Run("Generates id when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(HeaderRequestID))
	})
}

func TestActor(t *testing.T) {
	logger := zerolog.Nop()
	id := uuid.New()

	tests := []struct {
		name           string
		kind           string
		actorID        string
		expectedStatus int
		expectActor    *model.Actor
	}{
		{
			name:           "Food bank",
			kind:           "FOOD_BANK",
			actorID:        id.String(),
			expectedStatus: http.StatusOK,
			expectActor:    &model.Actor{Kind: model.KindFoodBank, ID: id},
		},
		{
			name:           "Lowercase establishment",
			kind:           "establishment",
			actorID:        id.String(),
			expectedStatus: http.StatusOK,
			expectActor:    &model.Actor{Kind: model.KindEstablishment, ID: id},
		},
		{
			name:           "Anonymous",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unknown kind",
			kind:           "DRIVER",
			actorID:        id.String(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed id",
			kind:           "FOOD_BANK",
			actorID:        "42",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Id without kind",
			actorID:        id.String(),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got    model.Actor
				hasAct bool
				called bool
			)
			handler := Actor(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, hasAct = ActorFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.kind != "" {
				req.Header.Set(HeaderActorKind, tt.kind)
			}
			if tt.actorID != "" {
				req.Header.Set(HeaderActorID, tt.actorID)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, called)
				return
			}
			if tt.expectActor == nil {
				assert.False(t, hasAct)
				return
			}
			require.True(t, hasAct)
			assert.Equal(t, *tt.expectActor, got)
		})
	}
}

func TestLogging(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		handlerStatus  int
		expectedStatus int
	}{
		{name: "Successful request", handlerStatus: http.StatusOK, expectedStatus: http.StatusOK},
		{name: "Not found request", handlerStatus: http.StatusNotFound, expectedStatus: http.StatusNotFound},
		{name: "Server error", handlerStatus: http.StatusInternalServerError, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/donations", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		shouldPanic    bool
		panicValue     interface{}
		expectedStatus int
	}{
		{
			name:           "No panic",
			shouldPanic:    false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Panic with string",
			shouldPanic:    true,
			panicValue:     "something went wrong",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Panic with error",
			shouldPanic:    true,
			panicValue:     assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.shouldPanic {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			})

			handler := Recovery(logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.shouldPanic {
				assert.Contains(t, w.Body.String(), model.ErrCodeInternalError)
			}
		})
	}
}

func TestLogging_AttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Warn().Msg("from handler")
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/donations", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"message":"from handler"`)
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}
