package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func sessionRouter() http.Handler {
	r := chi.NewRouter()
	r.With(Session).Get("/sessions/{"+SessionParam+"}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetSessionID(r.Context())))
	})
	return r
}

func TestSession_InvalidIDIsJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	sessionRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"invalid session ID format"}`, rec.Body.String())
}

func TestSession_StoresID(t *testing.T) {
	id := uuid.NewString()
	rec := httptest.NewRecorder()
	sessionRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, rec.Body.String())
}
