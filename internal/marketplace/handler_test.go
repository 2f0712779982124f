package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scriptorium/backend/internal/middleware"
	"github.com/scriptorium/backend/internal/models"
)

// stubLifecycle returns canned results so handler tests exercise only the HTTP
// mapping.
type stubLifecycle struct {
	err    error
	job    *models.Job
	jobID  int64
	rating int64
	ids    []int64
}

func (s *stubLifecycle) CreateJob(context.Context, uuid.UUID, string, string, time.Time, int64) (int64, error) {
	return s.jobID, s.err
}
func (s *stubLifecycle) ClaimAndSubmit(context.Context, uuid.UUID, int64, string) error {
	return s.err
}
func (s *stubLifecycle) RateAndConfirm(context.Context, uuid.UUID, int64, int) error { return s.err }
func (s *stubLifecycle) CancelJob(context.Context, uuid.UUID, int64) error           { return s.err }
func (s *stubLifecycle) GetJob(context.Context, int64) (*models.Job, error)          { return s.job, s.err }
func (s *stubLifecycle) ClientJobs(context.Context, uuid.UUID) ([]int64, error)      { return s.ids, s.err }
func (s *stubLifecycle) WriterJobs(context.Context, uuid.UUID) ([]int64, error)      { return s.ids, s.err }
func (s *stubLifecycle) WriterRating(context.Context, uuid.UUID) (int64, error) {
	return s.rating, s.err
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	acc := &models.Account{ID: uuid.New()}
	return req.WithContext(middleware.WithAccount(req.Context(), acc))
}

func TestCreateJobHandler(t *testing.T) {
	h := NewHandler(&stubLifecycle{jobID: 7}, nil)

	body := `{"title":"t","description":"d","deadline":"2030-01-01T00:00:00Z","payment_cents":1000}`
	rec := httptest.NewRecorder()
	h.CreateJob(rec, authedRequest(http.MethodPost, "/api/v1/jobs", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rec.Code)
	}
	var resp createJobResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID != 7 || resp.Status != models.JobStatusOpen {
		t.Errorf("response: got %+v", resp)
	}
}

func TestCreateJobHandlerRejectsUnauthenticated(t *testing.T) {
	h := NewHandler(&stubLifecycle{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{}`))
	h.CreateJob(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestCreateJobHandlerRejectsBadJSON(t *testing.T) {
	h := NewHandler(&stubLifecycle{}, nil)

	rec := httptest.NewRecorder()
	h.CreateJob(rec, authedRequest(http.MethodPost, "/api/v1/jobs", "{not json"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestClaimHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrong state", ErrWrongState, http.StatusConflict},
		{"deadline passed", ErrDeadlinePassed, http.StatusConflict},
		{"transfer failed", ErrTransferFailed, http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusForbidden},
		{"empty field", ErrEmptyField, http.StatusUnprocessableEntity},
		{"out of range", ErrOutOfRange, http.StatusUnprocessableEntity},
		{"insufficient funds", ErrInsufficientFunds, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubLifecycle{err: tt.err}, nil)

			req := authedRequest(http.MethodPost, "/api/v1/jobs/3/claim", `{"deliverable":"ref"}`)
			req.SetPathValue("id", "3")
			rec := httptest.NewRecorder()
			h.ClaimAndSubmit(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestClaimHandlerRejectsBadJobID(t *testing.T) {
	h := NewHandler(&stubLifecycle{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/jobs/abc/claim", `{"deliverable":"ref"}`)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.ClaimAndSubmit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestGetJobHandler(t *testing.T) {
	job := &models.Job{ID: 3, Title: "Launch post", Status: models.JobStatusOpen}
	h := NewHandler(&stubLifecycle{job: job}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/3", nil)
	req.SetPathValue("id", "3")
	rec := httptest.NewRecorder()
	h.GetJob(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var got models.Job
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 3 || got.Title != "Launch post" {
		t.Errorf("job: got %+v", got)
	}
}

func TestWriterRatingHandler(t *testing.T) {
	h := NewHandler(&stubLifecycle{rating: 433}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/writers/x/rating", nil)
	req.SetPathValue("id", uuid.NewString())
	rec := httptest.NewRecorder()
	h.WriterRating(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["rating"] != 433 {
		t.Errorf("rating: got %d, want 433", resp["rating"])
	}
}

func TestWriterRatingHandlerRejectsBadAccountID(t *testing.T) {
	h := NewHandler(&stubLifecycle{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/writers/nope/rating", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.WriterRating(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}
