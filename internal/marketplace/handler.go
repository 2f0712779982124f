package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/scriptorium/backend/internal/middleware"
	"github.com/scriptorium/backend/internal/models"
)

// Lifecycle is the operation surface the handler exposes over HTTP.
type Lifecycle interface {
	CreateJob(ctx context.Context, callerID uuid.UUID, title, description string, deadline time.Time, paymentCents int64) (int64, error)
	ClaimAndSubmit(ctx context.Context, callerID uuid.UUID, jobID int64, deliverable string) error
	RateAndConfirm(ctx context.Context, callerID uuid.UUID, jobID int64, rating int) error
	CancelJob(ctx context.Context, callerID uuid.UUID, jobID int64) error
	GetJob(ctx context.Context, jobID int64) (*models.Job, error)
	ClientJobs(ctx context.Context, clientID uuid.UUID) ([]int64, error)
	WriterJobs(ctx context.Context, writerID uuid.UUID) ([]int64, error)
	WriterRating(ctx context.Context, writerID uuid.UUID) (int64, error)
}

type Handler struct {
	svc Lifecycle
	log *slog.Logger
}

func NewHandler(svc Lifecycle, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createJobRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Deadline     time.Time `json:"deadline"`
	PaymentCents int64     `json:"payment_cents"`
}

type createJobResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

// CreateJob handles POST /jobs.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	jobID, err := h.svc.CreateJob(r.Context(), acc.ID, req.Title, req.Description, req.Deadline, req.PaymentCents)
	if err != nil {
		h.writeServiceError(w, "create job", err)
		return
	}
	writeJSON(w, http.StatusCreated, createJobResponse{JobID: jobID, Status: models.JobStatusOpen})
}

type claimRequest struct {
	Deliverable string `json:"deliverable"`
}

// ClaimAndSubmit handles POST /jobs/{id}/claim.
func (h *Handler) ClaimAndSubmit(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.ClaimAndSubmit(r.Context(), acc.ID, jobID, req.Deliverable); err != nil {
		h.writeServiceError(w, "claim job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": models.JobStatusCompleted})
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// RateAndConfirm handles POST /jobs/{id}/rating.
func (h *Handler) RateAndConfirm(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.RateAndConfirm(r.Context(), acc.ID, jobID, req.Rating); err != nil {
		h.writeServiceError(w, "rate job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rated"})
}

// CancelJob handles POST /jobs/{id}/cancel.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.svc.CancelJob(r.Context(), acc.ID, jobID); err != nil {
		h.writeServiceError(w, "cancel job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": models.JobStatusCancelled})
}

// GetJob handles GET /jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}
	job, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, "get job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ClientJobs handles GET /clients/{id}/jobs.
func (h *Handler) ClientJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}
	ids, err := h.svc.ClientJobs(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "list client jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"job_ids": ids})
}

// WriterJobs handles GET /writers/{id}/jobs.
func (h *Handler) WriterJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}
	ids, err := h.svc.WriterJobs(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "list writer jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"job_ids": ids})
}

// WriterRating handles GET /writers/{id}/rating.
func (h *Handler) WriterRating(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}
	rating, err := h.svc.WriterRating(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "writer rating", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"rating": rating})
}

// writeServiceError maps the precondition taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrWrongState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrOutOfRange), errors.Is(err, ErrEmptyField):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ErrDeadlinePassed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrTransferFailed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func jobIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	jobID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return 0, false
	}
	return jobID, true
}

func accountIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
