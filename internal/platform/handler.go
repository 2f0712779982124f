package platform

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/scriptorium/backend/internal/marketplace"
	"github.com/scriptorium/backend/internal/middleware"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type setFeeRequest struct {
	FeeBasisPoints int64 `json:"fee_basis_points"`
}

// SetFee handles PUT /platform/fee (owner only).
func (h *Handler) SetFee(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.SetFee(r.Context(), acc.ID, req.FeeBasisPoints); err != nil {
		h.writeServiceError(w, "set fee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"fee_basis_points": req.FeeBasisPoints})
}

// SweepFees handles POST /platform/sweep (owner only).
func (h *Handler) SweepFees(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	amount, err := h.svc.SweepFees(r.Context(), acc.ID)
	if err != nil {
		h.writeServiceError(w, "sweep fees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"swept_cents": amount})
}

// Fee handles GET /platform/fee.
func (h *Handler) Fee(w http.ResponseWriter, r *http.Request) {
	fee, err := h.svc.Fee(r.Context())
	if err != nil {
		h.writeServiceError(w, "get fee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"fee_basis_points": fee})
}

// Balance handles GET /platform/balance: the custody balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.svc.CustodyBalance(r.Context())
	if err != nil {
		h.writeServiceError(w, "custody balance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"custody_balance_cents": balance})
}

// AccruedFees handles GET /platform/fees.
func (h *Handler) AccruedFees(w http.ResponseWriter, r *http.Request) {
	fees, err := h.svc.AccruedFees(r.Context())
	if err != nil {
		h.writeServiceError(w, "accrued fees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"accrued_fees_cents": fees})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, marketplace.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, marketplace.ErrOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
