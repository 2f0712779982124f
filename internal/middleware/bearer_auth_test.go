package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scriptorium/backend/internal/models"
)

type stubValidator struct {
	accountID uuid.UUID
}

func (s stubValidator) ValidateToken(_ context.Context, token string) (uuid.UUID, error) {
	if token != "good-token" {
		return uuid.Nil, errors.New("token is invalid")
	}
	return s.accountID, nil
}

type stubLookup struct {
	account *models.Account
}

func (s stubLookup) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	if s.account == nil || s.account.ID != id {
		return nil, pgx.ErrNoRows
	}
	return s.account, nil
}

func TestBearerAuth(t *testing.T) {
	acc := &models.Account{ID: uuid.New(), Email: "writer@example.com"}

	tests := []struct {
		name       string
		authHeader string
		lookup     stubLookup
		wantStatus int
	}{
		{"valid token", "Bearer good-token", stubLookup{account: acc}, http.StatusOK},
		{"case-insensitive scheme", "bearer good-token", stubLookup{account: acc}, http.StatusOK},
		{"missing header", "", stubLookup{account: acc}, http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", stubLookup{account: acc}, http.StatusUnauthorized},
		{"invalid token", "Bearer bad-token", stubLookup{account: acc}, http.StatusUnauthorized},
		{"unknown account", "Bearer good-token", stubLookup{}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAccount *models.Account
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAccount = AccountFromCtx(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := BearerAuth(stubValidator{accountID: acc.ID}, tt.lookup)(next)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/account/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotAccount == nil || gotAccount.ID != acc.ID {
					t.Error("authenticated account missing from request context")
				}
			} else if gotAccount != nil {
				t.Error("next handler must not run on rejected requests")
			}
		})
	}
}

func TestAccountFromCtxEmpty(t *testing.T) {
	if acc := AccountFromCtx(context.Background()); acc != nil {
		t.Errorf("expected nil account from bare context, got %v", acc)
	}
}
