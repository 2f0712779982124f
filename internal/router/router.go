package router

import (
	"net/http"

	"github.com/scriptorium/backend/internal/account"
	"github.com/scriptorium/backend/internal/auth"
	"github.com/scriptorium/backend/internal/marketplace"
	"github.com/scriptorium/backend/internal/platform"
)

// New returns an http.Handler serving the API under /api/v1. requireAuth wraps
// every route except registration and login.
func New(
	authHandler *auth.Handler,
	marketHandler *marketplace.Handler,
	platformHandler *platform.Handler,
	accountHandler *account.Handler,
	requireAuth func(http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()
	const base = "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(h))
	}

	authed("POST "+base+"/jobs", marketHandler.CreateJob)
	authed("GET "+base+"/jobs/{id}", marketHandler.GetJob)
	authed("POST "+base+"/jobs/{id}/claim", marketHandler.ClaimAndSubmit)
	authed("POST "+base+"/jobs/{id}/rating", marketHandler.RateAndConfirm)
	authed("POST "+base+"/jobs/{id}/cancel", marketHandler.CancelJob)
	authed("GET "+base+"/clients/{id}/jobs", marketHandler.ClientJobs)
	authed("GET "+base+"/writers/{id}/jobs", marketHandler.WriterJobs)
	authed("GET "+base+"/writers/{id}/rating", marketHandler.WriterRating)

	authed("GET "+base+"/account/me", accountHandler.GetMe)
	authed("GET "+base+"/account/ledger", accountHandler.Ledger)
	authed("POST "+base+"/account/deposit", accountHandler.Deposit)

	authed("GET "+base+"/platform/fee", platformHandler.Fee)
	authed("PUT "+base+"/platform/fee", platformHandler.SetFee)
	authed("POST "+base+"/platform/sweep", platformHandler.SweepFees)
	authed("GET "+base+"/platform/balance", platformHandler.Balance)
	authed("GET "+base+"/platform/fees", platformHandler.AccruedFees)

	return mux
}
