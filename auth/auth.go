// Package auth handles signup, login and logout.
package auth

import (
	"net/http"
	"time"

	"wanderplan/middleware"
	"wanderplan/rdx"
	"wanderplan/users"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	Users    users.Store
	Tokens   *middleware.Authenticator
	Revoked  rdx.Store
	TokenTTL time.Duration
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.registerHandler(w, r)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.loginHandler(w, r)
}

// Logout must sit behind Authenticator.Authenticate.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.logoutHandler(w, r)
}
