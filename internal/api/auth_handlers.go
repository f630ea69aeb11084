package api

import (
	"net/http"

	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/pkg/logger"
)

// POST /auth/login
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.Limiter.Allow(ip) {
		logger.Warn("[api] login throttled", "ip", ip)
		httputil.TooManyRequests(w, "too many login attempts, try again later")
		return
	}
	var c domain.Credentials
	if !httputil.Decode(w, r, &c) {
		return
	}
	tok, err := h.Users.Authenticate(r.Context(), c)
	if err != nil {
		respondServiceError(w, err, "login")
		return
	}
	logger.Info("[api] login", "user_id", tok.User.ID, "ip", ip)
	httputil.OK(w, tok)
}

// POST /auth/register
func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !httputil.Decode(w, r, &reg) {
		return
	}
	u, err := h.Users.Register(r.Context(), reg)
	if err != nil {
		respondServiceError(w, err, "register")
		return
	}
	httputil.Created(w, u)
}

// POST /auth/logout
func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	h.Auth.Revoke(*p)
	httputil.NoContent(w)
}

// GET /auth/me
func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	u, err := h.Users.Get(r.Context(), p.UserID)
	if err != nil {
		respondServiceError(w, err, "me")
		return
	}
	httputil.OK(w, u)
}

// GET /api/users
func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	users, total, err := h.Users.List(r.Context(), p.Limit, p.Offset())
	if err != nil {
		respondServiceError(w, err, "list users")
		return
	}
	httputil.OK(w, newPage(users, p, total))
}

// PUT /api/users/{id}/role
func (h *Handlers) setUserRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	u, err := h.Users.SetRole(r.Context(), urlParam(r, "id"), body.Role)
	if err != nil {
		respondServiceError(w, err, "set role")
		return
	}
	httputil.OK(w, u)
}
