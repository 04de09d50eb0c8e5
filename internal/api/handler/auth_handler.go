package handler

import (
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/common"
	"assignment_desk/internal/common/security"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	responder
	authService  *service.AuthService
	cookieName   string
	secureCookie bool
}

func NewAuthHandler(authService *service.AuthService, cookieName string, debug bool) *AuthHandler {
	return &AuthHandler{
		responder:    responder{debug: debug},
		authService:  authService,
		cookieName:   cookieName,
		secureCookie: !debug,
	}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.fail(w, "register", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	common.RespondWithJSON(w, http.StatusCreated, res.Profile)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	common.RespondWithJSON(w, http.StatusOK, res.Profile)
}

// logout always succeeds; a valid session is revoked on the way out.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookieName); err == nil {
		h.authService.Logout(r.Context(), c.Value)
	}
	http.SetCookie(w, h.cookie("", -1, time.Unix(0, 0)))
	common.RespondWithMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, s *security.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	http.SetCookie(w, h.cookie(s.Token, maxAge, s.ExpiresAt))
}

func (h *AuthHandler) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}
