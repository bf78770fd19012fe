package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/devcamper-api/config"
	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type HandlerImpl struct {
	service    AuthService
	cookieDays int
	secure     bool
	logger     *slog.Logger
}

func NewHandlerImpl(service AuthService, cfg *config.Config, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service:    service,
		cookieDays: cfg.JWT.CookieExpireDays,
		secure:     cfg.IsProduction(),
		logger:     logger,
	}
}

// Routes mounts the session endpoints. guard protects the ones that need a principal.
func (h *HandlerImpl) Routes(guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/forgotpassword", h.ForgotPassword)
	r.Put("/resetpassword/{resettoken}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Get("/me", h.Me)
		r.Get("/logout", h.Logout)
		r.Put("/updatedetails", h.UpdateDetails)
		r.Put("/updatepassword", h.UpdatePassword)
	})
	return r
}

func (h *HandlerImpl) sendTokenResponse(w http.ResponseWriter, r *http.Request, status int, user *types.User, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(h.cookieDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	api.WriteJSONResponse(w, r, status, types.TokenResponse{Success: true, Token: token, Data: user})
}

// Register godoc
// @Summary      Register user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user body types.RegisterRequest true "Registration"
// @Success      200 {object} types.TokenResponse
// @Failure      400 {object} types.Response
// @Router       /auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	user, token, err := h.service.Register(r.Context(), req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	h.sendTokenResponse(w, r, http.StatusOK, user, token)
}

// Login godoc
// @Summary      Login user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials body types.LoginRequest true "Credentials"
// @Success      200 {object} types.TokenResponse
// @Failure      400 {object} types.Response
// @Failure      401 {object} types.Response
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	user, token, err := h.service.Login(r.Context(), req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	h.sendTokenResponse(w, r, http.StatusOK, user, token)
}

// Logout godoc
// @Summary      Log user out and clear the session cookie
// @Tags         Auth
// @Success      200 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/logout [get]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    loggedOut,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, r, http.StatusOK, struct{}{})
}

// Me godoc
// @Summary      Get current logged in user
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.Response
// @Failure      401 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	api.Success(w, r, http.StatusOK, user)
}

// UpdateDetails godoc
// @Summary      Update name and email of the current user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        details body types.UpdateDetailsRequest true "Details"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/updatedetails [put]
func (h *HandlerImpl) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	var req types.UpdateDetailsRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	updated, err := h.service.UpdateDetails(r.Context(), user, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, updated)
}

// UpdatePassword godoc
// @Summary      Change the current user's password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        passwords body types.UpdatePasswordRequest true "Passwords"
// @Success      200 {object} types.TokenResponse
// @Failure      401 {object} types.Response
// @Security     BearerAuth
// @Router       /auth/updatepassword [put]
func (h *HandlerImpl) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := PrincipalFromContext(r.Context())
	if !ok {
		api.HandleError(w, r, types.ErrUnauthenticated)
		return
	}
	var req types.UpdatePasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	updated, token, err := h.service.UpdatePassword(r.Context(), user, req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	h.sendTokenResponse(w, r, http.StatusOK, updated, token)
}

// ForgotPassword godoc
// @Summary      Email a password reset link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        email body types.ForgotPasswordRequest true "Email"
// @Success      200 {object} types.Response
// @Failure      404 {object} types.Response
// @Failure      500 {object} types.Response
// @Router       /auth/forgotpassword [post]
func (h *HandlerImpl) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req types.ForgotPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	resetURL := func(token string) string {
		return fmt.Sprintf("%s://%s/api/v1/auth/resetpassword/%s", scheme, r.Host, token)
	}
	if err := h.service.ForgotPassword(r.Context(), req, resetURL); err != nil {
		api.HandleError(w, r, err)
		return
	}
	api.Success(w, r, http.StatusOK, "Email sent")
}

// ResetPassword godoc
// @Summary      Set a new password using a reset token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        resettoken path string true "Reset token"
// @Param        password body types.ResetPasswordRequest true "New password"
// @Success      200 {object} types.TokenResponse
// @Failure      400 {object} types.Response
// @Router       /auth/resetpassword/{resettoken} [put]
func (h *HandlerImpl) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req types.ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}
	user, token, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "resettoken"), req)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	h.sendTokenResponse(w, r, http.StatusOK, user, token)
}
