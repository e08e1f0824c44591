package handlers

import (
	"net/http"
	"time"

	"wordcards/internal/models"
	"wordcards/internal/security"
	"wordcards/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]*OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]*OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	if oauthProviders == nil {
		oauthProviders = map[string]*OAuthProvider{}
	}
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateMeRequest struct {
	Username string `json:"username" validate:"required"`
}

type tokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	CSRFToken string          `json:"csrf_token"`
	Account   *models.Account `json:"account"`
}

// SignUp registers a new account and signs it in
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	if _, err := h.authService.SignUp(r.Context(), req.Email, req.Password, req.Username); err != nil {
		respondWithServiceError(w, "Error signing up", err)
		return
	}

	// Auto-login after registration
	token, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error signing in after sign up", err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, token)
}

// SignIn exchanges credentials for an access token
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	token, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error signing in", err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, token)
}

// SignOut revokes the current session
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, fromCookie := security.TokenFromRequest(r)
	if err := h.authService.SignOut(r.Context(), token); err != nil {
		respondWithServiceError(w, "Error signing out", err)
		return
	}
	if fromCookie {
		http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in account. Cookie clients that lost their CSRF
// token get it back in the response header.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if session := GetSessionFromContext(r.Context()); session != nil {
		if csrfToken, err := h.csrf.GenerateToken(session.ID); err == nil {
			w.Header().Set(security.CSRFHeader, csrfToken)
		}
	}
	respondJSON(w, http.StatusOK, GetAccountFromContext(r.Context()))
}

// UpdateMe changes the signed-in account's username
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	account := GetAccountFromContext(r.Context())
	updated, err := h.authService.UpdateUsername(r.Context(), account.ID, req.Username)
	if err != nil {
		respondWithServiceError(w, "Error updating username", err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, token *models.AuthToken) {
	csrfToken, err := h.sessionCSRFToken(r, token.Token)
	if err != nil {
		respondWithServiceError(w, "Error creating CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, token.Token, token.ExpiresAt))
	respondJSON(w, status, tokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		CSRFToken: csrfToken,
		Account:   token.Account,
	})
}

func (h *AuthHandler) sessionCSRFToken(r *http.Request, token string) (string, error) {
	_, session, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		return "", err
	}
	return h.csrf.GenerateToken(session.ID)
}
