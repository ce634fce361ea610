package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brizzai/chatbot/internal/auth/constants"
	"github.com/brizzai/chatbot/internal/auth/middleware"
	"github.com/brizzai/chatbot/internal/auth/models"
	"github.com/brizzai/chatbot/internal/auth/otp"
	"github.com/brizzai/chatbot/internal/auth/providers"
	"github.com/brizzai/chatbot/internal/auth/token"
	"github.com/brizzai/chatbot/internal/auth/users"
	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	"github.com/brizzai/chatbot/internal/mailer"
	"github.com/brizzai/chatbot/internal/utils"
	"go.uber.org/zap"
)

// Handler handles the /auth HTTP requests
type Handler struct {
	baseURL   string
	maxBody   int64
	cfg       config.AuthConfig
	otps      *otp.Service
	users     *users.Service
	tokens    *token.Manager
	states    *token.StateSigner
	providers *providers.Registry
	mail      mailer.Mailer
}

// NewHandler creates a new Handler instance
func NewHandler(
	cfg *config.Config,
	otps *otp.Service,
	userService *users.Service,
	tokens *token.Manager,
	states *token.StateSigner,
	registry *providers.Registry,
	mail mailer.Mailer,
) *Handler {
	return &Handler{
		baseURL:   PublicBaseURL(cfg),
		maxBody:   cfg.Server.MaxBodyBytes,
		cfg:       cfg.Auth,
		otps:      otps,
		users:     userService,
		tokens:    tokens,
		states:    states,
		providers: registry,
		mail:      mail,
	}
}

// PublicBaseURL is the externally visible URL used for OAuth callbacks
func PublicBaseURL(cfg *config.Config) string {
	if cfg.OAuth.BaseURL != "" {
		return strings.TrimRight(cfg.OAuth.BaseURL, "/")
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}

type sendOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Name  string `json:"name"`
}

type sendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

type loginResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Token     string            `json:"token"`
	User      models.PublicUser `json:"user"`
	IsNewUser bool              `json:"isNewUser"`
}

type meResponse struct {
	Success bool              `json:"success"`
	User    models.PublicUser `json:"user"`
}

// HandleSendOTP handles POST /auth/send-otp
func (h *Handler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendOTPRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	email, err := h.otps.Issue(r.Context(), req.Email, req.Name)
	switch {
	case errors.Is(err, otp.ErrEmailRequired):
		utils.WriteFailure(w, http.StatusBadRequest, "Email is required")
		return
	case errors.Is(err, otp.ErrInvalidEmail):
		utils.WriteFailure(w, http.StatusBadRequest, "Invalid email format")
		return
	case err != nil:
		logger.Error("Send OTP failed", zap.Error(err))
		utils.WriteFailure(w, http.StatusInternalServerError, "Failed to send OTP email. Please check your email configuration.")
		return
	}

	utils.WriteJSON(w, sendOTPResponse{
		Success: true,
		Message: "OTP sent successfully to your email",
		Email:   email,
	})
}

// HandleVerifyOTP handles POST /auth/verify-otp
func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyOTPRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	err := h.otps.Verify(r.Context(), req.Email, req.OTP)
	switch {
	case errors.Is(err, otp.ErrCodeRequired):
		utils.WriteFailure(w, http.StatusBadRequest, "Email and OTP are required")
		return
	case errors.Is(err, otp.ErrOTPExpired):
		utils.WriteFailure(w, http.StatusBadRequest, "OTP has expired. Please request a new one.")
		return
	case errors.Is(err, otp.ErrInvalidOTP):
		utils.WriteFailure(w, http.StatusBadRequest, "Invalid or expired OTP. Please request a new one.")
		return
	case err != nil:
		logger.Error("OTP verification failed", zap.Error(err))
		utils.WriteFailure(w, http.StatusInternalServerError, "Verification failed. Please try again.")
		return
	}

	user, created, err := h.users.Login(r.Context(), models.Identity{
		Provider: constants.ProviderEmail,
		Email:    otp.NormalizeEmail(req.Email),
		Name:     req.Name,
	})
	if err != nil {
		logger.Error("Email login failed", zap.Error(err))
		utils.WriteFailure(w, http.StatusInternalServerError, "Verification failed. Please try again.")
		return
	}

	if created {
		h.sendWelcome(r, user)
	}

	tokenString, err := h.tokens.Issue(user.UserID)
	if err != nil {
		logger.Error("Token issue failed", zap.Error(err))
		utils.WriteFailure(w, http.StatusInternalServerError, "Verification failed. Please try again.")
		return
	}
	h.setSessionCookie(w, tokenString)

	message := "Login successful!"
	if created {
		message = "Account created successfully!"
	}
	utils.WriteJSON(w, loginResponse{
		Success:   true,
		Message:   message,
		Token:     tokenString,
		User:      user.Public(),
		IsNewUser: created,
	})
}

// HandleProviderLogin handles GET /auth/{provider}
func (h *Handler) HandleProviderLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.lookupProvider(w, r)
	if !ok {
		return
	}

	state, err := h.states.Issue(p.Name())
	if err != nil {
		logger.Error("Failed to issue OAuth state", zap.Error(err))
		h.redirectFailure(w, r, p.Name())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.StateCookieName,
		Value:    state,
		Path:     "/auth/" + p.Name(),
		MaxAge:   int(constants.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, p.GetAuthURL(state, h.callbackURL(p.Name())), http.StatusFound)
}

// HandleProviderCallback handles GET /auth/{provider}/callback
func (h *Handler) HandleProviderCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.lookupProvider(w, r)
	if !ok {
		return
	}
	name := p.Name()
	h.clearCookie(w, constants.StateCookieName, "/auth/"+name)

	query := r.URL.Query()
	if reason := query.Get(constants.ErrorQueryParam); reason != "" {
		logger.Warn("OAuth consent denied", zap.String("provider", name), zap.String("reason", reason))
		h.redirectFailure(w, r, name)
		return
	}

	state := query.Get("state")
	cookie, err := r.Cookie(constants.StateCookieName)
	if err != nil || cookie.Value != state {
		logger.Warn("OAuth state cookie mismatch", zap.String("provider", name))
		h.redirectFailure(w, r, name)
		return
	}
	if err := h.states.Verify(state, name); err != nil {
		logger.Warn("OAuth state rejected", zap.String("provider", name), zap.Error(err))
		h.redirectFailure(w, r, name)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectFailure(w, r, name)
		return
	}

	oauthToken, err := p.ExchangeCode(r.Context(), code, h.callbackURL(name))
	if err != nil {
		logger.Error("OAuth code exchange failed", zap.String("provider", name), zap.Error(err))
		h.redirectFailure(w, r, name)
		return
	}

	identity, err := p.ValidateToken(r.Context(), oauthToken)
	if err != nil {
		logger.Error("OAuth profile lookup failed", zap.String("provider", name), zap.Error(err))
		h.redirectFailure(w, r, name)
		return
	}

	user, created, err := h.users.Login(r.Context(), *identity)
	if err != nil {
		logger.Error("OAuth login failed", zap.String("provider", name), zap.Error(err))
		h.redirectFailure(w, r, name)
		return
	}
	if created {
		h.sendWelcome(r, user)
	}

	tokenString, err := h.tokens.Issue(user.UserID)
	if err != nil {
		logger.Error("Token issue failed", zap.Error(err))
		h.redirectFailure(w, r, name)
		return
	}
	h.setSessionCookie(w, tokenString)

	target := withQuery(h.cfg.SuccessRedirect, url.Values{
		constants.TokenQueryParam:    {tokenString},
		constants.ProviderQueryParam: {name},
	})
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleMe handles GET /auth/me. It expects the Authenticate middleware.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info, ok := middleware.FromContext(r.Context())
	if !ok {
		utils.WriteFailure(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.users.Get(r.Context(), info.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		utils.WriteFailure(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logger.Error("Failed to load user", zap.String("user_id", info.UserID), zap.Error(err))
		utils.WriteFailure(w, http.StatusInternalServerError, "Failed to get user info")
		return
	}

	public := user.Public()
	createdAt := user.CreatedAt
	public.CreatedAt = &createdAt
	utils.WriteJSON(w, meResponse{Success: true, User: public})
}

// HandleLogout handles POST /auth/logout. It always succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if raw := middleware.ExtractToken(r); raw != "" {
		if claims, err := h.tokens.Parse(raw); err == nil {
			h.tokens.Revoke(claims)
			logger.Info("User logged out", zap.String("user_id", claims.UserID))
		}
	}
	h.clearCookie(w, constants.SessionCookieName, "/")

	utils.WriteJSON(w, utils.StatusBody{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) lookupProvider(w http.ResponseWriter, r *http.Request) (providers.Provider, bool) {
	name := strings.ToLower(r.PathValue("provider"))
	if p, ok := h.providers.Get(name); ok {
		return p, true
	}

	for _, known := range constants.OAuthProviders {
		if known == name {
			utils.WriteFailure(w, http.StatusNotImplemented, fmt.Sprintf("%s login is not configured", name))
			return nil, false
		}
	}
	utils.WriteFailure(w, http.StatusNotFound, "Unknown login provider")
	return nil, false
}

func (h *Handler) sendWelcome(r *http.Request, user *models.User) {
	if err := h.mail.SendWelcome(r.Context(), user.Email, user.Name); err != nil {
		logger.Warn("Welcome email not sent", zap.String("email", user.Email), zap.Error(err))
	}
}

func (h *Handler) redirectFailure(w http.ResponseWriter, r *http.Request, provider string) {
	target := withQuery(h.cfg.FailureRedirect, url.Values{
		constants.ErrorQueryParam: {provider + "_failed"},
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) callbackURL(provider string) string {
	return fmt.Sprintf("%s/auth/%s/callback", h.baseURL, provider)
}

func (h *Handler) secureCookies() bool {
	return strings.HasPrefix(h.baseURL, "https://")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

// decodeBody reads a JSON body. An empty body decodes to the zero value so
// that field validation reports what is missing.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteFailure(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		utils.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func withQuery(target string, params url.Values) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + params.Encode()
}
