package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/companyhub/company-api/internal/httputil"
	"github.com/companyhub/company-api/internal/logging"
	"github.com/companyhub/company-api/internal/user"
	"github.com/companyhub/company-api/internal/validation"
)

const registeredMessage = "Registration successful! " +
	"We have sent a six digit code to your email. " +
	"Please check your email and enter the code to complete your registration."

// Handler contains HTTP handlers for the auth endpoints
type Handler struct {
	service *Service
	issuer  *Issuer
}

func NewHandler(service *Service, issuer *Issuer) *Handler {
	return &Handler{
		service: service,
		issuer:  issuer,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Address              string `json:"address"`
}

// VerifyUserRequest represents the OTP verification request body
type VerifyUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// ResendOTPRequest represents the OTP resend request body
type ResendOTPRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Resource is the user representation returned by auth endpoints.
type Resource struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Address     string      `json:"address"`
	Status      user.Status `json:"status"`
	AccessToken string      `json:"access_token,omitempty"`
}

func newResource(u *user.User) Resource {
	return Resource{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Address: u.Address,
		Status:  u.Status,
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a pending user account; a six digit code is mailed for verification.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Registration failed"
// @Failure      422 {object} httputil.ValidationEnvelope "Field validation errors"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.WithError(w, "Invalid request body!")
		return
	}

	v := validation.New()
	v.Required("name", req.Name)
	v.Max("name", req.Name, 255)
	v.Required("email", req.Email)
	v.Email("email", req.Email)
	v.Max("email", req.Email, 255)
	v.Required("password", req.Password)
	v.Min("password", req.Password, 8)
	v.Confirmed("password", req.Password, req.PasswordConfirmation)
	v.Max("address", req.Address, 1000)
	if !v.Valid() {
		logger.Warn("registration validation failed", "fields", v.Errors().Fields())
		httputil.WithValidationError(w, v.Errors().Fields())
		return
	}

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// Deliberately vague: an attacker should not learn which
			// addresses are registered from the message text
			logger.Warn("registration failed: email already exists", "email", req.Email)
			httputil.WithValidationError(w, map[string]string{"email": "Invalid email address"})
			return
		}
		logger.Error("registration failed", "error", err.Error())
		httputil.WithError(w, "Registration failed!")
		return
	}

	logger.Info("user registered", "user_id", newUser.ID, "email", newUser.Email)

	httputil.WithSuccess(w, nil, registeredMessage)
}

// VerifyUser handles OTP verification
// @Summary      Verify a registration
// @Description  Activate a pending user by checking credentials and the mailed code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyUserRequest true "Verification fields"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Invalid credentials, OTP or expiry"
// @Router       /api/auth/verify-user [post]
func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify request body", "error", err.Error())
		httputil.WithError(w, "Invalid request body!")
		return
	}

	v := validation.New()
	v.Required("email", req.Email)
	v.Email("email", req.Email)
	v.Required("password", req.Password)
	v.Required("otp", req.OTP)
	v.Digits("otp", req.OTP, 6)
	if !v.Valid() {
		httputil.WithError(w, v.Errors().First())
		return
	}

	verified, err := h.service.VerifyRegistration(r.Context(), req.Email, req.Password, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("verification failed: invalid credentials", "email", req.Email)
			httputil.WithError(w, "Invalid user credentials!")
		case errors.Is(err, ErrInvalidOTP):
			logger.Warn("verification failed: invalid otp", "email", req.Email)
			httputil.WithError(w, "Invalid OTP!")
		case errors.Is(err, ErrOTPExpired):
			logger.Warn("verification failed: otp expired", "email", req.Email)
			httputil.WithError(w, "OTP expired!")
		default:
			logger.Error("verification failed", "error", err.Error())
			httputil.WithError(w, "Verification failed!")
		}
		return
	}

	logger.Info("user verified", "user_id", verified.ID)

	httputil.WithSuccess(w, nil, "User verified successfully!")
}

// ResendOTP handles re-issuing a verification code
// @Summary      Resend the verification code
// @Description  Invalidate outstanding codes and mail a fresh one to a pending user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendOTPRequest true "Credentials"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Invalid credentials"
// @Router       /api/auth/resend-otp [post]
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend request body", "error", err.Error())
		httputil.WithError(w, "Invalid request body!")
		return
	}

	v := validation.New()
	v.Required("email", req.Email)
	v.Email("email", req.Email)
	v.Required("password", req.Password)
	if !v.Valid() {
		httputil.WithError(w, v.Errors().First())
		return
	}

	if err := h.service.ResendOTP(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("otp resend failed: invalid credentials", "email", req.Email)
			httputil.WithError(w, "Invalid user credentials!")
			return
		}
		logger.Error("otp resend failed", "error", err.Error())
		httputil.WithError(w, "Could not resend OTP!")
		return
	}

	logger.Info("otp resent", "email", req.Email)

	httputil.WithSuccess(w, nil, "We have sent a new six digit code to your email.")
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate an active user and return a bearer token in the payload.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Invalid credentials"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.WithError(w, "Invalid request body!")
		return
	}

	v := validation.New()
	v.Required("email", req.Email)
	v.Email("email", req.Email)
	v.Max("email", req.Email, 255)
	v.Required("password", req.Password)
	v.Min("password", req.Password, 8)
	v.Max("password", req.Password, 255)
	if !v.Valid() {
		httputil.WithError(w, v.Errors().First())
		return
	}

	authedUser, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials", "email", req.Email)
			httputil.WithError(w, "Invalid user credentials!")
			return
		}
		logger.Error("login failed", "error", err.Error())
		httputil.WithError(w, "Login failed!")
		return
	}

	token, err := h.issuer.Issue(r.Context(), authedUser)
	if err != nil {
		logger.Error("failed to issue token", "error", err.Error())
		httputil.WithError(w, "Login failed!")
		return
	}

	logger.Info("user logged in", "user_id", authedUser.ID)

	resource := newResource(authedUser)
	resource.AccessToken = token

	httputil.WithSuccess(w, resource, "Login successful!")
}

// AuthUser returns the currently authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Envelope
// @Failure      401 {object} httputil.Envelope "Unauthenticated"
// @Router       /api/auth/auth-user [get]
func (h *Handler) AuthUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WithErrorStatus(w, "Unauthenticated.", http.StatusUnauthorized)
		return
	}

	current, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load authenticated user", "user_id", userID, "error", err.Error())
		httputil.WithErrorStatus(w, "Unauthenticated.", http.StatusUnauthorized)
		return
	}

	httputil.WithSuccess(w, newResource(current), "")
}

// Logout revokes every token of the authenticated user
// @Summary      User logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Envelope
// @Failure      401 {object} httputil.Envelope "Unauthenticated"
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WithErrorStatus(w, "Unauthenticated.", http.StatusUnauthorized)
		return
	}

	if err := h.issuer.RevokeAll(r.Context(), userID); err != nil {
		logger.Error("failed to revoke tokens", "user_id", userID, "error", err.Error())
		httputil.WithError(w, "Logout failed!")
		return
	}

	logger.Info("user logged out", "user_id", userID)

	httputil.WithSuccess(w, nil, "Logout successful!")
}
