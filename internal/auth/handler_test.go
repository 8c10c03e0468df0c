package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authTestEnv struct {
	router   chi.Router
	store    *fakeStore
	notifier *fakeNotifier
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	store := newFakeStore()
	notifier := newFakeNotifier()
	svc := newTestService(store, notifier)
	issuer := newTestIssuer(t, newFakeTokenStore(), time.Hour)

	h := NewHandler(svc, issuer)
	mw := NewMiddleware(issuer)

	r := chi.NewRouter()
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/verify-user", h.VerifyUser)
	r.Post("/api/auth/resend-otp", h.ResendOTP)
	r.Post("/api/auth/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Get("/api/auth/auth-user", h.AuthUser)
		r.Post("/api/auth/logout", h.Logout)
	})

	return &authTestEnv{router: r, store: store, notifier: notifier}
}

func (env *authTestEnv) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

const registerBody = `{
	"name": "John Doe",
	"email": "john@gmail.com",
	"password": "password",
	"password_confirmation": "password"
}`

func TestRegisterEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(http.StatusOK), body["status"])
	assert.Contains(t, body["message"], "six digit code")

	code := env.notifier.waitForCode(t)
	assert.Regexp(t, otpPattern, code)
}

func TestRegisterEndpointValidation(t *testing.T) {
	env := newAuthTestEnv(t)

	payload := `{"name":"","email":"not-an-email","password":"short","password_confirmation":"other"}`
	rec, body := env.do(t, http.MethodPost, "/api/auth/register", payload, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["success"])

	// The 422 shape carries plural field-keyed messages, no singular message
	_, hasSingular := body["message"]
	assert.False(t, hasSingular)

	messages := body["messages"].(map[string]any)
	assert.Equal(t, "The name field is required.", messages["name"])
	assert.Equal(t, "The email field must be a valid email address.", messages["email"])
	assert.Equal(t, "The password field must be at least 8 characters.", messages["password"])
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	messages := body["messages"].(map[string]any)
	assert.Equal(t, "Invalid email address", messages["email"])
}

func TestVerifyUserEndpointWrongOTP(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.notifier.waitForCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	payload := `{"email":"john@gmail.com","password":"password","otp":"` + wrong + `"}`
	rec, body := env.do(t, http.MethodPost, "/api/auth/verify-user", payload, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid OTP!", body["message"])
}

func TestVerifyUserEndpointValidationUsesFirstError(t *testing.T) {
	env := newAuthTestEnv(t)

	payload := `{"password":"password","otp":"123456"}`
	rec, body := env.do(t, http.MethodPost, "/api/auth/verify-user", payload, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The email field is required.", body["message"])
	_, hasPlural := body["messages"]
	assert.False(t, hasPlural)
}

func TestLoginEndpointPendingUser(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")
	require.Equal(t, http.StatusOK, rec.Code)

	payload := `{"email":"john@gmail.com","password":"password"}`
	rec, body := env.do(t, http.MethodPost, "/api/auth/login", payload, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user credentials!", body["message"])
}

func TestFullRegistrationFlow(t *testing.T) {
	env := newAuthTestEnv(t)

	// Register
	rec, _ := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.notifier.waitForCode(t)

	// Verify with the mailed code
	verifyPayload := `{"email":"john@gmail.com","password":"password","otp":"` + code + `"}`
	rec, body := env.do(t, http.MethodPost, "/api/auth/verify-user", verifyPayload, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User verified successfully!", body["message"])

	// Login
	loginPayload := `{"email":"john@gmail.com","password":"password"}`
	rec, body = env.do(t, http.MethodPost, "/api/auth/login", loginPayload, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful!", body["message"])

	data := body["json_data"].(map[string]any)
	assert.Equal(t, "John Doe", data["name"])
	assert.Equal(t, "active", data["status"])
	token := data["access_token"].(string)
	require.NotEmpty(t, token)

	// Current user
	rec, body = env.do(t, http.MethodGet, "/api/auth/auth-user", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["json_data"].(map[string]any)
	assert.Equal(t, "john@gmail.com", data["email"])
	_, hasToken := data["access_token"]
	assert.False(t, hasToken)

	// Logout revokes the token
	rec, body = env.do(t, http.MethodPost, "/api/auth/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful!", body["message"])

	rec, body = env.do(t, http.MethodGet, "/api/auth/auth-user", "", token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated.", body["message"])
}

func TestResendOTPEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/auth/register", registerBody, "")
	require.Equal(t, http.StatusOK, rec.Code)
	env.notifier.waitForCode(t)

	payload := `{"email":"john@gmail.com","password":"password"}`
	rec, body := env.do(t, http.MethodPost, "/api/auth/resend-otp", payload, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	code := env.notifier.waitForCode(t)

	verifyPayload := `{"email":"john@gmail.com","password":"password","otp":"` + code + `"}`
	rec, body = env.do(t, http.MethodPost, "/api/auth/verify-user", verifyPayload, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User verified successfully!", body["message"])
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/auth/auth-user", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated.", body["message"])

	rec, body = env.do(t, http.MethodPost, "/api/auth/logout", "", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated.", body["message"])
}
