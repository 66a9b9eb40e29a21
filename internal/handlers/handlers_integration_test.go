package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"akun/internal/handlers"
	"akun/internal/models"
	"akun/internal/repositories"
	"akun/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// captureMailer records sends instead of delivering them.
type captureMailer struct {
	sent []capturedMail
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers, plus a mailer that captures outbound mail.
func setupApp(t *testing.T) (*fiber.App, *captureMailer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to auto-migrate database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	mail := &captureMailer{}
	userService := services.NewUserService(userRepo, mail)

	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	userHandler.RegisterRoutes(apiV1)

	return app, mail
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	return requestJSON(t, app, http.MethodPost, path, payload)
}

func requestJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return decoded
}

func registerTestUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp := postJSON(t, app, "/api/v1/auth/register", map[string]string{
		"email":        email,
		"fullname":     "Test User",
		"username":     "testuser",
		"phone_number": "08123456789",
		"password":     "Password1!",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	user, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("register response has no user object: %v", body)
	}
	id, _ := user["id"].(string)
	assert.NotEmpty(t, id)
	return id
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	// Test Registration
	userToRegister := map[string]string{
		"email":        "test@example.com",
		"fullname":     "Test User",
		"username":     "testuser",
		"phone_number": "08123456789",
		"password":     "Password1!",
	}
	resp := postJSON(t, app, "/api/v1/auth/register", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	registerResp := decodeBody(t, resp)
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// The password hash never appears in the response.
	user := registerResp["user"].(map[string]interface{})
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "Password")

	// Test Duplicate Registration
	resp = postJSON(t, app, "/api/v1/auth/register", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Test Login
	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "Password1!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	loginResp := decodeBody(t, resp)
	assert.Equal(t, "Login successful", loginResp["message"])
	loggedIn := loginResp["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", loggedIn["email"])
	assert.NotContains(t, loggedIn, "password")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	app, _ := setupApp(t)
	registerTestUser(t, app, "known@example.com")

	readBody := func(resp *http.Response) string {
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		return string(b)
	}

	// Wrong password for a known email.
	respWrongPassword := postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "known@example.com",
		"password": "WrongPass1!",
	})
	assert.Equal(t, http.StatusUnauthorized, respWrongPassword.StatusCode)
	wrongPasswordBody := readBody(respWrongPassword)

	// Unknown email.
	respUnknownEmail := postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "unknown@example.com",
		"password": "WrongPass1!",
	})
	assert.Equal(t, http.StatusUnauthorized, respUnknownEmail.StatusCode)
	unknownEmailBody := readBody(respUnknownEmail)

	// Neither response reveals which field was wrong.
	assert.Equal(t, wrongPasswordBody, unknownEmailBody)
	assert.Contains(t, wrongPasswordBody, "invalid email or password")
}

func TestRegisterValidation(t *testing.T) {
	app, _ := setupApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", map[string]string{
		"email":    "not-an-email",
		"fullname": "User 123",
		"username": "UPPER",
		"password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Validation failed", body["message"])

	fieldErrors := body["errors"].(map[string]interface{})
	assert.Contains(t, fieldErrors, "Email")
	assert.Contains(t, fieldErrors, "Fullname")
	assert.Contains(t, fieldErrors, "Username")
	assert.Contains(t, fieldErrors, "Password")
	assert.Equal(t, "Full name can only contain letters and spaces.", fieldErrors["Fullname"])
}

func TestForgotPasswordFlow(t *testing.T) {
	app, mail := setupApp(t)
	registerTestUser(t, app, "reset@example.com")

	resp := postJSON(t, app, "/api/v1/auth/forgot-password", map[string]string{
		"email": "reset@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Exactly one mail, carrying the new plaintext password.
	assert.Len(t, mail.sent, 1)
	sent := mail.sent[0]
	assert.Equal(t, "reset@example.com", sent.To)
	assert.Equal(t, "Password Reset", sent.Subject)
	newPassword := strings.TrimPrefix(sent.Body, "Your new password is: ")
	assert.NotEqual(t, sent.Body, newPassword)
	assert.GreaterOrEqual(t, len(newPassword), 8)

	// The old password no longer works, the mailed one does.
	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "reset@example.com",
		"password": "Password1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "reset@example.com",
		"password": newPassword,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestForgotPasswordRejections(t *testing.T) {
	app, mail := setupApp(t)

	// Unknown account.
	resp := postJSON(t, app, "/api/v1/auth/forgot-password", map[string]string{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The reset schema rejects addresses the registration check accepts.
	resp = postJSON(t, app, "/api/v1/auth/forgot-password", map[string]string{
		"email": "Upper@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	assert.Empty(t, mail.sent)
}

func TestUserCRUD(t *testing.T) {
	app, _ := setupApp(t)
	userID := registerTestUser(t, app, "crud@example.com")

	// List
	resp := requestJSON(t, app, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	resp.Body.Close()
	assert.Len(t, users, 1)

	// Get by id
	resp = requestJSON(t, app, http.MethodGet, "/api/v1/users/"+userID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.Equal(t, "crud@example.com", fetched["email"])

	// Edit: only role, fullname and profile_url change; email is ignored.
	resp = requestJSON(t, app, http.MethodPatch, "/api/v1/users/"+userID, map[string]string{
		"role":        "admin",
		"fullname":    "Edited Name",
		"profile_url": "https://example.com/avatar.png",
		"email":       "x",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decodeBody(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, "admin", edited["role"])
	assert.Equal(t, "Edited Name", edited["fullname"])
	assert.Equal(t, "https://example.com/avatar.png", edited["profile_url"])
	assert.Equal(t, "crud@example.com", edited["email"])

	// A partial edit leaves the omitted fields as they were.
	resp = requestJSON(t, app, http.MethodPatch, "/api/v1/users/"+userID, map[string]string{
		"role": "user",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	edited = decodeBody(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, "user", edited["role"])
	assert.Equal(t, "Edited Name", edited["fullname"])
	assert.Equal(t, "https://example.com/avatar.png", edited["profile_url"])

	// Delete
	resp = requestJSON(t, app, http.MethodDelete, "/api/v1/users/"+userID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = requestJSON(t, app, http.MethodGet, "/api/v1/users/"+userID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Deleting an id that never existed is a 404, not a store error.
	resp = requestJSON(t, app, http.MethodDelete, "/api/v1/users/never-existed", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The deleted account's email can register again.
	registerTestUser(t, app, "crud@example.com")
}

func TestChangePassword(t *testing.T) {
	app, _ := setupApp(t)
	userID := registerTestUser(t, app, "change@example.com")
	passwordPath := fmt.Sprintf("/api/v1/users/%s/password", userID)

	// Wrong old password.
	resp := requestJSON(t, app, http.MethodPatch, passwordPath, map[string]string{
		"old_password":         "WrongOld1!",
		"new_password":         "NewPass1!",
		"confirm_new_password": "NewPass1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Mismatched confirmation.
	resp = requestJSON(t, app, http.MethodPatch, passwordPath, map[string]string{
		"old_password":         "Password1!",
		"new_password":         "NewPass1!",
		"confirm_new_password": "Different1!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Mismatch must not have persisted anything: the old password still works.
	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "change@example.com",
		"password": "Password1!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Successful change.
	resp = requestJSON(t, app, http.MethodPatch, passwordPath, map[string]string{
		"old_password":         "Password1!",
		"new_password":         "NewPass1!",
		"confirm_new_password": "NewPass1!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "change@example.com",
		"password": "Password1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"email":    "change@example.com",
		"password": "NewPass1!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
