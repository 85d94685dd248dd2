package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/auth"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/cache"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/services"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/testutil"
)

type fakePinger struct{ err error }

func (p *fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app      *fiber.App
	mailer   *testutil.Mailer
	uploader *testutil.Uploader
	pinger   *fakePinger
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		JWTAlgorithm:         "HS256",
		JWTAccessExpiry:      15 * time.Minute,
		JWTRefreshExpiry:     time.Hour,
		JWTEmailExpiry:       time.Hour,
		UsersRateLimitMax:    rateLimit,
		UsersRateLimitWindow: time.Minute,
	}

	users := testutil.NewUserStore()
	userCache := cache.NewMemory(time.Minute)
	tokens := auth.NewIssuer(cfg)
	s := &testServer{
		app:      fiber.New(),
		mailer:   testutil.NewMailer(),
		uploader: &testutil.Uploader{},
		pinger:   &fakePinger{},
	}

	authService := services.NewAuthService(users, auth.NewHasher(bcrypt.MinCost), tokens, userCache, s.mailer)
	contactService := services.NewContactService(testutil.NewContactStore())
	userService := services.NewUserService(users, s.uploader, userCache)

	Setup(s.app, cfg, nil, tokens, authService, nil,
		handlers.NewAuthHandler(authService),
		handlers.NewContactHandler(contactService),
		handlers.NewUserHandler(userService),
		handlers.NewHealthHandler(s.pinger),
	)
	return s
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r response) detail(t *testing.T) string {
	t.Helper()
	var out struct {
		Detail string `json:"detail"`
	}
	r.decode(t, &out)
	return out.Detail
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: body}
}

func (s *testServer) json(t *testing.T, method, path, token string, payload interface{}) response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, token)
}

func (s *testServer) login(t *testing.T, email, password string) response {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req, "")
}

func (s *testServer) nextMail(t *testing.T) testutil.SentMail {
	t.Helper()
	select {
	case m := <-s.mailer.Sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("verification email was not sent")
		return testutil.SentMail{}
	}
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// registerUser signs up, confirms and logs in, returning the token pair.
func (s *testServer) registerUser(t *testing.T, username, email string) tokenPair {
	t.Helper()
	resp := s.json(t, "POST", "/api/auth/signup", "", map[string]string{
		"username": username, "email": email, "password": "12345678",
	})
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))

	mail := s.nextMail(t)
	resp = s.do(t, httptest.NewRequest("GET", "/api/auth/confirmed_email/"+mail.Token, nil), "")
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))

	resp = s.login(t, email, "12345678")
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	var pair tokenPair
	resp.decode(t, &pair)
	return pair
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, 100)
	user := map[string]string{"username": "groot", "email": "groot@example.com", "password": "12345678"}

	resp := s.json(t, "POST", "/api/auth/signup", "", user)
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	var created map[string]interface{}
	resp.decode(t, &created)
	assert.Equal(t, "groot", created["username"])
	assert.Equal(t, "groot@example.com", created["email"])
	assert.NotContains(t, created, "password")
	assert.Contains(t, created, "avatar")

	mail := s.nextMail(t)
	assert.Equal(t, "http://example.com/", mail.BaseURL)

	resp = s.json(t, "POST", "/api/auth/signup", "", user)
	assert.Equal(t, fiber.StatusConflict, resp.status)
	assert.Equal(t, "Account already exists", resp.detail(t))

	resp = s.login(t, "groot@example.com", "12345678")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "User not verified", resp.detail(t))

	resp = s.do(t, httptest.NewRequest("GET", "/api/auth/confirmed_email/"+mail.Token, nil), "")
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "Email confirmed")

	resp = s.do(t, httptest.NewRequest("GET", "/api/auth/confirmed_email/"+mail.Token, nil), "")
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "Your email is already confirmed")

	resp = s.login(t, "groot@example.com", "12345678")
	require.Equal(t, fiber.StatusOK, resp.status)
	var pair tokenPair
	resp.decode(t, &pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	resp = s.login(t, "groot@example.com", "wrong_password")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid password", resp.detail(t))

	resp = s.login(t, "email", "12345678")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid email", resp.detail(t))
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t, 100)

	resp := s.json(t, "POST", "/api/auth/signup", "", map[string]string{
		"username": "gr", "email": "not-an-email", "password": "12345678",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
	detail := resp.detail(t)
	assert.Contains(t, detail, "username")
	assert.Contains(t, detail, "email")

	resp = s.json(t, "POST", "/api/auth/signup", "", map[string]string{
		"username": "groot", "email": "groot@example.com", "password": "123",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
	assert.Contains(t, resp.detail(t), "password")
}

func TestConfirmEmail_InvalidToken(t *testing.T) {
	s := newTestServer(t, 100)

	resp := s.do(t, httptest.NewRequest("GET", "/api/auth/confirmed_email/garbage", nil), "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
	assert.Equal(t, "Invalid token for email verification", resp.detail(t))
}

func TestRequestEmail(t *testing.T) {
	s := newTestServer(t, 100)

	resp := s.json(t, "POST", "/api/auth/signup", "", map[string]string{
		"username": "groot", "email": "groot@example.com", "password": "12345678",
	})
	require.Equal(t, fiber.StatusCreated, resp.status)
	s.nextMail(t)

	resp = s.json(t, "POST", "/api/auth/request_email", "", map[string]string{"email": "groot@example.com"})
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "Check your email for confirmation.")
	assert.Equal(t, "groot@example.com", s.nextMail(t).To)
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t, 100)
	pair := s.registerUser(t, "groot", "groot@example.com")

	resp := s.do(t, httptest.NewRequest("GET", "/api/auth/refresh_token", nil), pair.RefreshToken)
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	var rotated tokenPair
	resp.decode(t, &rotated)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	resp = s.do(t, httptest.NewRequest("GET", "/api/auth/refresh_token", nil), pair.RefreshToken)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid refresh token", resp.detail(t))

	resp = s.do(t, httptest.NewRequest("GET", "/api/auth/refresh_token", nil), pair.AccessToken)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, httptest.NewRequest("GET", "/api/auth/refresh_token", nil), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
}

var contactBody = map[string]string{
	"full_name":    "TestTest",
	"email":        "TestTest@gmail.com",
	"phone_number": "1236547890",
	"birthday":     "2024-08-17",
}

func TestContacts_CRUD(t *testing.T) {
	s := newTestServer(t, 100)
	pair := s.registerUser(t, "groot", "groot@example.com")
	token := pair.AccessToken

	resp := s.json(t, "GET", "/api/contacts", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.JSONEq(t, "[]", string(resp.body))

	resp = s.json(t, "POST", "/api/contacts", token, contactBody)
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	var created map[string]interface{}
	resp.decode(t, &created)
	assert.Equal(t, "TestTest", created["full_name"])
	assert.Equal(t, "TestTest@gmail.com", created["email"])
	assert.Equal(t, "1236547890", created["phone_number"])
	assert.Equal(t, "2024-08-17", created["birthday"])
	assert.Equal(t, "groot@example.com", created["user"].(map[string]interface{})["email"])
	id := created["id"].(string)

	resp = s.json(t, "POST", "/api/contacts", token, contactBody)
	assert.Equal(t, fiber.StatusConflict, resp.status)

	resp = s.json(t, "GET", "/api/contacts/"+id, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)

	resp = s.json(t, "GET", "/api/contacts?limit=10&offset=0", token, nil)
	var list []map[string]interface{}
	resp.decode(t, &list)
	assert.Len(t, list, 1)

	updated := map[string]string{
		"full_name":    "Renamed",
		"email":        "TestTest@gmail.com",
		"phone_number": "1236547890",
		"birthday":     "2000-01-02",
	}
	resp = s.json(t, "PUT", "/api/contacts/"+id, token, updated)
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	var got map[string]interface{}
	resp.decode(t, &got)
	assert.Equal(t, "Renamed", got["full_name"])
	assert.Equal(t, "2000-01-02", got["birthday"])

	resp = s.json(t, "DELETE", "/api/contacts/"+id, token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.status)

	resp = s.json(t, "DELETE", "/api/contacts/"+id, token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.status)

	resp = s.json(t, "GET", "/api/contacts/"+id, token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	assert.Equal(t, "NOT FOUND", resp.detail(t))
}

func TestContacts_Validation(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.registerUser(t, "groot", "groot@example.com").AccessToken

	resp := s.json(t, "POST", "/api/contacts", token, map[string]string{
		"full_name": "TestTest", "email": "TestTest@gmail.com", "phone_number": "1236547890",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
	assert.Contains(t, resp.detail(t), "birthday")

	bad := map[string]string{}
	for k, v := range contactBody {
		bad[k] = v
	}
	bad["birthday"] = "17-08-2024"
	resp = s.json(t, "POST", "/api/contacts", token, bad)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)

	resp = s.json(t, "GET", "/api/contacts/not-a-uuid", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
}

func TestContacts_OwnerIsolation(t *testing.T) {
	s := newTestServer(t, 100)
	alice := s.registerUser(t, "alice", "alice@example.com").AccessToken
	bob := s.registerUser(t, "bobby", "bob@example.com").AccessToken

	resp := s.json(t, "POST", "/api/contacts", alice, contactBody)
	require.Equal(t, fiber.StatusCreated, resp.status)
	var created map[string]interface{}
	resp.decode(t, &created)
	id := created["id"].(string)

	resp = s.json(t, "GET", "/api/contacts/"+id, bob, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)

	resp = s.json(t, "PUT", "/api/contacts/"+id, bob, contactBody)
	assert.Equal(t, fiber.StatusNotFound, resp.status)

	resp = s.json(t, "GET", "/api/contacts", bob, nil)
	assert.JSONEq(t, "[]", string(resp.body))

	resp = s.json(t, "DELETE", "/api/contacts/"+id, bob, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.status)

	resp = s.json(t, "GET", "/api/contacts/"+id, alice, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
}

func TestProtectedRoutes_Unauthorized(t *testing.T) {
	s := newTestServer(t, 100)
	pair := s.registerUser(t, "groot", "groot@example.com")

	for _, token := range []string{"", "garbage", pair.RefreshToken} {
		resp := s.json(t, "GET", "/api/contacts", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.status)
		assert.Equal(t, "Could not validate credentials", resp.detail(t))
	}
}

func TestUsers_MeRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	token := s.registerUser(t, "groot", "groot@example.com").AccessToken

	for i := 0; i < 2; i++ {
		resp := s.json(t, "GET", "/api/users/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.status)
		var me map[string]interface{}
		resp.decode(t, &me)
		assert.Equal(t, "groot@example.com", me["email"])
	}

	resp := s.json(t, "GET", "/api/users/me", token, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.status)
	assert.Equal(t, "Too many requests", resp.detail(t))
}

func avatarRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="avatar.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("PATCH", "/api/users/avatar", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUsers_UpdateAvatar(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.registerUser(t, "groot", "groot@example.com").AccessToken

	resp := s.do(t, avatarRequest(t, "image/png", []byte("png-bytes")), token)
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	var me map[string]interface{}
	resp.decode(t, &me)
	assert.True(t, strings.HasPrefix(me["avatar"].(string), "https://cdn.test/avatars/"))

	require.Len(t, s.uploader.Uploads, 1)
	assert.Equal(t, []byte("png-bytes"), s.uploader.Uploads[0].Body)

	resp = s.json(t, "GET", "/api/users/me", token, nil)
	var again map[string]interface{}
	resp.decode(t, &again)
	assert.Equal(t, me["avatar"], again["avatar"])

	resp = s.do(t, avatarRequest(t, "text/plain", []byte("nope")), token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
}

func TestHealthchecker(t *testing.T) {
	s := newTestServer(t, 100)

	resp := s.json(t, "GET", "/api/healthchecker", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "message")

	s.pinger.err = assert.AnError
	resp = s.json(t, "GET", "/api/healthchecker", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.status)
	assert.Equal(t, "Error connecting to the database", resp.detail(t))
}

func TestContacts_Pagination(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.registerUser(t, "groot", "groot@example.com").AccessToken

	for i := 0; i < 12; i++ {
		resp := s.json(t, "POST", "/api/contacts", token, map[string]string{
			"full_name":    "Contact " + strconv.Itoa(i),
			"email":        "contact" + strconv.Itoa(i) + "@example.com",
			"phone_number": "12345678" + fmt.Sprintf("%02d", i),
			"birthday":     "1990-01-01",
		})
		require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	}

	var list []map[string]interface{}
	s.json(t, "GET", "/api/contacts", token, nil).decode(t, &list)
	assert.Len(t, list, 10)

	s.json(t, "GET", "/api/contacts?limit=500&offset=10", token, nil).decode(t, &list)
	assert.Len(t, list, 2)

	tests := []struct {
		query  string
		detail string
	}{
		{"limit=5", "limit: must be between 10 and 500"},
		{"limit=501", "limit: must be between 10 and 500"},
		{"offset=-1", "offset: must be greater than or equal to 0"},
		{"limit=abc", "limit: must be an integer"},
		{"offset=x", "offset: must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := s.json(t, "GET", "/api/contacts?"+tt.query, token, nil)
			assert.Equal(t, fiber.StatusUnprocessableEntity, resp.status)
			assert.Equal(t, tt.detail, resp.detail(t))
		})
	}
}
