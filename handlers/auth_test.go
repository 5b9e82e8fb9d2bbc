package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/reservio/reservio/internal/blacklist"
	"github.com/reservio/reservio/internal/config"
	"github.com/reservio/reservio/internal/repository"
	"github.com/reservio/reservio/internal/tokens"
	"github.com/reservio/reservio/internal/users"
)

const testSecret = "handler-test-secret-32-bytes-xxxxxx"

func newAuthRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.TokenTTL = time.Hour

	usersSvc := users.NewService(repository.NewMemory[users.User]("email"))
	bl := blacklist.New(redis.NewClient(&redis.Options{Addr: m.Addr()}))

	g := gin.New()
	NewAuthHandler(cfg, usersSvc, bl).Register(g.Group("/"))
	return g, cfg
}

func postJSON(t *testing.T, g *gin.Engine, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestRegisterLoginAuthenticateRoundTrip(t *testing.T) {
	g, _ := newAuthRouter(t)

	// register
	rw := postJSON(t, g, "/auth/register", `{"email":"a@x.com","password":"pw123!"}`)
	require.Equal(t, http.StatusCreated, rw.Code)
	var registered users.DTO
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.ID)

	// login sets the Authentication cookie and returns the token
	rw = postJSON(t, g, "/auth/login", `{"email":"a@x.com","password":"pw123!"}`)
	require.Equal(t, http.StatusOK, rw.Code)
	var loginResp struct {
		Token string    `json:"token"`
		User  users.DTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	require.Equal(t, registered.ID, loginResp.User.ID)

	var authCookie *http.Cookie
	for _, c := range rw.Result().Cookies() {
		if c.Name == "Authentication" {
			authCookie = c
		}
	}
	require.NotNil(t, authCookie, "login must set the Authentication cookie")
	require.Equal(t, loginResp.Token, authCookie.Value)

	// authenticate resolves the same identity, no secret material exposed
	rw = postJSON(t, g, "/auth/authenticate", `{"token":"`+loginResp.Token+`"}`)
	require.Equal(t, http.StatusOK, rw.Code)
	var resolved users.DTO
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &resolved))
	require.Equal(t, registered.ID, resolved.ID)
	require.Equal(t, "a@x.com", resolved.Email)
	require.NotContains(t, rw.Body.String(), "password")
	require.NotContains(t, rw.Body.String(), "$2")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	g, _ := newAuthRouter(t)

	rw := postJSON(t, g, "/auth/register", `{"email":"a@x.com","password":"pw123!"}`)
	require.Equal(t, http.StatusCreated, rw.Code)

	rw = postJSON(t, g, "/auth/register", `{"email":"a@x.com","password":"other1"}`)
	require.Equal(t, http.StatusConflict, rw.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	g, _ := newAuthRouter(t)
	postJSON(t, g, "/auth/register", `{"email":"a@x.com","password":"pw123!"}`)

	rw := postJSON(t, g, "/auth/login", `{"email":"a@x.com","password":"wrong1"}`)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	// no cookie on failed login
	require.Empty(t, rw.Result().Cookies())
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	g, cfg := newAuthRouter(t)
	postJSON(t, g, "/auth/register", `{"email":"a@x.com","password":"pw123!"}`)

	expired, err := tokens.Issue(cfg.JWT.Secret, "some-user", -time.Minute)
	require.NoError(t, err)

	rw := postJSON(t, g, "/auth/authenticate", `{"token":"`+expired+`"}`)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthenticate_ForeignSecret(t *testing.T) {
	g, _ := newAuthRouter(t)

	forged, err := tokens.Issue("some-other-secret-32-bytes-xxxxxxx", "intruder", time.Hour)
	require.NoError(t, err)

	rw := postJSON(t, g, "/auth/authenticate", `{"token":"`+forged+`"}`)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	g, _ := newAuthRouter(t)
	postJSON(t, g, "/auth/register", `{"email":"a@x.com","password":"pw123!"}`)

	rw := postJSON(t, g, "/auth/login", `{"email":"a@x.com","password":"pw123!"}`)
	require.Equal(t, http.StatusOK, rw.Code)
	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &loginResp))

	// token works before logout
	rw = postJSON(t, g, "/auth/authenticate", `{"token":"`+loginResp.Token+`"}`)
	require.Equal(t, http.StatusOK, rw.Code)

	// logout via cookie transport
	rw = postJSON(t, g, "/auth/logout", ``, &http.Cookie{Name: "Authentication", Value: loginResp.Token})
	require.Equal(t, http.StatusOK, rw.Code)

	// and is rejected afterwards
	rw = postJSON(t, g, "/auth/authenticate", `{"token":"`+loginResp.Token+`"}`)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}
