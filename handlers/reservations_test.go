package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/reservio/reservio/internal/blacklist"
	"github.com/reservio/reservio/internal/config"
	"github.com/reservio/reservio/internal/repository"
	"github.com/reservio/reservio/internal/reservations"
	"github.com/reservio/reservio/internal/users"
	"github.com/reservio/reservio/pkg/authclient"
	"github.com/reservio/reservio/pkg/middleware"
)

// staticAuthenticator admits one fixed token
type staticAuthenticator struct {
	token string
	user  users.DTO
}

func (s *staticAuthenticator) Authenticate(ctx context.Context, token string) (*users.DTO, error) {
	if token != s.token {
		return nil, fmt.Errorf("invalid token")
	}
	u := s.user
	return &u, nil
}

func newReservationsRouter(auth middleware.Authenticator) *gin.Engine {
	g := gin.New()
	svc := reservations.NewService(repository.NewMemory[reservations.Reservation]())
	NewReservationsHandler(svc).Register(g.Group("/"), middleware.AuthGuard(auth, time.Second))
	return g
}

func doJSON(g *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "Authentication", Value: token})
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestReservationsCRUD(t *testing.T) {
	auth := &staticAuthenticator{token: "tok", user: users.DTO{ID: "u1", Email: "a@x.com"}}
	g := newReservationsRouter(auth)

	// CREATE
	body := `{"startDate":"2026-09-01T12:00:00Z","endDate":"2026-09-04T12:00:00Z","placeId":"place-9"}`
	rw := doJSON(g, http.MethodPost, "/api/reservations", body, "tok")
	require.Equal(t, http.StatusCreated, rw.Code)
	var created reservations.Reservation
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "u1", created.UserID)

	// PATCH endDate only: startDate and userId survive
	rw = doJSON(g, http.MethodPatch, "/api/reservations/"+created.ID, `{"endDate":"2026-09-09T12:00:00Z"}`, "tok")
	require.Equal(t, http.StatusOK, rw.Code)
	var updated reservations.Reservation
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &updated))
	require.Equal(t, created.StartDate.UTC(), updated.StartDate.UTC())
	require.Equal(t, "2026-09-09T12:00:00Z", updated.EndDate.UTC().Format(time.RFC3339))
	require.Equal(t, "u1", updated.UserID)

	// GET single + LIST
	rw = doJSON(g, http.MethodGet, "/api/reservations/"+created.ID, "", "tok")
	require.Equal(t, http.StatusOK, rw.Code)
	rw = doJSON(g, http.MethodGet, "/api/reservations", "", "tok")
	require.Equal(t, http.StatusOK, rw.Code)
	var list []reservations.Reservation
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// DELETE then 404
	rw = doJSON(g, http.MethodDelete, "/api/reservations/"+created.ID, "", "tok")
	require.Equal(t, http.StatusNoContent, rw.Code)
	rw = doJSON(g, http.MethodGet, "/api/reservations/"+created.ID, "", "tok")
	require.Equal(t, http.StatusNotFound, rw.Code)
}

func TestReservations_RejectedWithoutCredential(t *testing.T) {
	auth := &staticAuthenticator{token: "tok", user: users.DTO{ID: "u1"}}
	g := newReservationsRouter(auth)

	rw := doJSON(g, http.MethodGet, "/api/reservations", "", "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

// Full delegation path: the reservations service's guard calls a real
// authority over HTTP through the authclient.
func TestReservations_DelegatesToRemoteAuthority(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.TokenTTL = time.Hour

	usersSvc := users.NewService(repository.NewMemory[users.User]("email"))
	authority := gin.New()
	NewAuthHandler(cfg, usersSvc, blacklist.New(nil)).Register(authority.Group("/"))
	authoritySrv := httptest.NewServer(authority)
	defer authoritySrv.Close()

	remote := authclient.New(authoritySrv.URL, time.Second)
	g := newReservationsRouter(remote)

	// register + login against the authority to obtain a real token
	rw := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"a@x.com","password":"pw123!"}`))
	req.Header.Set("Content-Type", "application/json")
	authority.ServeHTTP(rw, req)
	require.Equal(t, http.StatusCreated, rw.Code)

	rw = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"pw123!"}`))
	req.Header.Set("Content-Type", "application/json")
	authority.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &loginResp))

	// a protected call with the real token is admitted
	body := `{"startDate":"2026-09-01T12:00:00Z","endDate":"2026-09-02T12:00:00Z","placeId":"p1"}`
	got := doJSON(g, http.MethodPost, "/api/reservations", body, loginResp.Token)
	require.Equal(t, http.StatusCreated, got.Code)

	// and a forged one is not
	got = doJSON(g, http.MethodGet, "/api/reservations", "", "forged-token")
	require.Equal(t, http.StatusUnauthorized, got.Code)
}
