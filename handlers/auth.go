package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reservio/reservio/internal/blacklist"
	"github.com/reservio/reservio/internal/config"
	"github.com/reservio/reservio/internal/repository"
	"github.com/reservio/reservio/internal/tokens"
	"github.com/reservio/reservio/internal/users"
	"github.com/reservio/reservio/pkg/logger"
	"github.com/reservio/reservio/pkg/middleware"
)

// credentials is the register/login request body.
type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthHandler exposes the authority's operations: register, login,
// authenticate (the operation remote guards delegate to) and logout.
type AuthHandler struct {
	cfg       *config.Config
	usersSvc  *users.Service
	blacklist *blacklist.Store
}

func NewAuthHandler(cfg *config.Config, u *users.Service, b *blacklist.Store) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, blacklist: b}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.POST("/authenticate", h.AuthenticateToken)
	a.POST("/logout", h.Logout)
}

// Authenticator returns the in-process middleware.Authenticator for routes
// the authority protects itself, same semantics as the remote operation.
func (h *AuthHandler) Authenticator() middleware.Authenticator {
	return localAuthenticator{h: h}
}

type localAuthenticator struct{ h *AuthHandler }

func (l localAuthenticator) Authenticate(ctx context.Context, token string) (*users.DTO, error) {
	return l.h.resolveToken(ctx, token)
}

// RegisterUser creates an identity; a duplicate email is a 409.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto, err := h.usersSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, repository.ErrUnavailable):
			logger.Errorf("register: user store unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		default:
			logger.Errorf("register failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// Login validates credentials, issues a token and sets it as the
// Authentication cookie. This is the only place the cookie is written.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto, err := h.usersSvc.ValidateCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			logger.Errorf("login: user store unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	token, err := tokens.Issue(h.cfg.JWT.Secret, dto.ID, h.cfg.JWT.TokenTTL)
	if err != nil {
		logger.Errorf("login: token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	c.SetCookie("Authentication", token, int(h.cfg.JWT.TokenTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": dto})
}

// AuthenticateToken is the fixed operation remote guards call: it resolves a
// raw credential to an identity or rejects it.
func (h *AuthHandler) AuthenticateToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	dto, err := h.resolveToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			logger.Errorf("authenticate: user store unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, dto)
}

// Logout blacklists the presented token for its remaining lifetime and
// clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.ExtractCredential(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ttl, err := tokens.RemainingTTL(h.cfg.JWT.Secret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.blacklist.Add(c.Request.Context(), token, ttl); err != nil {
		logger.Errorf("logout: failed to blacklist token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.SetCookie("Authentication", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// resolveToken is the authority-side authenticate contract: blacklist check,
// signature+expiry verification, then identity lookup by the embedded id.
func (h *AuthHandler) resolveToken(ctx context.Context, token string) (*users.DTO, error) {
	revoked, err := h.blacklist.Contains(ctx, token)
	if err != nil {
		// a broken blacklist fails closed
		logger.Warnf("authenticate: blacklist check failed: %v", err)
		return nil, tokens.ErrUnauthorized
	}
	if revoked {
		return nil, tokens.ErrUnauthorized
	}
	userID, err := tokens.Verify(h.cfg.JWT.Secret, token)
	if err != nil {
		return nil, err
	}
	dto, err := h.usersSvc.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, tokens.ErrUnauthorized
		}
		return nil, err
	}
	return dto, nil
}
