// Package authclient is the HTTP client for the authentication authority's
// fixed "authenticate" operation: it forwards a raw bearer credential and
// gets back the resolved identity.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reservio/reservio/internal/users"
)

const authenticatePath = "/auth/authenticate"

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the authority at baseURL. The timeout bounds the
// whole call; callers usually also pass a per-request context deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Authenticate implements middleware.Authenticator against the remote
// authority. Any non-OK response is an authentication failure; transport
// errors surface as errors too, which the guard folds into a rejection.
func (c *Client) Authenticate(ctx context.Context, token string) (*users.DTO, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+authenticatePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authority unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authority rejected credential: status %d", resp.StatusCode)
	}

	var dto users.DTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, err
	}
	if dto.ID == "" {
		return nil, fmt.Errorf("authority returned empty identity")
	}
	return &dto, nil
}
