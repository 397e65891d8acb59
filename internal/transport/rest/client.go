// Package rest implements the request/response half of the remote channel:
// authentication, message history and the friend-relationship endpoints.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkalandia/chatlink/internal/domain"
)

var ErrNoToken = errors.New("rest: no credential, request refused")

// TokenSource supplies the current session token; an empty token refuses
// every authenticated request.
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

type Credentials struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Login exchanges username/password for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*Credentials, error) {
	body := map[string]string{"username": username, "password": password}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, false, &creds); err != nil {
		return nil, err
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("login: server returned no token")
	}
	return &creds, nil
}

// Register creates an account; the caller logs in afterwards.
func (c *Client) Register(ctx context.Context, username, password string) (*domain.ActionResult, error) {
	body := map[string]string{"username": username, "password": password}

	var result domain.ActionResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, false, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type historyResponse struct {
	Success  bool              `json:"success"`
	Messages []*domain.Message `json:"messages"`
}

// FetchHistory returns the room's message log in server order.
func (c *Client) FetchHistory(ctx context.Context, roomID string) ([]*domain.Message, error) {
	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+roomID, nil, true, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("history fetch for %s refused by server", roomID)
	}
	return resp.Messages, nil
}

// FetchFriends returns both relationship lists in full.
func (c *Client) FetchFriends(ctx context.Context) (*domain.FriendList, error) {
	var list domain.FriendList
	if err := c.do(ctx, http.MethodGet, "/api/friends", nil, true, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, toUsername string) (*domain.ActionResult, error) {
	return c.friendAction(ctx, "/api/friends/request", map[string]string{"toUsername": toUsername})
}

func (c *Client) AcceptFriendRequest(ctx context.Context, fromUserID string) (*domain.ActionResult, error) {
	return c.friendAction(ctx, "/api/friends/accept", map[string]string{"fromUserId": fromUserID})
}

func (c *Client) DeclineFriendRequest(ctx context.Context, fromUserID string) (*domain.ActionResult, error) {
	return c.friendAction(ctx, "/api/friends/decline", map[string]string{"fromUserId": fromUserID})
}

func (c *Client) friendAction(ctx context.Context, path string, body interface{}) (*domain.ActionResult, error) {
	var result domain.ActionResult
	if err := c.do(ctx, http.MethodPost, path, body, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one JSON request. Authenticated calls are refused locally when
// no token is present, before anything touches the network.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, authed bool, out interface{}) error {
	var token string
	if authed {
		token = c.token()
		if token == "" {
			return ErrNoToken
		}
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		// Error bodies carry {"error": "..."}; surface it when present.
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}
