// Package client talks to the gigchat server over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ageniuscoder/gigchat/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

func New(server, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", server)
	}
	return &Client{
		base:  u,
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/api" + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func orgQuery(orgID string) url.Values {
	if orgID == "" {
		return nil
	}
	return url.Values{"org_id": {orgID}}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var env struct {
			Error json.RawMessage `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &env) == nil && len(env.Error) > 0 {
			var s string
			if json.Unmarshal(env.Error, &s) == nil {
				msg = s
			} else {
				msg = string(env.Error)
			}
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) ListConversations(ctx context.Context, orgID string) (models.Listing, error) {
	var out models.Listing
	err := c.do(ctx, http.MethodGet, "/conversations", orgQuery(orgID), nil, &out)
	return out, err
}

func (c *Client) FetchMessages(ctx context.Context, threadKey, orgID string) ([]models.Message, error) {
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(threadKey)+"/messages", orgQuery(orgID), nil, &out)
	return out.Messages, err
}

func (c *Client) MarkRead(ctx context.Context, threadKey, orgID string) error {
	return c.do(ctx, http.MethodPost, "/conversations/"+url.PathEscape(threadKey)+"/read", orgQuery(orgID), nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, req models.SendRequest) (models.Message, error) {
	var out struct {
		Message models.Message `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/messages", nil, req, &out)
	return out.Message, err
}

func (c *Client) StarMessage(ctx context.Context, id string, starred bool) (models.Message, error) {
	var out struct {
		Message models.Message `json:"message"`
	}
	body := map[string]bool{"starred": starred}
	err := c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(id)+"/star", nil, body, &out)
	return out.Message, err
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) SignalTyping(ctx context.Context, threadKey string) error {
	return c.do(ctx, http.MethodPost, "/typing/"+url.PathEscape(threadKey), nil, nil, nil)
}

func (c *Client) PollTyping(ctx context.Context, threadKey, orgID string) (bool, error) {
	var out struct {
		Typing bool `json:"typing"`
	}
	err := c.do(ctx, http.MethodGet, "/typing/"+url.PathEscape(threadKey), orgQuery(orgID), nil, &out)
	return out.Typing, err
}

func (c *Client) LookupJob(ctx context.Context, threadKey string) (models.Job, error) {
	var out struct {
		Job models.Job `json:"job"`
	}
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(threadKey), nil, nil, &out)
	return out.Job, err
}

func (c *Client) AcceptedProposal(ctx context.Context, threadKey string) (models.Proposal, error) {
	var out struct {
		Proposal models.Proposal `json:"proposal"`
	}
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(threadKey)+"/accepted-proposal", nil, nil, &out)
	return out.Proposal, err
}

// Me returns the profile behind the client's token.
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var out models.Profile
	err := c.do(ctx, http.MethodGet, "/me", nil, nil, &out)
	return out, err
}
