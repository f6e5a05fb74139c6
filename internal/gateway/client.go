// Package gateway implements the REST client for the SMS gateway API.
// Every response arrives wrapped in a data envelope; every request is
// authenticated with the account API key and tagged with a request id.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smswire/smswire/internal/domain"
)

const (
	defaultBaseURL   = "https://api.smswire.io"
	defaultUserAgent = "smswire/0.1"
	requestTimeout   = 10 * time.Second

	headerAPIKey    = "x-api-key"
	headerRequestID = "X-Request-Id"
)

// Client talks to the SMS gateway HTTP API.
type Client struct {
	base      string
	apiKey    string
	http      *http.Client
	userAgent string
}

// NewClient builds a Client for the given base URL. An empty baseURL
// selects the hosted gateway; a URL without a scheme gets https.
func NewClient(baseURL, apiKey string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:   base,
		apiKey: apiKey,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// GetUser fetches the authenticated account's profile.
func (c *Client) GetUser(ctx context.Context) (domain.User, error) {
	if c == nil {
		return domain.User{}, fmt.Errorf("client is nil")
	}
	var payload userEnvelope
	if err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, nil, &payload); err != nil {
		return domain.User{}, err
	}
	return payload.Data, nil
}

// UpdateActivePhone persists the account's default sending phone and
// returns the updated profile.
func (c *Client) UpdateActivePhone(ctx context.Context, phoneID string) (domain.User, error) {
	if c == nil {
		return domain.User{}, fmt.Errorf("client is nil")
	}
	body := updateUserRequest{ActivePhoneID: phoneID}
	var payload userEnvelope
	if err := c.do(ctx, http.MethodPut, "/v1/users/me", nil, body, &payload); err != nil {
		return domain.User{}, err
	}
	return payload.Data, nil
}

// ListPhones fetches up to limit registered phones.
func (c *Client) ListPhones(ctx context.Context, limit int) ([]domain.Phone, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var payload phonesEnvelope
	if err := c.do(ctx, http.MethodGet, "/v1/phones", values, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// ListThreads fetches every conversation belonging to the owner phone
// number.
func (c *Client) ListThreads(ctx context.Context, owner string) ([]domain.MessageThread, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("owner", owner)
	var payload threadsEnvelope
	if err := c.do(ctx, http.MethodGet, "/v1/message-threads", values, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// ListMessages fetches the messages exchanged between an owner phone and
// one contact.
func (c *Client) ListMessages(ctx context.Context, owner, contact string) ([]domain.Message, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("owner", owner)
	values.Set("contact", contact)
	var payload messagesEnvelope
	if err := c.do(ctx, http.MethodGet, "/v1/messages", values, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// SendMessage dispatches a new SMS. Any 2xx counts as accepted and the
// response body is not consumed. A rejected payload surfaces as
// *ValidationError.
func (c *Client) SendMessage(ctx context.Context, req domain.MessageSendRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, "/v1/messages/send", nil, req, nil)
}

// ListHeartbeats fetches up to limit of the owner's most recent
// heartbeats, newest first.
func (c *Client) ListHeartbeats(ctx context.Context, owner string, limit int) ([]domain.Heartbeat, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("owner", owner)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var payload heartbeatsEnvelope
	if err := c.do(ctx, http.MethodGet, "/v1/heartbeats", values, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
