// Package chatwork provides a minimal client for the Chatwork REST API v2.
package chatwork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// DefaultBaseURL is the public Chatwork API endpoint.
const DefaultBaseURL = "https://api.chatwork.com/v2"

var (
	// ErrUnauthorized is returned for 401/403 responses (bad or revoked token).
	ErrUnauthorized = errors.New("chatwork: unauthorized")
	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("chatwork: rate limit exceeded")
)

// APIError is any other non-success response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatwork API error %d: %s", e.Status, e.Body)
}

// Client is a Chatwork API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new Chatwork client.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request. A nil body with status 204 is a valid
// empty response.
func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-ChatWorkToken", c.Token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chatwork request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 400:
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

type wireAccount struct {
	AccountID      int64  `json:"account_id"`
	Name           string `json:"name"`
	AvatarImageURL string `json:"avatar_image_url"`
}

type wireMessage struct {
	MessageID  string      `json:"message_id"`
	Account    wireAccount `json:"account"`
	Body       string      `json:"body"`
	SendTime   int64       `json:"send_time"`
	UpdateTime int64       `json:"update_time"`
}

// GetMessages returns up to the latest 100 messages of a room in arrival
// order. force=true bypasses Chatwork's "only unread since last call" cache.
func (c *Client) GetMessages(ctx context.Context, roomID string, force bool) ([]models.Message, error) {
	path := fmt.Sprintf("/rooms/%s/messages?force=0", url.PathEscape(roomID))
	if force {
		path = fmt.Sprintf("/rooms/%s/messages?force=1", url.PathEscape(roomID))
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if len(respBody) == 0 {
		return []models.Message{}, nil
	}

	var wire []wireMessage
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("decode messages for room %s: %w", roomID, err)
	}

	messages := make([]models.Message, 0, len(wire))
	for _, w := range wire {
		messages = append(messages, models.Message{
			ID:     w.MessageID,
			RoomID: roomID,
			Account: models.Account{
				ID:        w.Account.AccountID,
				Name:      w.Account.Name,
				AvatarURL: w.Account.AvatarImageURL,
			},
			Body:       w.Body,
			SendTime:   w.SendTime,
			UpdateTime: w.UpdateTime,
		})
	}
	return messages, nil
}

// PostMessage posts body to a room and returns the new message id.
func (c *Client) PostMessage(ctx context.Context, roomID, body string) (string, error) {
	form := url.Values{}
	form.Set("body", body)
	form.Set("self_unread", "0")

	respBody, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/rooms/%s/messages", url.PathEscape(roomID)), form)
	if err != nil {
		return "", err
	}

	var resp struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	return resp.MessageID, nil
}

// Me returns the account the token belongs to; used as a connection check.
func (c *Client) Me(ctx context.Context) (models.Account, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return models.Account{}, err
	}

	var me wireAccount
	if err := json.Unmarshal(respBody, &me); err != nil {
		return models.Account{}, fmt.Errorf("decode me: %w", err)
	}
	return models.Account{ID: me.AccountID, Name: me.Name, AvatarURL: me.AvatarImageURL}, nil
}
