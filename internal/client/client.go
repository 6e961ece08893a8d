// Package client talks to the challenge API over HTTP. *Client implements
// catalogview.Store.
package client

import (
	"alcyxob/wellbeing-app/internal/catalogview"
	"alcyxob/wellbeing-app/internal/domain"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ catalogview.Store = (*Client)(nil)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with an existing bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL, e.g. "http://localhost:8080/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type userPayload struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (u userPayload) actor() (domain.Actor, error) {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("server returned invalid user id %q: %w", u.ID, err)
	}
	role, ok := domain.ParseRole(u.Role)
	if !ok {
		return domain.Actor{}, fmt.Errorf("server returned unknown role %q", u.Role)
	}
	return domain.Actor{UserID: id, Role: role}, nil
}

// Login exchanges credentials for a token, keeps it for later calls and
// returns the session the token stands for.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Actor, error) {
	var resp struct {
		Token string      `json:"token"`
		User  userPayload `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return domain.Actor{}, err
	}
	if resp.Token == "" {
		return domain.Actor{}, errors.New("login response carried no token")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()
	return resp.User.actor()
}

// Me returns the session of the current token.
func (c *Client) Me(ctx context.Context) (domain.Actor, error) {
	var user userPayload
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return domain.Actor{}, err
	}
	return user.actor()
}

// --- catalogview.Store ---

func (c *Client) FetchCatalog(ctx context.Context) ([]domain.WeekWithItems, error) {
	var resp struct {
		Weeks []domain.WeekWithItems `json:"weeks"`
	}
	if err := c.do(ctx, http.MethodGet, "/challenges", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Weeks, nil
}

func (c *Client) FetchProgress(ctx context.Context) (*domain.ProgressSummary, error) {
	var summary domain.ProgressSummary
	if err := c.do(ctx, http.MethodGet, "/challenges/progress", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) CreateWeek(ctx context.Context, input domain.WeekInput) (*domain.WeekWithItems, error) {
	var week domain.WeekWithItems
	if err := c.do(ctx, http.MethodPost, "/challenges/weeks", input, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

func (c *Client) UpdateWeek(ctx context.Context, weekID primitive.ObjectID, patch domain.WeekPatch) (*domain.Week, error) {
	var week domain.Week
	if err := c.do(ctx, http.MethodPatch, weekPath(weekID), patch, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

func (c *Client) DeleteWeek(ctx context.Context, weekID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, weekPath(weekID), nil, nil)
}

func (c *Client) CreateItem(ctx context.Context, weekID primitive.ObjectID, input domain.ItemInput) (*domain.ChallengeItem, error) {
	var item domain.ChallengeItem
	if err := c.do(ctx, http.MethodPost, weekPath(weekID)+"/items", input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, weekID, itemID primitive.ObjectID, patch domain.ItemPatch) (*domain.ChallengeItem, error) {
	var item domain.ChallengeItem
	if err := c.do(ctx, http.MethodPatch, itemPath(weekID, itemID), patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, weekID, itemID primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, itemPath(weekID, itemID), nil, nil)
}

func (c *Client) SetCompletion(ctx context.Context, weekID, itemID primitive.ObjectID, completed bool) (*domain.ChallengeItem, error) {
	var item domain.ChallengeItem
	body := map[string]bool{"completed": completed}
	if err := c.do(ctx, http.MethodPut, itemPath(weekID, itemID)+"/completion", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func weekPath(weekID primitive.ObjectID) string {
	return "/challenges/weeks/" + weekID.Hex()
}

func itemPath(weekID, itemID primitive.ObjectID) string {
	return weekPath(weekID) + "/items/" + itemID.Hex()
}

// do sends one JSON request. Transport failures wrap
// catalogview.ErrNetworkUnavailable; error statuses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", catalogview.ErrNetworkUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return readAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
