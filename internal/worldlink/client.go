package worldlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/immersive-chess/internal/projector"
	"github.com/park285/immersive-chess/internal/voxel"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client talks to the world bridge command API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// BearerToken is a HeaderProvider sending token as Authorization.
func BearerToken(token string) HeaderProvider {
	token = strings.TrimSpace(token)
	return func() map[string]string {
		if token == "" {
			return nil
		}
		return map[string]string{"Authorization": "Bearer " + token}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/status", nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

// Region returns the non-air blocks inside box.
func (c *Client) Region(ctx context.Context, box voxel.BlockBox) ([]PlacedBlock, error) {
	var resp RegionResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/world/region", RegionRequest{Box: box}, &resp, true); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

// ApplyChanges sends block mutations in order. Replaying them is harmless,
// so the call is retried.
func (c *Client) ApplyChanges(ctx context.Context, changes []voxel.Change) error {
	if len(changes) == 0 {
		return nil
	}
	return c.doJSON(ctx, fasthttp.MethodPost, "/world/changes", ChangesRequest{Changes: changes}, nil, true)
}

// Permissions returns the positions of box that player may not modify.
func (c *Client) Permissions(ctx context.Context, player string, box voxel.BlockBox) ([]voxel.BlockPos, error) {
	var resp PermissionsResponse
	req := PermissionsRequest{Player: player, Box: box}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/world/permissions", req, &resp, true); err != nil {
		return nil, err
	}
	return resp.Denied, nil
}

func (c *Client) GiveItems(ctx context.Context, player string, items []projector.PieceItem) error {
	req := ItemsRequest{Player: player, Items: items}
	return c.doJSON(ctx, fasthttp.MethodPost, "/inventory/give", req, nil, false)
}

// RemoveItem consumes the piece item in slot without dropping it.
func (c *Client) RemoveItem(ctx context.Context, player string, slot int) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/inventory/remove", SlotRequest{Player: player, Slot: slot}, nil, false)
}

// DiscardItem deletes a stale piece item.
func (c *Client) DiscardItem(ctx context.Context, player string, slot int) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/inventory/discard", SlotRequest{Player: player, Slot: slot}, nil, false)
}

// DropItem throws the item in slot out of the inventory.
func (c *Client) DropItem(ctx context.Context, player string, slot int) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/inventory/drop", SlotRequest{Player: player, Slot: slot}, nil, false)
}

func (c *Client) SendMessage(ctx context.Context, player, text string, actionbar bool) error {
	req := MessageRequest{Player: player, Text: text, Actionbar: actionbar}
	return c.doJSON(ctx, fasthttp.MethodPost, "/chat/message", req, nil, false)
}

func (c *Client) Broadcast(ctx context.Context, text string) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/chat/broadcast", BroadcastRequest{Text: text}, nil, false)
}

func (c *Client) PlaySound(ctx context.Context, s projector.Sound) error {
	return c.doJSON(ctx, fasthttp.MethodPost, "/world/sound", s, nil, false)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			err := &APIError{Status: status, Path: path, Body: truncate(body, 512)}
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

// APIError is a non-2xx answer of the bridge.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("world bridge error: path=%s status=%d body=%s", e.Path, e.Status, e.Body)
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
