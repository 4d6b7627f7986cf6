// Package client talks to the check-in API: inserts, listing, export
// downloads and the live snapshot subscription.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"nhooyr.io/websocket"

	"classcheckin/internal/checkin"
	"classcheckin/internal/live"
)

// Client calls the check-in API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client with a request timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Insert stores a record and returns its id.
func (c *Client) Insert(ctx context.Context, in checkin.NewRecord) (string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/checkins", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// List fetches all records, or those with the given email.
func (c *Client) List(ctx context.Context, email string) ([]checkin.Record, error) {
	u := c.BaseURL + "/v1/checkins"
	if email != "" {
		u += "?email=" + url.QueryEscape(email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Checkins []checkin.Record `json:"checkins"`
	}
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Checkins, nil
}

// Export downloads the server-rendered export for window. ok is false when
// the server reports nothing to export.
func (c *Client) Export(ctx context.Context, w checkin.Window) (table checkin.Table, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/export?window="+w.String(), nil)
	if err != nil {
		return checkin.Table{}, false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return checkin.Table{}, false, fmt.Errorf("client: export: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return checkin.Table{}, false, nil
	case http.StatusOK:
	default:
		return checkin.Table{}, false, statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return checkin.Table{}, false, fmt.Errorf("client: read export: %w", err)
	}
	table = checkin.Table{
		Filename: checkin.ExportFilename(time.Now()),
		Content:  string(data),
		Rows:     strings.Count(string(data), "\n"),
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		table.Filename = params["filename"]
	}
	return table, true, nil
}

// OnSnapshot subscribes to the live feed. fn runs on a reader goroutine
// with every full snapshot until ctx ends or unsubscribe is called.
func (c *Client) OnSnapshot(ctx context.Context, fn func([]checkin.Record)) (func(), error) {
	conn, _, err := websocket.Dial(ctx, c.liveURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial live feed: %w", err)
	}
	conn.SetReadLimit(32 << 20)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					log.Printf("live feed closed: %v", err)
				}
				return
			}
			var frame live.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				log.Printf("live feed: bad frame: %v", err)
				continue
			}
			if frame.Type == live.FrameSnapshot {
				fn(frame.Records)
			}
		}
	}()

	return func() {
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		<-done
	}, nil
}

func (c *Client) liveURL() string {
	u := c.BaseURL + "/v1/live"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("client: server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("client: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

var _ checkin.Source = (*Client)(nil)
