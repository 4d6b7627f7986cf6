package faceclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Match is the face service's answer for one image.
type Match struct {
	Matched  bool    `json:"matched"`
	Identity string  `json:"identity,omitempty"` // gallery file, e.g. "zn23_Loya-Niu.jpg"
	Distance float64 `json:"distance,omitempty"`
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with configurable timeout. With skip set every
// image comes back unmatched without a network call.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // recognition can take time
		},
	}
}

// Health checks the face service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("face service health returned %d", resp.StatusCode)
	}
	return nil
}

// Recognize uploads an image and returns the best gallery match.
func (c *Client) Recognize(ctx context.Context, image []byte, filename string) (*Match, error) {
	if c.Skip {
		return &Match{}, nil
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/recognize", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service recognize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %d: %s", resp.StatusCode, string(body))
	}

	var result Match
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("face service decode: %w", err)
	}
	return &result, nil
}

// ParseIdentity splits a gallery file name of the form
// "<email>_<First>-<Last>[.ext]" into the email and "First Last".
func ParseIdentity(identity string) (email, name string, ok bool) {
	base := path.Base(strings.ReplaceAll(identity, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	parts := strings.Split(base, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.Join(strings.Split(parts[1], "-"), " "), true
}
