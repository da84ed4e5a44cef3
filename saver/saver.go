package saver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Antigravity-finder/tabbycat/internal/logging"
	"github.com/Antigravity-finder/tabbycat/types"
)

// DefaultTimeout bounds each save request.
const DefaultTimeout = 15 * time.Second

// Config configures the save client.
type Config struct {
	// BaseURL is prepended to relative save paths. Optional.
	BaseURL string `yaml:"baseURL"`

	// CSRFToken is sent as the X-CSRFToken header on every request.
	CSRFToken string `yaml:"csrfToken"`

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Client posts JSON payloads to the backend's save endpoints.
type Client struct {
	cfg    Config
	http   *http.Client
	logger types.Logger
}

// New creates a save client.
//
// Parameters:
//   - cfg: Client configuration
//   - logger: Logger, may be nil
//
// Returns:
//   - *Client: Client ready for Save
func New(cfg Config, logger types.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// saveResponse is the body shape of a save reply. Some deployments report
// overload as a 200 response whose body carries status 503.
type saveResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Save posts one payload and classifies the outcome.
//
// Parameters:
//   - ctx: Context for cancellation (layered under the client timeout)
//   - url: Save endpoint, absolute or relative to BaseURL
//   - payload: JSON-encodable request body
//
// Returns:
//   - []byte: Raw response body on success
//   - error: ErrTimeout, ErrConnection, *ServerError, or encoding error
func (c *Client) Save(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode save payload: %w", err)
	}

	if c.cfg.BaseURL != "" && len(url) > 0 && url[0] == '/' {
		url = c.cfg.BaseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", c.cfg.CSRFToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &ServerError{Status: resp.StatusCode}
		var parsed saveResponse
		if json.Unmarshal(raw, &parsed) == nil {
			serverErr.Message = parsed.Message
		}
		c.logger.Error("save rejected", "url", url, "status", resp.StatusCode, "message", serverErr.Message)

		return nil, serverErr
	}

	// An overloaded backend can answer 200 with a body reporting 503.
	var parsed saveResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Status == 503 {
		c.logger.Error("save rejected", "url", url, "status", parsed.Status)

		return nil, &ServerError{Status: 503, Message: "503 Service Unavailable"}
	}

	c.logger.Debug("save completed", "url", url, "bytes", len(raw))

	return raw, nil
}

// classifyTransportError distinguishes a slow backend from an unreachable one.
func (c *Client) classifyTransportError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Error("save timed out", "url", url, "timeout", c.cfg.Timeout)

		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.logger.Error("save timed out", "url", url, "timeout", c.cfg.Timeout)

		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	c.logger.Error("save failed to reach server", "url", url, "error", err)

	return fmt.Errorf("%w: %v", ErrConnection, err)
}
