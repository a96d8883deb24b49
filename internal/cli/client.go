// Package cli implements the annosync commands.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carjohnson/annosync/internal/config"
)

const defaultDaemonAddr = "http://127.0.0.1:8714"

// daemonClient is a thin HTTP client for commands that talk to a
// running annosync daemon.
type daemonClient struct {
	baseURL    string
	httpClient *http.Client
	username   string
	role       string
}

// newDaemonClient builds a client for the daemon at addr, forwarding
// the workspace identity with every request.
func newDaemonClient(addr string) *daemonClient {
	if addr == "" {
		addr = defaultDaemonAddr
	}
	c := &daemonClient{
		baseURL:    addr,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg, err := config.LoadConfig("."); err == nil {
		c.username = cfg.Username
		c.role = cfg.Role
	}
	return c
}

// call performs one JSON request and decodes the response into out (if
// non-nil). Non-2xx responses surface the server's error message.
func (c *daemonClient) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.Header.Set("X-Annosync-User", c.username)
		req.Header.Set("X-Annosync-Role", c.role)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode daemon response: %w", err)
		}
	}
	return nil
}
