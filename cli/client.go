package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"originwidget/apps"
	"originwidget/core"
	"originwidget/models"
	"originwidget/state"
)

// Client talks to the originwidget HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// envelope mirrors the server's {code, message, data} response.
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates a new HTTP client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// handleResponse unwraps the envelope and decodes its data into result.
func (c *Client) handleResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bodyBytes))
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, env.Code, env.Message)
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) call(method, path string, body, result interface{}) error {
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return err
	}
	return c.handleResponse(resp, result)
}

// HealthCheck pings the health endpoint
func (c *Client) HealthCheck() error {
	resp, err := c.doRequest(http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: HTTP %d", resp.StatusCode)
	}
	return nil
}

// ListApps lists installed apps.
func (c *Client) ListApps() ([]apps.AppInfo, error) {
	var list []apps.AppInfo
	if err := c.call(http.MethodGet, "/api/apps", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListWidgets lists stored widget configs.
func (c *Client) ListWidgets() ([]models.WidgetConfig, error) {
	var list []models.WidgetConfig
	if err := c.call(http.MethodGet, "/api/widgets", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetWidget fetches one widget config.
func (c *Client) GetWidget(id int) (*models.WidgetConfig, error) {
	var cfg models.WidgetConfig
	if err := c.call(http.MethodGet, fmt.Sprintf("/api/widgets/%d", id), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewSession returns a config request pre-filled from the server defaults.
func (c *Client) NewSession() (models.WidgetConfigRequest, error) {
	var req models.WidgetConfigRequest
	err := c.call(http.MethodGet, "/api/session", nil, &req)
	return req, err
}

// SaveWidget commits a widget config.
func (c *Client) SaveWidget(id int, req models.WidgetConfigRequest) (*models.WidgetConfig, error) {
	var cfg models.WidgetConfig
	if err := c.call(http.MethodPut, fmt.Sprintf("/api/widgets/%d", id), req, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DeleteWidget removes a widget.
func (c *Client) DeleteWidget(id int) error {
	return c.call(http.MethodDelete, fmt.Sprintf("/api/widgets/%d", id), nil, nil)
}

// ReportSize sets the surface size of a widget.
func (c *Client) ReportSize(id, width, height int) error {
	body := map[string]int{"width": width, "height": height}
	return c.call(http.MethodPut, fmt.Sprintf("/api/widgets/%d/size", id), body, nil)
}

// Refresh runs a synchronous update of a widget.
func (c *Client) Refresh(id int) (core.UpdateResult, error) {
	var result core.UpdateResult
	err := c.call(http.MethodPost, fmt.Sprintf("/api/widgets/%d/refresh?wait=true", id), nil, &result)
	return result, err
}

// RefreshAll queues an update of every widget and returns how many were queued.
func (c *Client) RefreshAll() (int, error) {
	var result struct {
		Queued int `json:"queued"`
	}
	err := c.call(http.MethodPost, "/api/widgets/refresh", nil, &result)
	return result.Queued, err
}

// GetFrame fetches the surface layout of a widget.
func (c *Client) GetFrame(id int) (*state.Surface, error) {
	var sf state.Surface
	if err := c.call(http.MethodGet, fmt.Sprintf("/api/widgets/%d/frame", id), nil, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

// DownloadFrame writes the widget background PNG to path and returns its size in bytes.
func (c *Client) DownloadFrame(id int, path string) (int64, error) {
	resp, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/widgets/%d/frame/background.png", id), nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, c.handleResponse(resp, nil)
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return n, fmt.Errorf("failed to write %s: %w", path, copyErr)
	}
	return n, closeErr
}

// GetDefaults fetches the stored defaults.
func (c *Client) GetDefaults() (models.Defaults, error) {
	var d models.Defaults
	err := c.call(http.MethodGet, "/api/defaults", nil, &d)
	return d, err
}

// GetMetrics fetches the JSON metrics.
func (c *Client) GetMetrics() (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := c.call(http.MethodGet, "/api/metrics", nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}
