package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Trinity/internal/engine"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api; раскладка общая — engine.View) ---

// ProcessResponse — процесс из API.
type ProcessResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// ProcessVersionResponse — версия процесса из API.
type ProcessVersionResponse struct {
	ProcessID  string `json:"process_id"`
	Version    int    `json:"version"`
	Definition string `json:"definition"`
	CreatedAt  string `json:"created_at"`
}

// LayoutResponse — сохранённая сводка раскладки.
type LayoutResponse struct {
	ProcessID   string   `json:"process_id"`
	Version     int      `json:"version"`
	StepCount   int      `json:"step_count"`
	LevelCount  int      `json:"level_count"`
	MaxParallel int      `json:"max_parallel"`
	ParseError  string   `json:"parse_error,omitempty"`
	Unresolved  []string `json:"unresolved"`
	ComputedAt  string   `json:"computed_at"`
}

// PreviewResponse — раскладка процесса.
// Тот же формат печатает локальная команда preview с --json.
type PreviewResponse = engine.View

// --- Request types ---

// UpdateProcessRequest — обновление процесса.
type UpdateProcessRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		StepID  string `json:"step_id,omitempty"`
		Field   string `json:"field,omitempty"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
	StepID  string
	Field   string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	if e.StepID != "" {
		return fmt.Sprintf("%s: step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Trinity API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Processes ---

// ListProcesses возвращает все процессы.
func (c *Client) ListProcesses() ([]ProcessResponse, error) {
	var processes []ProcessResponse
	err := c.list("/api/v1/processes", nil, &processes)
	return processes, err
}

// CreateProcess создаёт новый процесс.
func (c *Client) CreateProcess(name string) (*ProcessResponse, error) {
	body := map[string]string{"name": name}
	var process ProcessResponse
	err := c.post("/api/v1/processes", body, &process)
	return &process, err
}

// GetProcess возвращает процесс по ID.
func (c *Client) GetProcess(id string) (*ProcessResponse, error) {
	var process ProcessResponse
	err := c.get("/api/v1/processes/"+url.PathEscape(id), &process)
	return &process, err
}

// UpdateProcess обновляет процесс.
func (c *Client) UpdateProcess(id string, req UpdateProcessRequest) (*ProcessResponse, error) {
	var process ProcessResponse
	err := c.put("/api/v1/processes/"+url.PathEscape(id), req, &process)
	return &process, err
}

// DeleteProcess удаляет процесс.
func (c *Client) DeleteProcess(id string) error {
	return c.delete("/api/v1/processes/" + url.PathEscape(id))
}

// --- Versions ---

// ListVersions возвращает версии процесса.
func (c *Client) ListVersions(processID string) ([]ProcessVersionResponse, error) {
	var versions []ProcessVersionResponse
	err := c.list(versionsPath(processID), nil, &versions)
	return versions, err
}

// CreateVersion публикует новую версию процесса.
func (c *Client) CreateVersion(processID, definition string, strict bool) (*ProcessVersionResponse, error) {
	path := versionsPath(processID)
	if strict {
		path += "?" + url.Values{"strict": {"true"}}.Encode()
	}

	body := map[string]string{"definition": definition}
	var version ProcessVersionResponse
	err := c.post(path, body, &version)
	return &version, err
}

// GetVersion возвращает версию. version — номер или "latest".
func (c *Client) GetVersion(processID, version string) (*ProcessVersionResponse, error) {
	var v ProcessVersionResponse
	err := c.get(versionsPath(processID)+"/"+url.PathEscape(version), &v)
	return &v, err
}

// PreviewVersion возвращает раскладку сохранённой версии.
func (c *Client) PreviewVersion(processID, version string) (*PreviewResponse, error) {
	var preview PreviewResponse
	err := c.get(versionsPath(processID)+"/"+url.PathEscape(version)+"/preview", &preview)
	return &preview, err
}

// GetLayout возвращает сводку раскладки, посчитанную индексатором.
func (c *Client) GetLayout(processID, version string) (*LayoutResponse, error) {
	var layout LayoutResponse
	err := c.get(versionsPath(processID)+"/"+url.PathEscape(version)+"/layout", &layout)
	return &layout, err
}

// Preview строит раскладку на сервере без сохранения.
func (c *Client) Preview(definition string) (*PreviewResponse, error) {
	body := map[string]string{"definition": definition}
	var preview PreviewResponse
	err := c.post("/api/v1/preview", body, &preview)
	return &preview, err
}

func versionsPath(processID string) string {
	return "/api/v1/processes/" + url.PathEscape(processID) + "/versions"
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("api request", "method", method, "url", req.URL.String())
	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
		apiErr.StepID = er.Error.StepID
		apiErr.Field = er.Error.Field
	}

	return apiErr
}

// formatVersion печатает номер версии для таблиц.
func formatVersion(v int) string {
	return "v" + strconv.Itoa(v)
}
