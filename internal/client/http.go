package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/presence"
)

// streamReconnectWait is the pause before re-dialing a dropped event stream.
const streamReconnectWait = time.Second

// HTTPClient implements DeviceClient using the hub's HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	actor      string
	role       string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// SetIdentity attaches an actor identity to every request so the hub can
// list this client on the watcher roster.
func (c *HTTPClient) SetIdentity(actor, role string) {
	c.actor = actor
	c.role = role
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Device document ---

func (c *HTTPClient) PairDevice(ctx context.Context, id, wearerRef string) (*model.Device, error) {
	body := map[string]string{}
	if wearerRef != "" {
		body["paired_wearer_ref"] = wearerRef
	}
	var device model.Device
	if err := c.doJSON(ctx, http.MethodPut, "/v1/devices/"+url.PathEscape(id), body, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (c *HTTPClient) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	if err := c.doJSON(ctx, http.MethodGet, "/v1/devices/"+url.PathEscape(id), nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (c *HTTPClient) UpdateVitals(ctx context.Context, id string, vitals model.Vitals) (*model.Device, error) {
	var device model.Device
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/devices/"+url.PathEscape(id)+"/vitals", vitals, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// --- State machine ---

func (c *HTTPClient) Transition(ctx context.Context, req *TransitionRequest) (*TransitionResult, error) {
	var result TransitionResult
	path := "/v1/devices/" + url.PathEscape(req.DeviceID) + "/transitions"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Event log ---

func (c *HTTPClient) ListEvents(ctx context.Context, deviceID string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/devices/"+url.PathEscape(deviceID)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Caregiver roster ---

func (c *HTTPClient) PutCaregiver(ctx context.Context, caregiver *model.Caregiver) (*model.Caregiver, error) {
	var out model.Caregiver
	path := "/v1/devices/" + url.PathEscape(caregiver.DeviceID) + "/caregivers"
	if err := c.doJSON(ctx, http.MethodPost, path, caregiver, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RemoveCaregiver(ctx context.Context, deviceID, id string) error {
	path := "/v1/devices/" + url.PathEscape(deviceID) + "/caregivers/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) ListCaregivers(ctx context.Context, deviceID string) ([]*model.Caregiver, error) {
	var resp struct {
		Caregivers []*model.Caregiver `json:"caregivers"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/devices/"+url.PathEscape(deviceID)+"/caregivers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Caregivers, nil
}

// --- Watchers ---

func (c *HTTPClient) ListWatchers(ctx context.Context, deviceID string) ([]presence.Entry, error) {
	var resp struct {
		Watchers []presence.Entry `json:"watchers"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/devices/"+url.PathEscape(deviceID)+"/watchers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Watchers, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- Streaming ---

// StreamEvents opens the hub's SSE endpoint and delivers pushes on the
// returned channel. The stream reconnects automatically with Last-Event-ID
// until the context is cancelled or the cancel function is called; missed
// events inside the hub's replay window are delivered on reconnect.
func (c *HTTPClient) StreamEvents(ctx context.Context, opts StreamOptions) (<-chan StreamEvent, func(), error) {
	ch := make(chan StreamEvent, 64)
	streamCtx, cancelCtx := context.WithCancel(ctx)

	q := url.Values{}
	if len(opts.Topics) > 0 {
		q.Set("topics", strings.Join(opts.Topics, ","))
	}
	if opts.DeviceID != "" {
		q.Set("device", opts.DeviceID)
	}
	path := "/v1/events/stream"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var once sync.Once
	cancel := func() { once.Do(cancelCtx) }

	go func() {
		defer close(ch)
		lastID := opts.LastEventID
		for {
			if err := c.readStream(streamCtx, path, &lastID, ch); err != nil {
				if streamCtx.Err() != nil {
					return
				}
			}
			select {
			case <-streamCtx.Done():
				return
			case <-time.After(streamReconnectWait):
			}
		}
	}()

	return ch, cancel, nil
}

// readStream dials the SSE endpoint once and forwards frames until the
// connection drops or the context is cancelled.
func (c *HTTPClient) readStream(ctx context.Context, path string, lastID *uint64, ch chan<- StreamEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	c.setHeaders(req, false)
	if *lastID > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatUint(*lastID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dialing stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "event stream rejected"}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var evt StreamEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id:"):
			if id, err := strconv.ParseUint(strings.TrimPrefix(line, "id:"), 10, 64); err == nil {
				evt.ID = id
			}
		case strings.HasPrefix(line, "event:"):
			evt.Topic = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			evt.Data = json.RawMessage(strings.TrimPrefix(line, "data:"))
		case strings.HasPrefix(line, ":"):
			// Keepalive comment.
		case line == "":
			if evt.Topic != "" {
				*lastID = evt.ID
				select {
				case ch <- evt:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			evt = StreamEvent{}
		}
	}
	return scanner.Err()
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *HTTPClient) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actor != "" {
		req.Header.Set("X-Lifeband-Actor", c.actor)
	}
	if c.role != "" {
		req.Header.Set("X-Lifeband-Role", c.role)
	}
}

// doJSON performs an HTTP request with a JSON body and decodes the JSON
// response into result (when non-nil).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content means success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
