package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"petdoor_hub/internal/models"
)

// HTTPClient talks JSON-over-HTTP to the door unit's local API (fast plane,
// writes, identity) and to the timeline backend reachable through the same
// gateway (slow plane).
type HTTPClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewHTTPClient builds a client for the given base URL with basic auth.
func NewHTTPClient(baseURL, username, password string) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{},
	}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrProtocol, err)
	}
	req.SetBasicAuth(c.username, c.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes the request and maps transport/status failures onto the
// client's error classes.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, req.Method, req.URL.Path)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrProtocol, resp.StatusCode, bytes.TrimSpace(body))
	}

	return resp, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrProtocol, path, err)
	}
	return nil
}

// ResolveIdentity implements Client.
func (c *HTTPClient) ResolveIdentity(ctx context.Context) (models.DeviceIdentity, error) {
	var payload struct {
		Name         string `json:"name"`
		ID           int    `json:"id"`
		SWVersion    string `json:"sw_version"`
		SerialNumber string `json:"serial_number"`
	}
	if err := c.getJSON(ctx, "/v1/device", &payload); err != nil {
		return models.DeviceIdentity{}, err
	}
	if payload.Name == "" || payload.SerialNumber == "" {
		return models.DeviceIdentity{}, fmt.Errorf("%w: device descriptor missing name or serial", ErrProtocol)
	}
	return models.DeviceIdentity{
		Name:         payload.Name,
		ID:           payload.ID,
		SWVersion:    payload.SWVersion,
		SerialNumber: payload.SerialNumber,
	}, nil
}

// AvailablePets implements Client.
func (c *HTTPClient) AvailablePets(ctx context.Context, includeAll bool) ([]models.Pet, error) {
	var payload []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Species string `json:"species"`
	}
	path := "/v1/pets?include_all=" + strconv.FormatBool(includeAll)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}

	pets := make([]models.Pet, 0, len(payload))
	for _, p := range payload {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: pet entry without id", ErrProtocol)
		}
		pets = append(pets, models.Pet{
			ID:      p.ID,
			Name:    p.Name,
			Species: models.ParseSpecies(p.Species),
		})
	}
	return pets, nil
}

// FetchFastState implements Client. A response missing any canonical key is
// a protocol error: the device always reports its full state.
func (c *HTTPClient) FetchFastState(ctx context.Context) (models.FastStateMap, error) {
	var payload map[string]bool
	if err := c.getJSON(ctx, "/v1/states", &payload); err != nil {
		return nil, err
	}

	for _, key := range models.FastStateKeys {
		if _, ok := payload[key]; !ok {
			return nil, fmt.Errorf("%w: state response missing key %q", ErrProtocol, key)
		}
	}

	out := make(models.FastStateMap, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out, nil
}

// FetchSlowState implements Client.
func (c *HTTPClient) FetchSlowState(ctx context.Context, deviceID int) (models.SlowStateMap, error) {
	var payload []struct {
		PetID     string    `json:"pet_id"`
		Direction string    `json:"direction"`
		At        time.Time `json:"at"`
	}
	path := "/v1/timeline/" + strconv.Itoa(deviceID)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}

	out := make(models.SlowStateMap, len(payload))
	for _, e := range payload {
		if e.PetID == "" {
			return nil, fmt.Errorf("%w: timeline entry without pet_id", ErrProtocol)
		}
		out[e.PetID] = models.PetEvent{
			Direction: models.ParseDirection(e.Direction),
			At:        e.At,
		}
	}
	return out, nil
}

// WriteState implements Client.
func (c *HTTPClient) WriteState(ctx context.Context, key string, value bool) error {
	body, err := json.Marshal(map[string]bool{"value": value})
	if err != nil {
		return fmt.Errorf("%w: encoding write: %v", ErrProtocol, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/v1/states/"+key, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
