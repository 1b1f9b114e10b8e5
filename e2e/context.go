// Package e2e drives the running API over HTTP with Gherkin scenarios. It is
// a standalone module so the server binary never links test tooling.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries request state across steps within one scenario.
type TestContext struct {
	baseURL string
	client  *http.Client

	status int
	body   any
	ids    map[string]int64
}

// NewTestContext reads the target server from COVERBASE_E2E_URL, defaulting
// to a local instance.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("COVERBASE_E2E_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		ids:     make(map[string]int64),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
	tc.ids = make(map[string]int64)
}

// ServerAvailable reports whether the target server answers its health check.
func (tc *TestContext) ServerAvailable() bool {
	resp, err := tc.client.Get(tc.baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (tc *TestContext) do(method, path string, payload any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.body = nil
	return json.NewDecoder(resp.Body).Decode(&tc.body)
}

// GET issues a GET request and records the response.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

// POST issues a POST request with a JSON body and records the response.
func (tc *TestContext) POST(path string, payload any) error {
	return tc.do(http.MethodPost, path, payload)
}

// PUT issues a PUT request with a JSON body and records the response.
func (tc *TestContext) PUT(path string, payload any) error {
	return tc.do(http.MethodPut, path, payload)
}

// Status returns the last response status code.
func (tc *TestContext) Status() int {
	return tc.status
}

// Field navigates the last response body by a dotted path. Numeric segments
// index into arrays, so "policies.0.state" reads the first policy's state.
func (tc *TestContext) Field(path string) (any, error) {
	current := tc.body
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found at %q", path, segment)
			}
			current = value
		case []any:
			var index int
			if _, err := fmt.Sscanf(segment, "%d", &index); err != nil {
				return nil, fmt.Errorf("field %q: %q is not an array index", path, segment)
			}
			if index < 0 || index >= len(node) {
				return nil, fmt.Errorf("field %q: index %d out of range", path, index)
			}
			current = node[index]
		default:
			return nil, fmt.Errorf("field %q: cannot descend into %T", path, current)
		}
	}
	return current, nil
}

// RememberID captures an id field from the last response under a name.
func (tc *TestContext) RememberID(name, path string) error {
	value, err := tc.Field(path)
	if err != nil {
		return err
	}
	id, ok := value.(float64)
	if !ok {
		return fmt.Errorf("field %q is %T, not a number", path, value)
	}
	tc.ids[name] = int64(id)
	return nil
}

// ID returns a previously remembered id.
func (tc *TestContext) ID(name string) (int64, error) {
	id, ok := tc.ids[name]
	if !ok {
		return 0, fmt.Errorf("no %q id remembered", name)
	}
	return id, nil
}
