package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// TestContext drives a running invoice bot over its interactions
// webhook and holds the state threaded between steps: the last response
// and the continuation ids harvested from it.
//
// The target server must run with signature verification disabled
// (empty DISCORD_PUBLIC_KEY); the suite speaks plain webhook JSON.
type TestContext struct {
	baseURL string
	client  *http.Client

	status   int
	response map[string]any

	buttonID string
	modalID  string
}

// NewTestContext creates a context against E2E_BASE_URL, defaulting to
// a locally running server.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("E2E_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckHealth verifies the server is reachable.
func (tc *TestContext) CheckHealth() error {
	resp, err := tc.client.Get(tc.baseURL + "/healthz")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// PostInteraction sends one interaction payload and captures the
// response for later assertions.
func (tc *TestContext) PostInteraction(payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	resp, err := tc.client.Post(tc.baseURL+"/interactions", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post interaction: %w", err)
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.response = nil
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&tc.response); err != nil {
			return fmt.Errorf("decode interaction response: %w", err)
		}
	}
	return nil
}

// Status returns the last HTTP status.
func (tc *TestContext) Status() int { return tc.status }

// ResponseType returns the interaction response type of the last reply.
func (tc *TestContext) ResponseType() int {
	v, _ := tc.response["type"].(float64)
	return int(v)
}

func (tc *TestContext) data() map[string]any {
	d, _ := tc.response["data"].(map[string]any)
	return d
}

// Content returns the message content of the last reply.
func (tc *TestContext) Content() string {
	v, _ := tc.data()["content"].(string)
	return v
}

// Flags returns the message flags of the last reply.
func (tc *TestContext) Flags() int {
	v, _ := tc.data()["flags"].(float64)
	return int(v)
}

// ModalCustomID returns the custom_id of the modal in the last reply.
func (tc *TestContext) ModalCustomID() string {
	v, _ := tc.data()["custom_id"].(string)
	return v
}

// ButtonCustomID digs the custom_id of the first button out of the last
// reply's components.
func (tc *TestContext) ButtonCustomID() (string, error) {
	rows, _ := tc.data()["components"].([]any)
	for _, row := range rows {
		rowMap, _ := row.(map[string]any)
		inner, _ := rowMap["components"].([]any)
		for _, comp := range inner {
			compMap, _ := comp.(map[string]any)
			if id, ok := compMap["custom_id"].(string); ok && id != "" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("no button found in response")
}

// SetButtonID stores the continue button id for a later step.
func (tc *TestContext) SetButtonID(id string) { tc.buttonID = id }

// GetButtonID returns the stored continue button id.
func (tc *TestContext) GetButtonID() string { return tc.buttonID }

// SetModalID stores the stage-two modal id for a later step.
func (tc *TestContext) SetModalID(id string) { tc.modalID = id }

// GetModalID returns the stored stage-two modal id.
func (tc *TestContext) GetModalID() string { return tc.modalID }
