package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIBase = "https://discord.com/api/v10"

// FollowupClient delivers messages through the interaction-token
// webhook endpoints after the initial response has been sent, and
// cleans up the intermediate message when configured to.
type FollowupClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewFollowupClient creates a FollowupClient against the public API.
// The base URL is overridable for tests.
func NewFollowupClient(logger *slog.Logger) *FollowupClient {
	return &FollowupClient{
		baseURL: defaultAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// WithBaseURL points the client at a different API base, for tests.
func (c *FollowupClient) WithBaseURL(base string) *FollowupClient {
	c.baseURL = base
	return c
}

type followupMessage struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// Send posts a follow-up message for the interaction identified by
// appID and token. Failures are logged and swallowed: by this point the
// outcome is already decided and there is no better channel to report on.
func (c *FollowupClient) Send(ctx context.Context, appID, interactionToken, content string, ephemeral bool) {
	msg := followupMessage{Content: content}
	if ephemeral {
		msg.Flags = ephemeralFlag
	}
	body, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "marshal follow-up message", "error", err)
		return
	}

	url := fmt.Sprintf("%s/webhooks/%s/%s", c.baseURL, appID, interactionToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.ErrorContext(ctx, "build follow-up request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "send follow-up message", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.ErrorContext(ctx, "follow-up message rejected", "status", resp.StatusCode)
	}
}

// DeleteOriginal removes the intermediate "processing" message. Best
// effort; a leftover message is cosmetic.
func (c *FollowupClient) DeleteOriginal(ctx context.Context, appID, interactionToken string) {
	url := fmt.Sprintf("%s/webhooks/%s/%s/messages/@original", c.baseURL, appID, interactionToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "build delete request", "error", err)
		return
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "delete intermediate message", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "delete intermediate message rejected", "status", resp.StatusCode)
	}
}
