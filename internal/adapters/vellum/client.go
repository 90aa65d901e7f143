// Package vellum implements the workflow gateway against the hosted Vellum
// workflow-execution API. It returns the raw response envelope untouched; all
// classification happens in the normalizer.
package vellum

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/lively-to/lively/internal/core/domain"
)

// Config carries the connection settings for one workflow deployment.
type Config struct {
	APIKey       string
	BaseURL      string
	DeploymentID string
	ReleaseTag   string
	Timeout      time.Duration
}

// Client implements ports.WorkflowExecutor. It never retries: a failed
// execution is reported once and the caller decides what to surface.
type Client struct {
	http         *resty.Client
	deploymentID string
	releaseTag   string
	log          *slog.Logger
}

// New creates a workflow client. The request timeout is enforced here since
// the upstream service sets none of its own.
func New(cfg Config) *Client {
	if cfg.ReleaseTag == "" {
		cfg.ReleaseTag = "LATEST"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("X-API-KEY", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:         hc,
		deploymentID: cfg.DeploymentID,
		releaseTag:   cfg.ReleaseTag,
		log:          slog.Default(),
	}
}

type workflowInput struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type chatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type executeRequest struct {
	WorkflowDeploymentID string          `json:"workflow_deployment_id"`
	ReleaseTag           string          `json:"release_tag"`
	Inputs               []workflowInput `json:"inputs"`
}

// buildRequest assembles the structured workflow inputs: location, chat
// history, user message, and timestamp. An empty history is sent as an empty
// list, not a synthetic turn echoing the message (the message is already its
// own input).
func (c *Client) buildRequest(message, location string, history []domain.ChatTurn) executeRequest {
	msgs := make([]chatMessage, 0, len(history))
	for _, turn := range history {
		role := "ASSISTANT"
		if turn.Role == domain.RoleUser {
			role = "USER"
		}
		msgs = append(msgs, chatMessage{Role: role, Text: turn.Content})
	}

	return executeRequest{
		WorkflowDeploymentID: c.deploymentID,
		ReleaseTag:           c.releaseTag,
		Inputs: []workflowInput{
			{Type: "STRING", Name: "location", Value: location},
			{Type: "CHAT_HISTORY", Name: "chat_history", Value: msgs},
			{Type: "STRING", Name: "message", Value: message},
			{Type: "STRING", Name: "timestamp", Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}
}

// Execute invokes the workflow synchronously and returns the raw response
// body. Transport failures, non-2xx statuses, and explicitly rejected
// executions all come back as errors; nothing panics past this boundary.
func (c *Client) Execute(ctx context.Context, message, location string, history []domain.ChatTurn) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(c.buildRequest(message, location, history)).
		Post("/v1/execute-workflow")
	if err != nil {
		return "", fmt.Errorf("workflow transport: %w", err)
	}
	if resp.IsError() {
		c.log.Error("workflow call failed", "status", resp.StatusCode(), "body", truncate(resp.String(), 512))
		return "", fmt.Errorf("workflow service returned status %d", resp.StatusCode())
	}

	body := resp.String()
	if gjson.Get(body, "data.state").String() == "REJECTED" {
		reason := gjson.Get(body, "data.error.message").String()
		c.log.Error("workflow execution rejected", "reason", reason)
		return "", fmt.Errorf("workflow execution rejected: %s", reason)
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
