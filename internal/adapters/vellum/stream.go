package vellum

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lively-to/lively/internal/core/domain"
)

// StreamingExecutor exposes the client's streaming mode behind the same
// Execute signature as the direct mode, so the caller picks one by config.
type StreamingExecutor struct {
	c *Client
}

// Streaming wraps a client in its streaming mode.
func Streaming(c *Client) StreamingExecutor {
	return StreamingExecutor{c: c}
}

// Execute runs the workflow via the streaming endpoint.
func (s StreamingExecutor) Execute(ctx context.Context, message, location string, history []domain.ChatTurn) (string, error) {
	return s.c.ExecuteStream(ctx, message, location, history)
}

// streamEvent is one newline-delimited event from the streaming endpoint.
// Partial events carry a named output delta; the terminal FULFILLED event
// carries the final outputs list.
type streamEvent struct {
	Type string `json:"type"`
	Data struct {
		State  string `json:"state"`
		Output *struct {
			Name  string          `json:"name"`
			Type  string          `json:"type"`
			State string          `json:"state"`
			Delta string          `json:"delta"`
			Value json.RawMessage `json:"value"`
		} `json:"output"`
		Outputs []finalOutput `json:"outputs"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

type finalOutput struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ExecuteStream invokes the workflow in streaming mode, accumulating deltas
// per output name until a terminal FULFILLED event overwrites them with the
// final output mapping. A stream that ends without a terminal event yields
// whatever was accumulated; it is an error only when zero outputs were ever
// produced. The result is re-wrapped in the same envelope shape the direct
// call returns, so the normalizer sees one format.
func (c *Client) ExecuteStream(ctx context.Context, message, location string, history []domain.ChatTurn) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(c.buildRequest(message, location, history)).
		SetDoNotParseResponse(true).
		Post("/v1/execute-workflow-stream")
	if err != nil {
		return "", fmt.Errorf("workflow stream transport: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return "", fmt.Errorf("workflow service returned status %d", resp.StatusCode())
	}

	acc := newAccumulator()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		line = bytes.TrimPrefix(line, []byte("data: "))
		if len(line) == 0 {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			c.log.Warn("skipping malformed stream event", "error", err)
			continue
		}

		if ev.Data.State == "REJECTED" {
			reason := ""
			if ev.Data.Error != nil {
				reason = ev.Data.Error.Message
			}
			return "", fmt.Errorf("workflow execution rejected: %s", reason)
		}

		acc.apply(ev)
	}
	if err := scanner.Err(); err != nil {
		// A broken stream still resolves to the accumulated partials below.
		c.log.Warn("workflow stream interrupted", "error", err)
	}

	outputs := acc.outputs()
	if len(outputs) == 0 {
		return "", fmt.Errorf("workflow stream ended with no outputs")
	}

	envelope := struct {
		Data struct {
			Outputs []finalOutput `json:"outputs"`
		} `json:"data"`
	}{}
	envelope.Data.Outputs = outputs

	raw, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshal stream envelope: %w", err)
	}
	return string(raw), nil
}

// accumulator gathers streamed outputs in delivery order.
type accumulator struct {
	order   []string
	partial map[string]*bytes.Buffer
	final   map[string]finalOutput
}

func newAccumulator() *accumulator {
	return &accumulator{
		partial: make(map[string]*bytes.Buffer),
		final:   make(map[string]finalOutput),
	}
}

func (a *accumulator) apply(ev streamEvent) {
	if out := ev.Data.Output; out != nil && out.Name != "" {
		a.track(out.Name)
		if out.Delta != "" {
			a.partial[out.Name].WriteString(out.Delta)
		}
		if len(out.Value) > 0 {
			a.final[out.Name] = finalOutput{Name: out.Name, Type: out.Type, Value: out.Value}
		}
	}

	// Terminal event: the final mapping wins over accumulated partials for
	// every name it carries.
	if ev.Data.State == "FULFILLED" {
		for _, out := range ev.Data.Outputs {
			a.track(out.Name)
			a.final[out.Name] = out
		}
	}
}

func (a *accumulator) track(name string) {
	if _, seen := a.partial[name]; !seen {
		a.partial[name] = &bytes.Buffer{}
		a.order = append(a.order, name)
	}
}

func (a *accumulator) outputs() []finalOutput {
	outs := make([]finalOutput, 0, len(a.order))
	for _, name := range a.order {
		if out, ok := a.final[name]; ok {
			if out.Type == "" {
				out.Type = detectType(out.Value)
			}
			outs = append(outs, out)
			continue
		}
		text := a.partial[name].String()
		if text == "" {
			continue
		}
		quoted, _ := json.Marshal(text)
		outs = append(outs, finalOutput{Name: name, Type: "STRING", Value: quoted})
	}
	return outs
}

// detectType tags an untyped final value: objects and arrays are JSON
// payloads, everything else is treated as a string output.
func detectType(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "JSON"
	}
	return "STRING"
}
