// Package agent invokes the conversational agent runtime over HTTP. The
// runtime endpoint is resolved from a parameter store entry at first use and
// cached for the process lifetime.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultEndpointParam is the parameter holding the agent runtime invoke URL.
const DefaultEndpointParam = "/rita/agent/invoke-url"

const invokeTimeout = 5 * time.Minute

// ParameterSource resolves configuration parameters; it fails on missing or
// empty values.
type ParameterSource interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Gateway is an HTTP client for the agent runtime.
type Gateway struct {
	params        ParameterSource
	endpointParam string
	httpClient    *http.Client
	logger        *slog.Logger

	mu       sync.Mutex
	endpoint string
}

func New(params ParameterSource, endpointParam string, logger *slog.Logger) *Gateway {
	if endpointParam == "" {
		endpointParam = DefaultEndpointParam
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		params:        params,
		endpointParam: endpointParam,
		httpClient:    &http.Client{Timeout: invokeTimeout},
		logger:        logger,
	}
}

// SetHTTPClient overrides the transport. Intended for tests.
func (g *Gateway) SetHTTPClient(client *http.Client) {
	g.httpClient = client
}

func (g *Gateway) resolveEndpoint(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.endpoint != "" {
		return g.endpoint, nil
	}

	endpoint, err := g.params.GetParameter(ctx, g.endpointParam)
	if err != nil {
		return "", fmt.Errorf("failed to resolve agent endpoint: %w", err)
	}
	g.endpoint = endpoint
	return endpoint, nil
}

// Configured reports whether a runtime endpoint can be resolved.
func (g *Gateway) Configured(ctx context.Context) bool {
	_, err := g.resolveEndpoint(ctx)
	return err == nil
}

type invokeRequest struct {
	Goal string `json:"goal"`
}

type invokeResponse struct {
	Completion json.RawMessage `json:"completion"`
	Message    string          `json:"message"`
}

// Invoke sends a goal to the agent runtime and returns its completion text.
// The bearer token, when present, is forwarded unchanged.
func (g *Gateway) Invoke(ctx context.Context, goal, bearerToken string) (string, error) {
	endpoint, err := g.resolveEndpoint(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(invokeRequest{Goal: goal})
	if err != nil {
		return "", fmt.Errorf("failed to encode invocation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/invocations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build invocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	g.logger.Info("invoking agent runtime", "endpoint", endpoint)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent invocation failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent runtime returned %d: %s", resp.StatusCode, payload)
	}

	return extractCompletion(payload), nil
}

// extractCompletion pulls the completion text out of the runtime's response.
// The runtime answers either {"completion": {"message": "..."}} or
// {"completion": "..."} or {"message": "..."}; anything else passes through
// as raw text.
func extractCompletion(payload []byte) string {
	var parsed invokeResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return string(payload)
	}

	if len(parsed.Completion) > 0 {
		var text string
		if err := json.Unmarshal(parsed.Completion, &text); err == nil {
			return text
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(parsed.Completion, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return string(payload)
}
