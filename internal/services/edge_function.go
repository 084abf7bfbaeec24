package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

// maxEdgeResponse bounds what is read from the function. A letter is a few
// kilobytes.
const maxEdgeResponse = 1 << 20

// EdgeFunctionGenerator delegates generation to a Supabase edge function
// that wraps the hosted model.
type EdgeFunctionGenerator struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	maxBody    int64
}

func NewEdgeFunctionGenerator(supabaseURL, apiKey, function, model string, timeout time.Duration) *EdgeFunctionGenerator {
	return &EdgeFunctionGenerator{
		url:        strings.TrimRight(supabaseURL, "/") + "/functions/v1/" + function,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxEdgeResponse,
	}
}

type edgeResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Generate posts the request and waits for the whole letter. The function
// does not stream, so progress only jumps to 100 at the end.
func (g *EdgeFunctionGenerator) Generate(ctx context.Context, req models.GenerationRequest, progress workflow.ProgressFunc) (string, error) {
	if req.Model == "" {
		req.Model = g.model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("apikey", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(raw)) > g.maxBody {
		return "", fmt.Errorf("generation function response exceeds %d bytes", g.maxBody)
	}

	var out edgeResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != "" {
			return "", fmt.Errorf("%s", out.Error)
		}
		return "", fmt.Errorf("generation function returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%s", out.Error)
	}
	if strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("no content received from the generation function")
	}
	if progress != nil {
		progress(100)
	}
	return out.Content, nil
}
