// Package embedding defines the structural contract memoria expects from an
// embedding provider, plus an HTTP-backed implementation grounded on the
// same request/response shape the teacher's embedding client used.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"memoria/internal/observability"
)

// Provider is the capability the ingest and research agents depend on to
// turn text into a fixed-length dense vector. Dimensions is constant per
// provider instance; callers must ensure the store's vector columns match.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Config describes an HTTP embedding endpoint, mirroring the teacher's
// config.EmbeddingConfig field layout so a caller's own config loader can
// unmarshal directly into it.
type Config struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Path      string `yaml:"path" json:"path"`
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key" json:"api_key"`
	APIHeader string `yaml:"api_header" json:"api_header"`
	Timeout   int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	Dims      int    `yaml:"dimensions" json:"dimensions"`
}

type embedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResp struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// HTTPProvider calls a configured OpenAI-style embeddings endpoint.
type HTTPProvider struct {
	cfg    Config
	client *http.Client
}

// NewHTTPProvider constructs a Provider against the given endpoint config.
// The client is instrumented with otelhttp so outbound embedding calls carry
// trace context the same way the teacher's own HTTP clients do, and the
// auth header is injected via observability.WithHeaders rather than set
// per-request.
func NewHTTPProvider(cfg Config) *HTTPProvider {
	client := observability.NewHTTPClient(nil)
	if header, value := authHeader(cfg); header != "" {
		client = observability.WithHeaders(client, map[string]string{header: value})
	}
	return &HTTPProvider{cfg: cfg, client: client}
}

// authHeader resolves the header/value pair EmbedBatch used to set
// per-request; "Authorization" gets the "Bearer " prefix, any other named
// header is passed through as-is, and an empty APIHeader means no auth
// header is sent at all.
func authHeader(cfg Config) (header, value string) {
	switch {
	case cfg.APIHeader == "Authorization":
		return "Authorization", "Bearer " + cfg.APIKey
	case cfg.APIHeader != "":
		return cfg.APIHeader, cfg.APIKey
	default:
		return "", ""
	}
}

func (p *HTTPProvider) Dimensions() int { return p.cfg.Dims }

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embedding: no inputs")
	}
	reqBody, err := json.Marshal(embedReq{Model: p.cfg.Model, Input: texts})
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(p.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := p.cfg.BaseURL + p.cfg.Path
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	// Auth header (if any) is injected by the client's WithHeaders transport,
	// set up once in NewHTTPProvider rather than per-request here.
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		observability.LoggerWithTrace(ctx).Warn().
			Int("status", resp.StatusCode).
			RawJSON("request", observability.RedactJSON(reqBody)).
			Msg("embedding: endpoint returned a non-2xx response")
		return nil, fmt.Errorf("embedding: endpoint error %s: %s", resp.Status, string(bodyBytes))
	}

	var er embedResp
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		n := len(bodyBytes)
		if n > 200 {
			n = 200
		}
		return nil, fmt.Errorf("embedding: parse response (input count %d, body %q): %w", len(texts), string(bodyBytes[:n]), err)
	}
	if len(er.Data) != len(texts) {
		return nil, fmt.Errorf("embedding: unexpected vector count: got %d, want %d", len(er.Data), len(texts))
	}
	out := make([][]float32, len(er.Data))
	for i := range er.Data {
		out[i] = er.Data[i].Embedding
	}
	return out, nil
}

// CheckReachability verifies the embedding endpoint is reachable by sending
// a small test request.
func CheckReachability(ctx context.Context, p *HTTPProvider) error {
	_, err := p.Embed(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embedding: reachability check failed: %w", err)
	}
	return nil
}
