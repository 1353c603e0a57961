package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Gemini calls a generateContent endpoint.
type Gemini struct {
	opts    Options
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	SystemInstruction content           `json:"systemInstruction"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewGemini builds a backend from opts. A nil logger is replaced by a no-op one.
func NewGemini(opts Options, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m := FindModel(opts.Model); m != nil {
		opts.Model = m.ID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	g := &Gemini{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "assistant",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
		// malformed answers do not trip the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMalformedResponse)
		},
	})
	return g
}

// Complete sends req and decodes the answer.
func (g *Gemini) Complete(ctx context.Context, req Request) (*Reply, error) {
	if g.opts.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	tmpl, err := LoadTemplate(req.Mode)
	if err != nil {
		return nil, err
	}
	body := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: Render(tmpl.Content, map[string]string{
			"ontology": Truncate(req.Ontology, g.opts.MaxContext),
		})}}},
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Input}}}},
	}
	if req.Mode == ModeQuery {
		body.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.post(ctx, body)
	})
	if err != nil {
		g.logger.Warn("assistant call failed",
			zap.String("mode", string(req.Mode)), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	text := out.(string)
	g.logger.Debug("assistant answered",
		zap.String("mode", string(req.Mode)), zap.Int("chars", len(text)), zap.Duration("elapsed", time.Since(start)))

	reply := &Reply{Text: text}
	if req.Mode == ModeQuery {
		r, err := ParseResult(text)
		if err != nil {
			return nil, err
		}
		reply.Result = r
	}
	return reply, nil
}

func (g *Gemini) post(ctx context.Context, body generateRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	url := strings.TrimRight(g.opts.Endpoint, "/") + "/models/" + g.opts.Model + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.opts.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty answer", ErrMalformedResponse)
	}
	return sb.String(), nil
}
