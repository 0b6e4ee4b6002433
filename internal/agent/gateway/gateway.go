// Package gateway puts the Gemini and open-model backends behind one
// Generate call with per-backend fallback chains and token streaming.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
	"github.com/Chative-mealplan/server/pkg/metrics"
)

// DefaultDegradedMessage is returned when every model in the chain failed.
const DefaultDegradedMessage = "Không thể kết nối với dịch vụ mô hình. Đang sử dụng phản hồi mặc định."

// ErrModelsExhausted is returned instead of the degraded message when the
// caller asked for GenerateOptions.NoDegrade.
var ErrModelsExhausted = errors.New("all models in the fallback chain failed")

type Option func(*Gateway)

// WithProvider replaces the provider of one backend.
func WithProvider(b Backend, p Provider) Option {
	return func(g *Gateway) { g.providers[b] = p }
}

func WithModelTable(t *ModelTable) Option {
	return func(g *Gateway) { g.table = t }
}

// Gateway is safe for concurrent use. Apart from the lazily created
// backend clients it keeps no state between calls.
type Gateway struct {
	table     *ModelTable
	providers map[Backend]Provider
	timeout   time.Duration
	degraded  string
}

func New(cfg model.GatewayConfig, opts ...Option) *Gateway {
	g := &Gateway{
		table: NewModelTable(cfg.ExtraGeminiModels...),
		providers: map[Backend]Provider{
			BackendGemini: &GeminiProvider{
				APIKey:    cfg.GeminiAPIKey,
				BaseURL:   cfg.GeminiBaseURL,
				MaxTokens: cfg.MaxTokens,
			},
			BackendHuggingFace: &HuggingFaceProvider{
				Token:     cfg.HFToken,
				BaseURL:   cfg.HFBaseURL,
				MaxTokens: cfg.MaxTokens,
				Timeout:   cfg.CallTimeout,
			},
		},
		timeout:  cfg.CallTimeout,
		degraded: cfg.DegradedMessage,
	}
	if g.timeout <= 0 {
		g.timeout = 60 * time.Second
	}
	if g.degraded == "" {
		g.degraded = DefaultDegradedMessage
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Table exposes the routing table.
func (g *Gateway) Table() *ModelTable {
	return g.table
}

// Generate runs prompt on opts.ModelID, walking the fallback chain on
// failure. When the chain is exhausted it returns the degraded message with
// a nil error, unless opts.NoDegrade is set. Cancellation of ctx stops the
// chain and returns ctx.Err().
//
// With opts.OnToken set, tokens are pushed in generation order; a model
// without token streaming pushes its whole answer once.
func (g *Gateway) Generate(ctx context.Context, prompt string, opts model.GenerateOptions) (string, error) {
	var lastErr error
	for i, d := range g.table.Attempts(opts.ModelID) {
		if i > 0 {
			metrics.GatewayFallbacks.WithLabelValues(d.Backend.String()).Inc()
			logx.Debug().Str("model", d.ID).Str("backend", d.Backend.String()).Msg("trying fallback model")
		}

		text, err := g.attempt(ctx, d, prompt, opts)
		if err == nil {
			metrics.GatewayCalls.WithLabelValues(d.Backend.String(), "ok").Inc()
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.GatewayCalls.WithLabelValues(d.Backend.String(), "canceled").Inc()
			return "", ctxErr
		}
		metrics.GatewayCalls.WithLabelValues(d.Backend.String(), "error").Inc()
		logx.Warn().Err(err).Str("model", d.ID).Str("backend", d.Backend.String()).Msg("model call failed")
		lastErr = err
	}

	if opts.NoDegrade {
		return "", fmt.Errorf("%w: %w", ErrModelsExhausted, lastErr)
	}
	logx.Error().Err(lastErr).Str("model", opts.ModelID).Msg("fallback chain exhausted, returning degraded message")
	if opts.OnToken != nil {
		opts.OnToken(g.degraded)
	}
	return g.degraded, nil
}

func (g *Gateway) attempt(ctx context.Context, d ModelDescriptor, prompt string, opts model.GenerateOptions) (string, error) {
	p, ok := g.providers[d.Backend]
	if !ok || p == nil {
		return "", fmt.Errorf("no provider for backend %s", d.Backend)
	}
	cm, err := p.ChatModel(ctx, d.ID)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	// Handlers installed by the caller's run are reused under this model's name.
	callCtx = callbacks.ReuseHandlers(callCtx, &callbacks.RunInfo{
		Name:      d.ID,
		Type:      d.Backend.String(),
		Component: components.ComponentOfChatModel,
	})

	msgs := []*schema.Message{schema.UserMessage(prompt)}
	callOpts := []einomodel.Option{einomodel.WithTemperature(opts.Temperature)}

	if opts.OnToken != nil && d.Streaming {
		text, usage, err := streamCall(callCtx, cm, msgs, callOpts, opts.OnToken)
		if err == nil {
			g.recordUsage(d.ID, usage, opts.Usage)
			return text, nil
		}
		if !errors.Is(err, errStreamSetup) {
			return "", err
		}
		logx.Debug().Err(err).Str("model", d.ID).Msg("stream unavailable, generating whole answer")
	}

	msg, err := cm.Generate(callCtx, msgs, callOpts...)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("model %s returned no message", d.ID)
	}
	if msg.ResponseMeta != nil {
		g.recordUsage(d.ID, msg.ResponseMeta.Usage, opts.Usage)
	}
	if opts.OnToken != nil {
		opts.OnToken(msg.Content)
	}
	return msg.Content, nil
}

var errStreamSetup = errors.New("stream setup failed")

// streamCall forwards chunks to onToken as they arrive. A failure before
// the first chunk is reported as errStreamSetup so the caller can retry the
// same model without streaming.
func streamCall(ctx context.Context, cm einomodel.BaseChatModel, msgs []*schema.Message, opts []einomodel.Option, onToken func(string)) (string, *schema.TokenUsage, error) {
	sr, err := cm.Stream(ctx, msgs, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", errStreamSetup, err)
	}
	defer sr.Close()

	var (
		b      strings.Builder
		usage  *schema.TokenUsage
		chunks int
	)
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if chunks == 0 {
				return "", nil, fmt.Errorf("%w: %w", errStreamSetup, err)
			}
			return "", nil, fmt.Errorf("stream interrupted: %w", err)
		}
		chunks++
		if chunk == nil {
			continue
		}
		if chunk.ResponseMeta != nil && chunk.ResponseMeta.Usage != nil {
			usage = chunk.ResponseMeta.Usage
		}
		if chunk.Content == "" {
			continue
		}
		b.WriteString(chunk.Content)
		onToken(chunk.Content)
	}
	return b.String(), usage, nil
}

func (g *Gateway) recordUsage(modelID string, usage *schema.TokenUsage, tracker *model.UsageTracker) {
	if usage == nil {
		return
	}
	cost := tracker.Add(modelID, usage)
	if tracker == nil {
		_, _, cost = model.ComputeCost(usage, model.ResolvePricing(modelID))
	}
	if cost > 0 {
		metrics.LLMCost.WithLabelValues(modelID).Add(cost)
	}
}
