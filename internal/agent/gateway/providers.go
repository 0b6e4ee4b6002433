package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	logx "github.com/Chative-mealplan/server/pkg/logger"
)

// Provider hands out chat models of one backend.
type Provider interface {
	ChatModel(ctx context.Context, modelID string) (einomodel.BaseChatModel, error)
}

// modelCache memoises chat models per id.
type modelCache struct {
	mu     sync.Mutex
	models map[string]einomodel.BaseChatModel
}

func (c *modelCache) getOrCreate(id string, create func() (einomodel.BaseChatModel, error)) (einomodel.BaseChatModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[id]; ok {
		return m, nil
	}
	m, err := create()
	if err != nil {
		return nil, err
	}
	if c.models == nil {
		c.models = make(map[string]einomodel.BaseChatModel)
	}
	c.models[id] = m
	return m, nil
}

// GeminiProvider shares one genai client, created on first use, across all
// Gemini models.
type GeminiProvider struct {
	APIKey    string
	BaseURL   string
	MaxTokens int

	clientOnce sync.Once
	client     *genai.Client
	clientErr  error
	cache      modelCache
}

func (p *GeminiProvider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.clientOnce.Do(func() {
		clientCfg := &genai.ClientConfig{
			APIKey:  p.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if p.BaseURL != "" {
			clientCfg.HTTPOptions.BaseURL = p.BaseURL
		}
		p.client, p.clientErr = genai.NewClient(ctx, clientCfg)
		if p.clientErr != nil {
			logx.Error().Err(p.clientErr).Msg("Error creating Gemini client")
			p.clientErr = fmt.Errorf("error creating Gemini client: %w", p.clientErr)
		}
	})
	return p.client, p.clientErr
}

func (p *GeminiProvider) ChatModel(ctx context.Context, modelID string) (einomodel.BaseChatModel, error) {
	client, err := p.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	return p.cache.getOrCreate(modelID, func() (einomodel.BaseChatModel, error) {
		cfg := &gemini.Config{
			Client: client,
			Model:  modelID,
		}
		if p.MaxTokens > 0 {
			cfg.MaxTokens = &p.MaxTokens
		}
		cm, err := gemini.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("error creating Gemini model %s: %w", modelID, err)
		}
		return cm, nil
	})
}

// HuggingFaceProvider reaches open models through the OpenAI-compatible
// inference router.
type HuggingFaceProvider struct {
	Token     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration

	cache modelCache
}

func (p *HuggingFaceProvider) ChatModel(ctx context.Context, modelID string) (einomodel.BaseChatModel, error) {
	if p.Token == "" {
		return nil, fmt.Errorf("no inference token configured for %s", modelID)
	}
	return p.cache.getOrCreate(modelID, func() (einomodel.BaseChatModel, error) {
		cfg := &openai.ChatModelConfig{
			BaseURL: p.BaseURL,
			APIKey:  p.Token,
			Model:   modelID,
			Timeout: p.Timeout,
		}
		if p.MaxTokens > 0 {
			cfg.MaxTokens = &p.MaxTokens
		}
		cm, err := openai.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("error creating inference model %s: %w", modelID, err)
		}
		return cm, nil
	})
}
