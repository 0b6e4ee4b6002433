package agents

import (
	"context"
	"slices"
	"time"

	"github.com/Chative-mealplan/server/internal/agent/cache"
	"github.com/Chative-mealplan/server/internal/agent/graph/prompts"
	"github.com/Chative-mealplan/server/internal/agent/model"
	"github.com/Chative-mealplan/server/internal/agent/retrieval"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

const DefaultRAGModel = "gemini-2.0-flash-lite"

var defaultRAGContext = []string{"Thông tin bổ sung về dinh dưỡng", "Thông tin về cách chế biến"}

// RAGProcessor summarises the retrieved passages into a reasoning trace.
// Results are cached per query.
type RAGProcessor struct {
	gen   Generator
	cache *cache.Cache
	web   WebSearcher
	now   func() time.Time
}

// NewRAGProcessor builds the processor; web may be nil.
func NewRAGProcessor(gen Generator, c *cache.Cache, web WebSearcher) *RAGProcessor {
	return &RAGProcessor{gen: gen, cache: c, web: web, now: time.Now}
}

func (r *RAGProcessor) Name() string { return model.AgentRAG }

func (r *RAGProcessor) Process(ctx context.Context, s *model.PipelineState, rc *RunContext) (*model.PipelineState, error) {
	out := s.Clone()
	key := cache.Key(cache.NamespaceRAG, s.Query)
	if hit, ok := cache.GetAs[*model.RAGResult](r.cache, cache.NamespaceRAG, key); ok {
		logx.Debug().Str("run_id", rc.runID()).Str("agent", r.Name()).Msg("using cached RAG result")
		out.RAG = hit
		return out, nil
	}

	passages := defaultRAGContext
	if len(s.RetrievedContext) > 0 {
		passages = s.RetrievedContext
	}

	var web []string
	if rc != nil && rc.WebSearchEnabled && r.web != nil {
		found, err := r.web.Search(ctx, s.Query)
		if err != nil {
			logx.Warn().Err(err).Str("run_id", rc.runID()).Str("agent", r.Name()).Msg("web search failed")
		} else {
			web = found
		}
	}

	prompt, err := prompts.RenderRAG(ctx, s.Query, retrieval.FormatContext(s.RetrievedContext), web)
	var reasoning string
	if err == nil {
		reasoning, err = r.gen.Generate(ctx, prompt, model.GenerateOptions{
			Temperature: 0.3,
			ModelID:     rc.ModelFor(model.AgentRAG, DefaultRAGModel),
			Usage:       rc.usage(),
		})
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logx.Error().Err(err).Str("run_id", rc.runID()).Str("agent", r.Name()).Msg("Error in RAG processing")
		out.RAG = &model.RAGResult{
			Reasoning:   "Lỗi khi truy xuất thông tin: " + err.Error(),
			Context:     slices.Clone(passages),
			RetrievedAt: r.now(),
		}
		return out, nil
	}

	result := &model.RAGResult{
		Reasoning:   reasoning,
		Context:     slices.Clone(passages),
		RetrievedAt: r.now(),
	}
	r.cache.Set(cache.NamespaceRAG, key, result)
	out.RAG = result
	return out, nil
}

func (r *RAGProcessor) Diagnostic(s *model.PipelineState) string {
	if s.RAG == nil {
		return ""
	}
	return s.RAG.Reasoning
}
