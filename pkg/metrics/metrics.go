package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AgentRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_agent_runs_total",
			Help: "Agent invocations by final status",
		},
		[]string{"agent", "status"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealplan_agent_duration_seconds",
			Help:    "Agent processing time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"agent"},
	)

	GatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_gateway_calls_total",
			Help: "Model attempts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	GatewayFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_gateway_fallbacks_total",
			Help: "Fallback attempts triggered after a failed model call",
		},
		[]string{"backend"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_cache_lookups_total",
			Help: "Result cache lookups by namespace and result",
		},
		[]string{"namespace", "result"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_pipeline_runs_total",
			Help: "Pipeline runs by flow and terminal status",
		},
		[]string{"flow", "status"},
	)

	LLMCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_llm_cost_usd_total",
			Help: "Accumulated model usage cost in USD",
		},
		[]string{"model"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
