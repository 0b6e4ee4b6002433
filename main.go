package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/Chative-mealplan/server/internal/agent/graph"
	"github.com/Chative-mealplan/server/internal/agent/model"
	"github.com/Chative-mealplan/server/internal/agent/repo"
	"github.com/Chative-mealplan/server/internal/agent/retrieval"
	"github.com/Chative-mealplan/server/internal/core"
	errx "github.com/Chative-mealplan/server/internal/core/error"
	logx "github.com/Chative-mealplan/server/pkg/logger"
	"github.com/Chative-mealplan/server/pkg/metrics"
	pkgredis "github.com/Chative-mealplan/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the planner, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// Infrastructure
	Redis pkgredis.Config

	// Pipeline
	Gateway   model.GatewayConfig
	Cache     model.CacheConfig
	Catalog   model.CatalogConfig
	Retrieval model.RetrievalConfig
	Memory    model.MemoryConfig
}

type cliFlags struct {
	historyFile string
	models      map[string]string
	webSearch   bool
	reasoning   bool
	docFile     string
	userID      string
	verbose     bool
}

func main() {
	flags := &cliFlags{}
	root := &cobra.Command{
		Use:          "mealplan [message...]",
		Short:        "Plan Vietnamese meals with a pipeline of cooperating agents",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, strings.Join(args, " "))
		},
	}
	root.Flags().StringVar(&flags.historyFile, "history", "", "JSON file with the previous chat turns")
	root.Flags().StringToStringVar(&flags.models, "model", nil, "model override per agent, e.g. --model ReasoningPlanner=gemini-2.5-flash")
	root.Flags().BoolVar(&flags.webSearch, "web-search", false, "allow agents to consult web search")
	root.Flags().BoolVar(&flags.reasoning, "reasoning", true, "stream model tokens and agent diagnostics")
	root.Flags().StringVar(&flags.docFile, "doc", "", "text file to use as the active reference document")
	root.Flags().StringVar(&flags.userID, "user", "", "user id for interaction memory")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		var ae *errx.AgentError
		if errors.As(err, &ae) {
			fmt.Fprintf(os.Stderr, "Xin lỗi, đã có lỗi xảy ra ở bước %s. Vui lòng thử lại.\n", ae.Agent)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, flags *cliFlags, message string) error {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		return fmt.Errorf("failed to process environment config: %w", err)
	}
	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(envCfg.Environment),
		Quiet:       !flags.verbose,
	})

	interactions, closeRepo, err := newInteractionRepo(ctx, envCfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if envCfg.MetricsAddr != "" {
		srv := serveMetrics(envCfg.MetricsAddr)
		defer srv.Close()
	}

	docs := retrieval.NewStore(envCfg.Retrieval.ChunkSize)
	if flags.docFile != "" {
		text, err := os.ReadFile(flags.docFile)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		doc := docs.Add(filepath.Base(flags.docFile), string(text))
		if err := docs.SetActive(doc.ID); err != nil {
			return err
		}
	}

	history, err := loadHistory(flags.historyFile)
	if err != nil {
		return err
	}

	orch, err := graph.BuildPipeline(ctx, graph.Config{
		Gateway:         envCfg.Gateway,
		Cache:           envCfg.Cache,
		Catalog:         envCfg.Catalog,
		Retrieval:       envCfg.Retrieval,
		Memory:          envCfg.Memory,
		InteractionRepo: interactions,
		Documents:       docs,
	})
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	reasoning := flags.reasoning
	resp, err := orch.ProcessUserMessage(ctx, model.Request{
		Message:        message,
		History:        history,
		OnProgress:     printProgress,
		OnToken:        newTokenPrinter(),
		ModelSelection: flags.models,
		UserID:         flags.userID,
		Options: model.RequestOptions{
			WebSearchEnabled: flags.webSearch,
			ReasoningEnabled: &reasoning,
		},
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// newInteractionRepo uses Redis when REDIS_URL is set and process memory
// otherwise.
func newInteractionRepo(ctx context.Context, cfg AppConfig) (model.InteractionRepository, func(), error) {
	if !cfg.Redis.Enabled() {
		return repo.NewMemoryInteractionRepository(), func() {}, nil
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	logx.Debug().Msg("Connected to Redis successfully")
	return repo.NewRedisInteractionRepository(rdb, cfg.Memory.TTL), func() { _ = rdb.Close() }, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	return srv
}

func loadHistory(path string) ([]model.ChatTurn, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []model.ChatTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return turns, nil
}

func printProgress(agent string, status model.AgentStatus, output string) {
	fmt.Fprintf(os.Stderr, "\n[%s] %s\n", agent, status)
	if status == model.StatusError && output != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", output)
	}
}

// newTokenPrinter prints streamed tokens, starting a new labelled line
// whenever the producing agent changes.
func newTokenPrinter() model.TokenSink {
	var mu sync.Mutex
	last := ""
	return model.TokenSinkFunc(func(agent, token string) {
		mu.Lock()
		defer mu.Unlock()
		if agent != last {
			fmt.Fprintf(os.Stderr, "\n%s> ", agent)
			last = agent
		}
		fmt.Fprint(os.Stderr, token)
	})
}
