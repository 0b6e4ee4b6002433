// Package catalog loads the pool of dishes a run plans from.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Chative-mealplan/server/internal/agent/model"
	errx "github.com/Chative-mealplan/server/internal/core/error"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

//go:embed data/recommendations.json
var embedded []byte

const maxCatalogBytes = 8 << 20

type document struct {
	Meals []model.MealCandidate `json:"meals"`
}

// Loader reads the catalog from its configured source on every Load. The
// source is either empty (the embedded sample catalog), a file path or an
// http(s) URL.
type Loader struct {
	source string
	client *http.Client
}

func NewLoader(cfg model.CatalogConfig) *Loader {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{
		source: strings.TrimSpace(cfg.Source),
		client: &http.Client{Timeout: timeout},
	}
}

// Load never fails: any error is logged and yields an empty catalog so a
// run can still proceed.
func (l *Loader) Load(ctx context.Context) []model.MealCandidate {
	meals, err := l.load(ctx)
	if err != nil {
		logx.Error().Err(err).Str("source", l.source).Msg("Failed to load meal catalog")
		return []model.MealCandidate{}
	}
	return meals
}

func (l *Loader) load(ctx context.Context) ([]model.MealCandidate, error) {
	var (
		raw []byte
		err error
	)
	switch {
	case l.source == "":
		raw = embedded
	case strings.HasPrefix(l.source, "http://"), strings.HasPrefix(l.source, "https://"):
		raw, err = l.fetch(ctx)
	default:
		raw, err = os.ReadFile(l.source)
	}
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errx.WrapUpstream(err, "failed to load meal recommendations")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errx.WrapUpstream(fmt.Errorf("unexpected status %d", resp.StatusCode), "failed to load meal recommendations")
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
}

// Parse decodes a {"meals": [...]} document.
func Parse(raw []byte) ([]model.MealCandidate, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if doc.Meals == nil {
		return []model.MealCandidate{}, nil
	}
	return doc.Meals, nil
}

// Sample returns the embedded sample catalog.
func Sample() []model.MealCandidate {
	meals, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return meals
}
