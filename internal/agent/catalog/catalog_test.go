package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-mealplan/server/internal/agent/model"
	logx "github.com/Chative-mealplan/server/pkg/logger"
)

func TestMain(m *testing.M) {
	logx.Disable()
	m.Run()
}

func TestLoad_Embedded(t *testing.T) {
	meals := NewLoader(model.CatalogConfig{}).Load(context.Background())
	require.Len(t, meals, 10)
	assert.Equal(t, "Phở Gà", meals[0].Name)
	assert.Equal(t, 450.0, meals[0].Nutrition.Calories)
	assert.NotEmpty(t, meals[0].Ingredients)
	assert.Equal(t, meals, Sample())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"meals":[{"name":"Xôi Gà","price":25000}]}`), 0o600))

	meals := NewLoader(model.CatalogConfig{Source: path}).Load(context.Background())
	require.Len(t, meals, 1)
	assert.Equal(t, "Xôi Gà", meals[0].Name)
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/recommendations.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"meals":[{"name":"Chả Giò"},{"name":"Cháo Gà"}]}`))
	}))
	defer srv.Close()

	meals := NewLoader(model.CatalogConfig{Source: srv.URL + "/data/recommendations.json"}).Load(context.Background())
	require.Len(t, meals, 2)
	assert.Equal(t, "Cháo Gà", meals[1].Name)

	missing := NewLoader(model.CatalogConfig{Source: srv.URL + "/nope.json"}).Load(context.Background())
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestLoad_FailuresYieldEmptyCatalog(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o600))

	for _, src := range []string{bad, filepath.Join(t.TempDir(), "absent.json")} {
		meals := NewLoader(model.CatalogConfig{Source: src}).Load(context.Background())
		assert.NotNil(t, meals, src)
		assert.Empty(t, meals, src)
	}
}
