package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/salesreport/api"
	"github.com/TFMV/salesreport/pkg/store"
)

func seededStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sales_data.db")
	require.NoError(t, store.SeedFile(ctx, store.BackendSQLite, path, store.ReferenceDataset()))
	s, err := store.Open(ctx, store.Config{Driver: store.BackendSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, s *api.Server, target string) (int, string) {
	t.Helper()
	resp, err := s.GetApp().Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// TestNewServer ensures that creating a new server does not return a nil instance
func TestNewServer(t *testing.T) {
	s := api.NewServer(api.ServerOptions{})
	require.NotNil(t, s, "Expected a non-nil server instance")
}

// TestHealthEndpoint checks if the /health endpoint returns "OK"
func TestHealthEndpoint(t *testing.T) {
	code, body := get(t, api.NewServer(api.ServerOptions{}), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)
}

// versionResponse is used for JSON unmarshalling in the /version endpoint test
type versionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Time    string `json:"time"`
}

func TestVersionEndpoint(t *testing.T) {
	code, body := get(t, api.NewServer(api.ServerOptions{}), "/version")
	require.Equal(t, http.StatusOK, code)

	var v versionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	assert.Equal(t, "Sales Report API", v.Service)
	assert.NotEmpty(t, v.Version)
	assert.NotEmpty(t, v.Build)
	assert.NotEmpty(t, v.Time)
}

func TestReportCSV(t *testing.T) {
	s := api.NewServer(api.ServerOptions{Store: seededStore(t)})

	for _, engine := range []string{"query", "transform"} {
		t.Run(engine, func(t *testing.T) {
			code, body := get(t, s, "/report?engine="+engine)
			require.Equal(t, http.StatusOK, code, body)
			assert.Equal(t, "Customer;Age;Item;Quantity\n"+
				"1;21;x;10\n"+
				"2;23;x;1\n"+
				"2;23;y;1\n"+
				"2;23;z;1\n"+
				"3;35;z;2\n", body)
		})
	}
}

func TestReportJSONWithRange(t *testing.T) {
	s := api.NewServer(api.ServerOptions{Store: seededStore(t)})

	code, body := get(t, s, "/report?engine=transform&format=json&age_min=30&age_max=40")
	require.Equal(t, http.StatusOK, code, body)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "z", rows[0]["Item"])
	assert.EqualValues(t, 2, rows[0]["Quantity"])
}

func TestReportBadRequests(t *testing.T) {
	s := api.NewServer(api.ServerOptions{Store: seededStore(t)})

	for _, target := range []string{
		"/report?engine=spark",
		"/report?age_min=abc",
		"/report?age_min=40&age_max=30",
		"/report?format=parquet",
	} {
		code, body := get(t, s, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Contains(t, body, `"error"`, target)
	}
}

func TestReportWithoutStore(t *testing.T) {
	code, _ := get(t, api.NewServer(api.ServerOptions{}), "/report")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReportSchemaError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open(store.BackendSQLite, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE Customer (customer_id INTEGER, age INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	st, err := store.Open(context.Background(), store.Config{Driver: store.BackendSQLite, Path: path})
	require.NoError(t, err)
	defer st.Close()

	code, body := get(t, api.NewServer(api.ServerOptions{Store: st}), "/report")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "Items")
}

func TestMetricsEndpoint(t *testing.T) {
	s := api.NewServer(api.ServerOptions{Store: seededStore(t)})
	code, _ := get(t, s, "/report")
	require.Equal(t, http.StatusOK, code)

	code, body := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `salesreport_runs_total{engine="query",outcome="success"} 1`)
}

// TestShutdown verifies that calling Shutdown on the server does not return an error
func TestShutdown(t *testing.T) {
	s := api.NewServer(api.ServerOptions{})
	assert.NoError(t, s.Shutdown(context.Background()))
}
