package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"Recurra/internal/domain/recurring"
	"Recurra/internal/infrastructure"
	"Recurra/internal/logger"
	"Recurra/internal/metrics"
	"Recurra/internal/middleware"
	"Recurra/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var fixedNow = time.Date(2026, time.April, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := infrastructure.NewMemoryRepository()
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	svc := recurring.NewService(store, time.UTC)
	svc.Now = func() time.Time { return fixedNow }
	gen := recurring.NewGenerator(store, recurring.GeneratorOptions{
		Recorder: collector,
		Workers:  2,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})

	router := gin.New()
	routes.Register(router, &routes.Handler{RecurringService: svc, Generator: gen}, middleware.NewRateLimiter(1000, 1000), reg)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	return payload
}

func createMonthly(t *testing.T, router *gin.Engine, day int) string {
	t.Helper()
	body := `{"name":"Aluguel","category":"Moradia","amount":"1500.00","frequency":"MONTHLY","day_of_month":` +
		jsonInt(day) + `,"start_date":"2026-04-01"}`
	rec := doRequest(t, router, http.MethodPost, "/api/recurring", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode(t, rec)["recurring"].(map[string]any)
	return created["id"].(string)
}

func jsonInt(v int) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestCreateRecurring(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/recurring",
		`{"name":"Aluguel","category":"Moradia","amount":"1500.00","frequency":"MONTHLY","day_of_month":20,"start_date":"2026-04-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode(t, rec)["recurring"].(map[string]any)
	assert.Equal(t, "Aluguel", created["name"])
	assert.Equal(t, true, created["isActive"])
	assert.True(t, strings.HasPrefix(created["nextGenerate"].(string), "2026-04-20"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestCreateRecurringRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	cases := map[string]string{
		"missing name":    `{"category":"Moradia","amount":"10","frequency":"MONTHLY","day_of_month":5,"start_date":"2026-04-01"}`,
		"bad frequency":   `{"name":"x","category":"y","amount":"10","frequency":"HOURLY","start_date":"2026-04-01"}`,
		"bad start date":  `{"name":"x","category":"y","amount":"10","frequency":"DAILY","start_date":"01/04/2026"}`,
		"malformed json":  `{"name":`,
		"weekly no days":  `{"name":"x","category":"y","amount":"10","frequency":"WEEKLY","start_date":"2026-04-01"}`,
		"negative amount": `{"name":"x","category":"y","amount":"-10","frequency":"DAILY","start_date":"2026-04-01"}`,
	}

	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/recurring", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestGetRecurringNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/recurring/"+ulid.Make().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RECURRING_NOT_FOUND", decode(t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, "/api/recurring/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPauseAndResumeRecurring(t *testing.T) {
	router := newTestRouter(t)
	id := createMonthly(t, router, 20)

	rec := doRequest(t, router, http.MethodPost, "/api/recurring/"+id+"/pause", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paused := decode(t, rec)["recurring"].(map[string]any)
	assert.Equal(t, false, paused["isActive"])
	assert.Nil(t, paused["nextGenerate"])

	rec = doRequest(t, router, http.MethodPost, "/api/recurring/"+id+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resumed := decode(t, rec)["recurring"].(map[string]any)
	assert.Equal(t, true, resumed["isActive"])
	assert.True(t, strings.HasPrefix(resumed["nextGenerate"].(string), "2026-04-20"))
}

func TestGenerateRecurrings(t *testing.T) {
	router := newTestRouter(t)
	id := createMonthly(t, router, 15)
	createMonthly(t, router, 20)

	rec := doRequest(t, router, http.MethodPost, "/api/recurring/generate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decode(t, rec)
	assert.Equal(t, float64(1), payload["count"])
	assert.NotContains(t, payload, "result")

	rec = doRequest(t, router, http.MethodPost, "/api/recurring/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])

	rec = doRequest(t, router, http.MethodGet, "/api/recurring/"+id+"/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = doRequest(t, router, http.MethodGet, "/api/recurring/"+id+"/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = doRequest(t, router, http.MethodGet, "/api/recurring/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	def := decode(t, rec)["recurring"].(map[string]any)
	assert.True(t, strings.HasPrefix(def["nextGenerate"].(string), "2026-05-15"))
}

func TestGenerateRecurringsForPastDate(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/recurring/generate", `{"date":"2026-04-14"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode(t, rec)["result"].(map[string]any)
	assert.True(t, strings.HasPrefix(result["date"].(string), "2026-04-14"))

	rec = doRequest(t, router, http.MethodPost, "/api/recurring/generate", `{"date":"2026-04-16"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpcomingRecurrings(t *testing.T) {
	router := newTestRouter(t)
	createMonthly(t, router, 20)

	rec := doRequest(t, router, http.MethodGet, "/api/recurring/upcoming?days=10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decode(t, rec)
	assert.Equal(t, float64(10), payload["days"])
	assert.Len(t, payload["occurrences"], 1)

	rec = doRequest(t, router, http.MethodGet, "/api/recurring/upcoming?days=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	doRequest(t, router, http.MethodPost, "/api/recurring/generate", "")

	rec = doRequest(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recurra_generation_runs_total")
}
