package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Sameer-159/Air-Quality/internal/aqi"
	"github.com/Sameer-159/Air-Quality/internal/cache"
	"github.com/Sameer-159/Air-Quality/internal/dataset"
	"github.com/Sameer-159/Air-Quality/internal/enhanced"
	"github.com/Sameer-159/Air-Quality/internal/settings"
)

// failingScorer stands in for an unreachable remote backend.
type failingScorer struct{}

func (failingScorer) Score(ctx context.Context, r aqi.Reading) (aqi.EnhancedResult, error) {
	if err := r.Validate(); err != nil {
		return aqi.EnhancedResult{}, err
	}
	return aqi.EnhancedResult{}, enhanced.ErrBackendUnavailable
}

func newTestHandlers(t *testing.T, scorer enhanced.Scorer) *Handlers {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := settings.NewStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	return &Handlers{
		Log:               log,
		Settings:          store,
		Enhanced:          scorer,
		Data:              dataset.Generate(200, 42),
		TableCache:        cache.New[map[aqi.Parameter]aqi.Table](time.Minute, nil),
		StatsCache:        cache.New[dataset.Stats](time.Minute, nil),
		CompareCache:      cache.New[aqi.ComparisonResult](time.Minute, nil),
		CompareMaxSamples: 50,
	}
}

func fullReadingBody(overrides map[string]float64) []byte {
	body := map[string]float64{
		"co_gt": 2.5, "co_sensor": 1200, "nmhc_gt": 150, "benzene_gt": 10,
		"nmhc_sensor": 900, "nox_gt": 200, "nox_sensor": 800, "no2_gt": 80,
		"no2_sensor": 1000, "o3_sensor": 750, "temperature": 25,
		"humidity": 60, "abs_humidity": 1.2,
	}
	for k, v := range overrides {
		body[k] = v
	}
	raw, _ := json.Marshal(body)
	return raw
}

func doRequest(t *testing.T, h *Handlers, method, target string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, decoded
}

func TestAssessHappyPath(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, resp := doRequest(t, h, http.MethodPost, "/assess", fullReadingBody(nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	// CO=2.5 -> 30, NO2=80 -> 25, O3=750 -> 0; crisp score 45.
	if got := resp["crisp_aqi"].(float64); got != 45 {
		t.Fatalf("crisp score mismatch: got %f want 45", got)
	}
	fuzzy := resp["fuzzy_aqi"].(float64)
	if fuzzy < 0 || fuzzy > 100 {
		t.Fatalf("fuzzy score out of range: %f", fuzzy)
	}
	membership, ok := resp["membership"].(map[string]any)
	if !ok {
		t.Fatalf("membership block missing: %v", resp)
	}
	for _, key := range []string{"co", "no2", "o3"} {
		if _, ok := membership[key]; !ok {
			t.Fatalf("membership block missing %q", key)
		}
	}
	if _, ok := resp["sensor_data"].(map[string]any); !ok {
		t.Fatal("sensor echo missing")
	}
}

func TestAssessMissingFieldRejected(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	body := map[string]float64{"co_gt": 2.5, "no2_gt": 80}
	raw, _ := json.Marshal(body)

	rec, resp := doRequest(t, h, http.MethodPost, "/assess", raw)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
	if resp["success"] != false {
		t.Fatalf("expected failure envelope, got %v", resp)
	}
	msg := resp["error"].(string)
	if !strings.Contains(msg, "missing") || !strings.Contains(msg, "o3_sensor") {
		t.Fatalf("error must name the missing fields, got %q", msg)
	}
}

func TestAssessUnknownFieldRejected(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	raw := []byte(`{"co_gt": 2.5, "pm2_5": 10}`)
	rec, _ := doRequest(t, h, http.MethodPost, "/assess", raw)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
}

func TestAssessMalformedBodyRejected(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, _ := doRequest(t, h, http.MethodPost, "/assess", []byte(`{"co_gt": "high"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
}

func TestEnhancedAssessLocal(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	// CO=10 in hot humid air: base 250 amplified by 10% to 275.
	body := fullReadingBody(map[string]float64{
		"co_gt": 10, "no2_gt": 0, "o3_sensor": 0, "temperature": 50, "humidity": 100,
	})
	rec, resp := doRequest(t, h, http.MethodPost, "/enhanced_assess", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if resp["fallback"] != false {
		t.Fatalf("expected no fallback, got %v", resp)
	}
	if got := resp["fuzzy_aqi"].(float64); got != 275 {
		t.Fatalf("score mismatch: got %f want 275", got)
	}
	if got := resp["epa_aqi"].(float64); got != 250 {
		t.Fatalf("base index mismatch: got %f want 250", got)
	}
	if got := resp["category"].(string); got != "Very_Unhealthy" {
		t.Fatalf("category mismatch: got %q", got)
	}
	conf := resp["confidence"].(float64)
	if conf < 0 || conf > 1 {
		t.Fatalf("confidence out of range: %f", conf)
	}
	if resp["rule_count"].(float64) <= 0 {
		t.Fatalf("expected firing rules, got %v", resp["rule_count"])
	}
}

func TestEnhancedAssessFallsBackToCrisp(t *testing.T) {
	h := newTestHandlers(t, failingScorer{})
	rec, resp := doRequest(t, h, http.MethodPost, "/enhanced_assess", fullReadingBody(nil))

	// Backend loss degrades to the crisp path; the request still succeeds.
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if resp["success"] != true || resp["fallback"] != true {
		t.Fatalf("expected successful fallback envelope, got %v", resp)
	}
	if got := resp["crisp_aqi"].(float64); got != 45 {
		t.Fatalf("fallback crisp score mismatch: got %f want 45", got)
	}
	if got := resp["category"].(string); got != "Good" {
		t.Fatalf("fallback category mismatch: got %q", got)
	}
	if _, ok := resp["error"].(string); !ok {
		t.Fatal("fallback response must note the degradation")
	}
}

func TestEnhancedAssessInvalidInputNotFallback(t *testing.T) {
	h := newTestHandlers(t, failingScorer{})
	body := map[string]float64{"co_gt": 2.5}
	raw, _ := json.Marshal(body)
	rec, _ := doRequest(t, h, http.MethodPost, "/enhanced_assess", raw)
	// Bad input is the caller's fault and must not trigger the fallback.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
}

func TestCompareSampleSizes(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})

	rec, resp := doRequest(t, h, http.MethodPost, "/compare", []byte(`{"samples": 10}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if got := resp["sample_size"].(float64); got != 10 {
		t.Fatalf("sample size mismatch: got %f want 10", got)
	}
	metricsBlock, ok := resp["metrics"].(map[string]any)
	if !ok {
		t.Fatalf("metrics block missing: %v", resp)
	}
	for _, method := range []string{"fuzzy", "crisp"} {
		if _, ok := metricsBlock[method]; !ok {
			t.Fatalf("metrics block missing %q", method)
		}
	}

	// Requests above the cap are clamped.
	_, resp = doRequest(t, h, http.MethodPost, "/compare", []byte(`{"samples": 5000}`))
	if got := resp["sample_size"].(float64); got != 50 {
		t.Fatalf("capped sample size mismatch: got %f want 50", got)
	}

	// An empty body picks the endpoint default, clamped to the cap.
	_, resp = doRequest(t, h, http.MethodPost, "/advanced_compare", nil)
	if got := resp["sample_size"].(float64); got != 50 {
		t.Fatalf("default sample size mismatch: got %f want 50", got)
	}
}

func TestMembershipFunctionsSingleParameter(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, resp := doRequest(t, h, http.MethodGet, "/membership_functions?parameter=CO_GT", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	data := resp["data"].(map[string]any)
	if _, ok := data["CO_GT"]; !ok {
		t.Fatalf("expected CO_GT table, got keys %v", data)
	}
	if len(data) != 1 {
		t.Fatalf("single-parameter lookup must return one table, got %d", len(data))
	}
}

func TestMembershipFunctionsUnknownParameter(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, resp := doRequest(t, h, http.MethodGet, "/membership_functions?parameter=PM2_5", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
	if resp["success"] != false {
		t.Fatalf("expected failure envelope, got %v", resp)
	}
}

func TestMembershipFunctionsFullCatalog(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, resp := doRequest(t, h, http.MethodGet, "/membership_functions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	data := resp["data"].(map[string]any)
	if len(data) != len(aqi.Parameters()) {
		t.Fatalf("catalog size mismatch: got %d want %d", len(data), len(aqi.Parameters()))
	}
}

func TestDatasetStatsEndpoint(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, resp := doRequest(t, h, http.MethodGet, "/dataset_stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if got := resp["total_samples"].(float64); got != 200 {
		t.Fatalf("total samples mismatch: got %f want 200", got)
	}
	for _, key := range []string{"co_stats", "no2_stats", "o3_stats", "temp_stats", "humidity_stats"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("stats response missing %q", key)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})

	custom := aqi.DefaultSettings()
	custom.CO[0].Weight = 42
	raw, _ := json.Marshal(custom)

	rec, _ := doRequest(t, h, http.MethodPut, "/settings", raw)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status mismatch: got %d want 200", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/settings", nil))
	var got struct {
		Success  bool         `json:"success"`
		Settings aqi.Settings `json:"settings"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode settings response: %v", err)
	}
	if diff := cmp.Diff(custom, got.Settings); diff != "" {
		t.Fatalf("settings round trip mismatch (-want +got):\n%s", diff)
	}

	// Delete restores the defaults on the next read.
	rec3, _ := doRequest(t, h, http.MethodDelete, "/settings", nil)
	if rec3.Code != http.StatusOK {
		t.Fatalf("delete status mismatch: got %d want 200", rec3.Code)
	}
	rec4 := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec4, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if err := json.Unmarshal(rec4.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode settings response: %v", err)
	}
	if diff := cmp.Diff(aqi.DefaultSettings(), got.Settings); diff != "" {
		t.Fatalf("delete must restore defaults (-want +got):\n%s", diff)
	}
}

func TestPutSettingsRejectsInvalid(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	bad := aqi.DefaultSettings()
	bad.NO2[1].Threshold = bad.NO2[0].Threshold
	raw, _ := json.Marshal(bad)

	rec, resp := doRequest(t, h, http.MethodPut, "/settings", raw)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
	if resp["success"] != false {
		t.Fatalf("expected failure envelope, got %v", resp)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec, resp := doRequest(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if resp["status"] != "healthy" {
		t.Fatalf("health status mismatch: %v", resp)
	}
	if _, ok := resp["endpoints"].([]any); !ok {
		t.Fatal("health response must list endpoints")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandlers(t, enhanced.Local{})
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assess", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status mismatch: got %d want 405", rec.Code)
	}
}
