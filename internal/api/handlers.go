package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sameer-159/Air-Quality/internal/aqi"
	"github.com/Sameer-159/Air-Quality/internal/audit"
	"github.com/Sameer-159/Air-Quality/internal/cache"
	"github.com/Sameer-159/Air-Quality/internal/dataset"
	"github.com/Sameer-159/Air-Quality/internal/enhanced"
	"github.com/Sameer-159/Air-Quality/internal/metrics"
	"github.com/Sameer-159/Air-Quality/internal/settings"
)

// Handlers carries the collaborators behind the HTTP surface.
type Handlers struct {
	Log      *slog.Logger
	Settings *settings.Store
	Enhanced enhanced.Scorer
	Audit    *audit.Publisher
	Data     *dataset.Dataset

	TableCache   *cache.Cache[map[aqi.Parameter]aqi.Table]
	StatsCache   *cache.Cache[dataset.Stats]
	CompareCache *cache.Cache[aqi.ComparisonResult]

	CompareMaxSamples int
}

// readingPayload mirrors the assessment request body. Pointer fields
// distinguish absent keys from zero values: a complete assessment call has
// no optional field.
type readingPayload struct {
	COGT        *float64 `json:"co_gt"`
	COSensor    *float64 `json:"co_sensor"`
	NMHCGT      *float64 `json:"nmhc_gt"`
	BenzeneGT   *float64 `json:"benzene_gt"`
	NMHCSensor  *float64 `json:"nmhc_sensor"`
	NOxGT       *float64 `json:"nox_gt"`
	NOxSensor   *float64 `json:"nox_sensor"`
	NO2GT       *float64 `json:"no2_gt"`
	NO2Sensor   *float64 `json:"no2_sensor"`
	O3Sensor    *float64 `json:"o3_sensor"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	AbsHumidity *float64 `json:"abs_humidity"`
}

func (p readingPayload) toReading() (aqi.Reading, []string) {
	var missing []string
	take := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	r := aqi.Reading{
		COGT:        take("co_gt", p.COGT),
		COSensor:    take("co_sensor", p.COSensor),
		NMHCGT:      take("nmhc_gt", p.NMHCGT),
		BenzeneGT:   take("benzene_gt", p.BenzeneGT),
		NMHCSensor:  take("nmhc_sensor", p.NMHCSensor),
		NOxGT:       take("nox_gt", p.NOxGT),
		NOxSensor:   take("nox_sensor", p.NOxSensor),
		NO2GT:       take("no2_gt", p.NO2GT),
		NO2Sensor:   take("no2_sensor", p.NO2Sensor),
		O3Sensor:    take("o3_sensor", p.O3Sensor),
		Temperature: take("temperature", p.Temperature),
		Humidity:    take("humidity", p.Humidity),
		AbsHumidity: take("abs_humidity", p.AbsHumidity),
	}
	return r, missing
}

// decodeReading parses and validates the request body. On failure it writes
// the 400 response itself and reports ok=false.
func (h *Handlers) decodeReading(w http.ResponseWriter, r *http.Request) (aqi.Reading, bool) {
	var payload readingPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		metrics.InvalidInputTotal.Inc()
		h.Log.Warn("reading decode failed", "err", err)
		h.badRequest(w, "invalid reading: body must be a JSON object of numeric sensor fields")
		return aqi.Reading{}, false
	}

	reading, missing := payload.toReading()
	if len(missing) > 0 {
		metrics.InvalidInputTotal.Inc()
		h.Log.Warn("reading incomplete", "missing", missing)
		h.badRequest(w, "invalid reading: missing fields: "+strings.Join(missing, ", "))
		return aqi.Reading{}, false
	}
	if err := reading.Validate(); err != nil {
		metrics.InvalidInputTotal.Inc()
		h.Log.Warn("reading invalid", "err", err)
		h.badRequest(w, err.Error())
		return aqi.Reading{}, false
	}
	return reading, true
}

func sensorEcho(r aqi.Reading) map[string]float64 {
	return map[string]float64{
		"co_sensor":    r.COSensor,
		"nmhc_gt":      r.NMHCGT,
		"benzene_gt":   r.BenzeneGT,
		"nmhc_sensor":  r.NMHCSensor,
		"nox_gt":       r.NOxGT,
		"nox_sensor":   r.NOxSensor,
		"no2_sensor":   r.NO2Sensor,
		"o3_sensor":    r.O3Sensor,
		"temperature":  r.Temperature,
		"humidity":     r.Humidity,
		"abs_humidity": r.AbsHumidity,
	}
}

// Assess runs the basic assessment: fuzzy and crisp scores on the 0-100
// scale plus the membership degrees behind the fuzzy score.
func (h *Handlers) Assess(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}

	cfg, err := h.Settings.Load(settings.DefaultName)
	if err != nil {
		h.Log.Error("settings load failed", "err", err)
		h.serverError(w, "settings unavailable")
		return
	}

	res, err := aqi.ScoreBasic(reading, cfg)
	if err != nil {
		metrics.InvalidInputTotal.Inc()
		h.badRequest(w, err.Error())
		return
	}

	metrics.AssessmentsTotal.WithLabelValues("assess", string(res.Category)).Inc()
	h.Audit.Publish(r.Context(), audit.Event{
		Method: "assess", Score: res.FuzzyAQI, Category: string(res.Category), Ts: time.Now().UTC(),
	})
	h.Log.Info("assessment computed", "fuzzyAQI", res.FuzzyAQI, "crispAQI", res.CrispAQI, "category", res.Category)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"fuzzy_aqi":   res.FuzzyAQI,
		"crisp_aqi":   res.CrispAQI,
		"category":    res.Category,
		"membership":  res.Membership,
		"sensor_data": sensorEcho(reading),
	})
}

// EnhancedAssess runs the enhanced 0-500 assessment. When the enhanced
// scorer is unavailable the response degrades to the crisp path instead of
// failing: the fallback chain is part of the contract, not incidental.
func (h *Handlers) EnhancedAssess(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}

	res, err := h.Enhanced.Score(r.Context(), reading)
	if err != nil {
		if errors.Is(err, aqi.ErrInvalidInput) {
			metrics.InvalidInputTotal.Inc()
			h.badRequest(w, err.Error())
			return
		}
		h.fallbackToCrisp(w, r, reading, err)
		return
	}

	metrics.AssessmentsTotal.WithLabelValues("enhanced_assess", string(res.Category)).Inc()
	h.Audit.Publish(r.Context(), audit.Event{
		Method: "enhanced_assess", Score: res.Score, Category: string(res.Category), Ts: time.Now().UTC(),
	})
	h.Log.Info("enhanced assessment computed", "score", res.Score, "category", res.Category, "confidence", res.Confidence)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"fuzzy_aqi":   res.Score,
		"epa_aqi":     res.EPAAQI,
		"category":    res.Category,
		"confidence":  res.Confidence,
		"rule_count":  res.RuleCount,
		"membership":  res.Membership,
		"fallback":    false,
		"sensor_data": sensorEcho(reading),
	})
}

func (h *Handlers) fallbackToCrisp(w http.ResponseWriter, r *http.Request, reading aqi.Reading, cause error) {
	metrics.FallbackTotal.Inc()
	h.Log.Warn("enhanced scoring unavailable, falling back to crisp", "err", cause)

	cfg, err := h.Settings.Load(settings.DefaultName)
	if err != nil {
		cfg = aqi.DefaultSettings()
	}
	crisp, err := aqi.ScoreCrisp(reading, cfg)
	if err != nil {
		// Reading already validated; this cannot normally happen.
		h.serverError(w, "crisp fallback failed")
		return
	}

	metrics.AssessmentsTotal.WithLabelValues("enhanced_assess_fallback", string(crisp.Category)).Inc()
	h.Audit.Publish(r.Context(), audit.Event{
		Method: "enhanced_assess", Score: crisp.Score, Category: string(crisp.Category),
		Fallback: true, Ts: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"fallback":  true,
		"crisp_aqi": crisp.Score,
		"category":  crisp.Category,
		"error":     "enhanced scoring unavailable; crisp result returned",
	})
}

type compareRequest struct {
	Samples int `json:"samples"`
}

func (h *Handlers) compareWith(w http.ResponseWriter, r *http.Request, defaultSamples int) {
	req := compareRequest{Samples: defaultSamples}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.badRequest(w, "invalid request: samples must be an integer")
			return
		}
	}
	if req.Samples <= 0 {
		req.Samples = defaultSamples
	}
	if req.Samples > h.CompareMaxSamples {
		req.Samples = h.CompareMaxSamples
	}

	key := cacheKey("compare", strconv.Itoa(req.Samples))
	if v, ok := h.CompareCache.Get(key); ok {
		writeComparison(w, v)
		return
	}

	result := aqi.CompareMethods(h.Data.Sample(req.Samples))
	h.CompareCache.Set(key, result)
	h.Log.Info("methods compared", "samples", result.SampleSize)
	writeComparison(w, result)
}

func writeComparison(w http.ResponseWriter, result aqi.ComparisonResult) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"metrics":     result.Metrics,
		"predictions": result.Predictions,
		"sample_size": result.SampleSize,
	})
}

// Compare evaluates fuzzy vs crisp over a sampled corpus (default 100).
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	h.compareWith(w, r, 100)
}

// AdvancedCompare is Compare over a larger default sample (500).
func (h *Handlers) AdvancedCompare(w http.ResponseWriter, r *http.Request) {
	h.compareWith(w, r, 500)
}

// MembershipFunctions serves the visualization tables, optionally filtered
// to one parameter via ?parameter=. An unknown parameter is a 400, never a
// silent guess.
func (h *Handlers) MembershipFunctions(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("parameter"); name != "" {
		table, err := aqi.MembershipTable(aqi.Parameter(name))
		if err != nil {
			h.Log.Warn("membership lookup failed", "parameter", name, "err", err)
			h.badRequest(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]aqi.Table{name: table},
		})
		return
	}

	if v, ok := h.TableCache.Get("all"); ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": v})
		return
	}
	tables := aqi.MembershipTables()
	h.TableCache.Set("all", tables)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": tables})
}

type statsResponse struct {
	Success bool `json:"success"`
	dataset.Stats
}

// DatasetStats serves summary statistics over the synthetic corpus.
func (h *Handlers) DatasetStats(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.StatsCache.Get("stats"); ok {
		writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: v})
		return
	}
	stats := h.Data.Stats()
	h.StatsCache.Set("stats", stats)
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}

// GetSettings returns the saved crisp settings blob, or the defaults when
// nothing valid is stored.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Settings.Load(settings.DefaultName)
	if err != nil {
		h.Log.Error("settings load failed", "err", err)
		h.serverError(w, "settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": cfg})
}

// PutSettings validates and persists a new crisp settings blob.
func (h *Handlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	var cfg aqi.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		h.badRequest(w, "invalid settings payload")
		return
	}
	if err := h.Settings.Save(settings.DefaultName, cfg); err != nil {
		h.Log.Warn("settings rejected", "err", err)
		h.badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": cfg})
}

// DeleteSettings removes the saved blob; subsequent loads yield defaults.
func (h *Handlers) DeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.Delete(settings.DefaultName); err != nil {
		h.Log.Error("settings delete failed", "err", err)
		h.serverError(w, "settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": aqi.DefaultSettings()})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"system": "Air Quality Assessment",
		"ts":     time.Now().UTC(),
		"endpoints": []string{
			"/assess", "/enhanced_assess", "/compare", "/advanced_compare",
			"/membership_functions", "/dataset_stats", "/settings", "/health", "/metrics",
		},
	})
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": msg})
}

func (h *Handlers) serverError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}
