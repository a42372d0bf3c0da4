package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"air-quality-platform/internal/models"
	"air-quality-platform/internal/services"
	"air-quality-platform/pkg/logging"
	"air-quality-platform/pkg/metrics"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 100
	maxLimit     = 1000
	maxBins      = 500
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DashboardHandler handles the dashboard API endpoints
type DashboardHandler struct {
	dashboard *services.DashboardService
	store     HealthChecker
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler. store may be nil when
// the dataset was loaded from a file.
func NewDashboardHandler(
	dashboard *services.DashboardService,
	store HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		store:     store,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// StationsResponse lists the station identifiers
type StationsResponse struct {
	Stations []string `json:"stations"`
}

// BoundsResponse carries the dataset date bounds
type BoundsResponse struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// RankingResponse carries the RFM station ranking
type RankingResponse struct {
	Threshold float64                 `json:"threshold"`
	Stations  []models.StationSummary `json:"stations"`
}

// badRequestError marks a query parameter the client got wrong
type badRequestError struct {
	message string
}

func (e *badRequestError) Error() string {
	return e.message
}

func badRequest(format string, args ...interface{}) error {
	return &badRequestError{message: fmt.Sprintf(format, args...)}
}

// GetStations handles GET /api/stations
func (h *DashboardHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/stations", time.Now())

	h.metrics.RecordAPIRequest("/api/stations", "GET", "200")
	h.sendJSON(w, StationsResponse{Stations: h.dashboard.Stations()}, http.StatusOK)
}

// GetBounds handles GET /api/bounds
func (h *DashboardHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/bounds", time.Now())

	bounds := h.dashboard.Bounds()
	h.metrics.RecordAPIRequest("/api/bounds", "GET", "200")
	h.sendJSON(w, BoundsResponse{
		MinDate: bounds.Min.Format(dateLayout),
		MaxDate: bounds.Max.Format(dateLayout),
	}, http.StatusOK)
}

// GetObservations handles GET /api/observations
func (h *DashboardHandler) GetObservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/observations", time.Now())

	filter, err := h.parseFilter(r)
	if err != nil {
		h.sendBadRequest(w, r, "/api/observations", err)
		return
	}

	page, limit := parsePagination(r)
	filtered := h.dashboard.Observations(ctx, filter)

	total := len(filtered)
	offset := total
	// compare in pages so huge page numbers cannot overflow the offset
	if page-1 <= total/limit {
		offset = min((page-1)*limit, total)
	}
	end := offset + limit
	if end > total {
		end = total
	}

	response := PaginatedResponse{
		Data:       filtered[offset:end],
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}

	h.metrics.RecordAPIRequest("/api/observations", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/summary", time.Now())

	filter, err := h.parseFilter(r)
	if err != nil {
		h.sendBadRequest(w, r, "/api/summary", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/summary", "GET", "200")
	h.sendJSON(w, h.dashboard.Summary(r.Context(), filter), http.StatusOK)
}

// GetMonthlyTrend handles GET /api/trend/monthly
func (h *DashboardHandler) GetMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/trend/monthly", time.Now())

	filter, err := h.parseFilter(r)
	if err != nil {
		h.sendBadRequest(w, r, "/api/trend/monthly", err)
		return
	}

	var all bool
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "filtered":
	case "all":
		all = true
	default:
		h.sendBadRequest(w, r, "/api/trend/monthly", badRequest("invalid scope %q, expected filtered or all", scope))
		return
	}

	h.metrics.RecordAPIRequest("/api/trend/monthly", "GET", "200")
	h.sendJSON(w, h.dashboard.MonthlyTrend(r.Context(), filter, all), http.StatusOK)
}

// GetStationTrends handles GET /api/trend/stations
func (h *DashboardHandler) GetStationTrends(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/trend/stations", time.Now())

	h.metrics.RecordAPIRequest("/api/trend/stations", "GET", "200")
	h.sendJSON(w, h.dashboard.StationTrends(r.Context()), http.StatusOK)
}

// GetHistogram handles GET /api/histogram
func (h *DashboardHandler) GetHistogram(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/histogram", time.Now())

	filter, err := h.parseFilter(r)
	if err != nil {
		h.sendBadRequest(w, r, "/api/histogram", err)
		return
	}

	bins := 0
	if binsStr := r.URL.Query().Get("bins"); binsStr != "" {
		bins, err = strconv.Atoi(binsStr)
		if err != nil || bins < 1 || bins > maxBins {
			h.sendBadRequest(w, r, "/api/histogram", badRequest("invalid bins, expected integer between 1 and %d", maxBins))
			return
		}
	}

	histogram, err := h.dashboard.Histogram(r.Context(), filter, columnParam(r), bins)
	if err != nil {
		h.sendServiceError(w, r, "/api/histogram", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/histogram", "GET", "200")
	h.sendJSON(w, histogram, http.StatusOK)
}

// GetCorrelation handles GET /api/correlation
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/correlation", time.Now())

	filter, err := h.parseFilter(r)
	if err != nil {
		h.sendBadRequest(w, r, "/api/correlation", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/correlation", "GET", "200")
	h.sendJSON(w, h.dashboard.Correlation(r.Context(), filter), http.StatusOK)
}

// GetBoxplots handles GET /api/boxplots
func (h *DashboardHandler) GetBoxplots(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/boxplots", time.Now())

	boxplots, err := h.dashboard.Boxplots(r.Context(), columnParam(r))
	if err != nil {
		h.sendServiceError(w, r, "/api/boxplots", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/boxplots", "GET", "200")
	h.sendJSON(w, boxplots, http.StatusOK)
}

// GetRanking handles GET /api/ranking
func (h *DashboardHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/ranking", time.Now())

	var threshold *float64
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		t, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			h.sendBadRequest(w, r, "/api/ranking", badRequest("invalid threshold, expected a non-negative number"))
			return
		}
		threshold = &t
	}

	response := RankingResponse{
		Threshold: h.dashboard.Threshold(),
		Stations:  h.dashboard.Ranking(r.Context(), threshold),
	}
	if threshold != nil {
		response.Threshold = *threshold
	}

	h.metrics.RecordAPIRequest("/api/ranking", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"source":    h.dashboard.Source(),
		"records":   h.dashboard.Records(),
		"stations":  len(h.dashboard.Stations()),
	}

	code := http.StatusOK
	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			h.logger.Warn(ctx, "[HEALTH_CHECK] Database unreachable", logging.Fields{
				"error": err.Error(),
			})
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"status": status["status"],
	})
	h.sendJSON(w, status, code)
}

// observe records the request duration for endpoint
func (h *DashboardHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

func (h *DashboardHandler) sendBadRequest(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	h.metrics.RecordAPIError("bad_request", endpoint)
	h.sendError(w, r, err.Error(), http.StatusBadRequest)
}

// sendServiceError maps a dashboard service error to a response
func (h *DashboardHandler) sendServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var colErr *services.UnknownColumnError
	if errors.As(err, &colErr) {
		h.sendBadRequest(w, r, endpoint, err)
		return
	}

	h.logger.Error(r.Context(), "[API_ERROR] Dashboard request failed", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "failed to compute "+strings.TrimPrefix(endpoint, "/api/"), http.StatusInternalServerError)
}

// parseFilter parses the dashboard filter and logs station identifiers that match no data
func (h *DashboardHandler) parseFilter(r *http.Request) (services.DashboardFilter, error) {
	filter, err := parseFilter(r)
	if err != nil {
		return filter, err
	}

	if unknown := h.dashboard.UnknownStations(filter.Stations); len(unknown) > 0 {
		h.logger.Warn(r.Context(), "[API_UNKNOWN_STATION] Filter names stations absent from the dataset", logging.Fields{
			"path":     r.URL.Path,
			"stations": unknown,
		})
	}

	return filter, nil
}

// parseFilter reads start_date, end_date and station from the query string.
// station may be repeated or comma separated; a station parameter with no
// identifiers selects no stations at all.
func parseFilter(r *http.Request) (services.DashboardFilter, error) {
	query := r.URL.Query()
	var filter services.DashboardFilter

	if startDateStr := query.Get("start_date"); startDateStr != "" {
		startDate, err := time.Parse(dateLayout, startDateStr)
		if err != nil {
			return filter, badRequest("invalid start_date format, expected YYYY-MM-DD")
		}
		filter.StartDate = &startDate
	}

	if endDateStr := query.Get("end_date"); endDateStr != "" {
		endDate, err := time.Parse(dateLayout, endDateStr)
		if err != nil {
			return filter, badRequest("invalid end_date format, expected YYYY-MM-DD")
		}
		filter.EndDate = &endDate
	}

	if values, ok := query["station"]; ok {
		filter.Stations = []string{}
		for _, value := range values {
			for _, station := range strings.Split(value, ",") {
				if station = strings.TrimSpace(station); station != "" {
					filter.Stations = append(filter.Stations, station)
				}
			}
		}
	}

	return filter, nil
}

func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultLimit

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxLimit {
			limit = l
		}
	}

	return page, limit
}

// columnParam returns the requested measurement column, PM2.5 by default
func columnParam(r *http.Request) string {
	if column := r.URL.Query().Get("column"); column != "" {
		return column
	}
	return models.ColumnPM25
}

// RegisterRoutes registers all dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/stations", h.GetStations).Methods("GET")
	router.HandleFunc("/api/bounds", h.GetBounds).Methods("GET")
	router.HandleFunc("/api/observations", h.GetObservations).Methods("GET")
	router.HandleFunc("/api/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/trend/monthly", h.GetMonthlyTrend).Methods("GET")
	router.HandleFunc("/api/trend/stations", h.GetStationTrends).Methods("GET")
	router.HandleFunc("/api/histogram", h.GetHistogram).Methods("GET")
	router.HandleFunc("/api/correlation", h.GetCorrelation).Methods("GET")
	router.HandleFunc("/api/boxplots", h.GetBoxplots).Methods("GET")
	router.HandleFunc("/api/ranking", h.GetRanking).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
