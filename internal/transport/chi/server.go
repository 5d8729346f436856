// Package chi is the HTTP surface of the search service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
	"github.com/kailas-cloud/chatsearch/internal/logger"
	healthuc "github.com/kailas-cloud/chatsearch/internal/usecase/health"
)

const (
	// maxBodyBytes bounds POST /search payloads.
	maxBodyBytes = 64 << 10
	// maxQueryRunes bounds a single chat message.
	maxQueryRunes = 1000
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

// Searcher runs the product search pipeline.
type Searcher interface {
	SearchProducts(ctx context.Context, rawQuery, userID string) result.Response
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search Searcher
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, health: health, logger: logger}
}

// SearchGet handles GET /search?q=...&user_id=...
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	var (
		q      string
		userID string
	)
	params := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", params, &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "user_id", params, &userID); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter user_id: "+err.Error())
		return
	}
	s.respond(w, r, q, userID)
}

// SearchPost handles POST /search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "Invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, msg)
		return
	}
	s.respond(w, r, req.Query, req.UserID)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, q, userID string) {
	if err := validateQuery(q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	resp := s.search.SearchProducts(r.Context(), q, userID)
	if resp.Metadata.SearchMethod == result.MethodFailed {
		logger.FromContext(r.Context()).Error("Search failed", zap.String("error", resp.Metadata.Error))
	}
	writeJSON(w, http.StatusOK, resp)
}

// validateQuery rejects text the pipeline cannot tokenize. Empty text is
// valid and answered with a fallback response.
func validateQuery(q string) error {
	if !utf8.ValidString(q) {
		return fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(q); n > maxQueryRunes {
		return fmt.Errorf("%w: %d characters, max %d", domain.ErrInvalidQuery, n, maxQueryRunes)
	}
	return nil
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
