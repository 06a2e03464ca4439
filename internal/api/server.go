// Package api exposes the HTTP interface for the scraping pipeline.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/exchange"
	"github.com/Djennat/web-scraping/internal/metrics"
	"github.com/Djennat/web-scraping/internal/requests"
	"github.com/Djennat/web-scraping/internal/results"
	"github.com/Djennat/web-scraping/internal/scraping"
	"github.com/Djennat/web-scraping/internal/users"
)

const maxPayloadBytes = 1 << 20

// Server wires HTTP handlers to the pipeline services.
//
// Authentication is an external collaborator: a trusted front proxy
// verifies credentials and forwards the caller identity in the
// X-User-ID and X-User-Role headers. The server trusts those headers
// and performs no credential checks itself.
type Server struct {
	router   chi.Router
	requests *requests.Service
	exchange *exchange.Service
	results  *results.Service
	users    *users.Service
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	requestsSvc *requests.Service,
	exchangeSvc *exchange.Service,
	resultsSvc *results.Service,
	usersSvc *users.Service,
	timeout time.Duration,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		requests: requestsSvc,
		exchange: exchangeSvc,
		results:  resultsSvc,
		users:    usersSvc,
		logger:   logger,
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(identityMiddleware)

			r.Post("/requests", s.submitRequest)
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", s.createJob)
				r.Post("/xml", s.uploadJobXML)
				r.Get("/{request_id}", s.fetchJob)
			})
			r.Post("/results", s.storeResult)
			r.Get("/results", s.listResults)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnlyMiddleware)
				r.Get("/requests", s.listPendingRequests)
				r.Post("/requests/{request_id}/approve", s.approveRequest)
				r.Post("/requests/{request_id}/reject", s.rejectRequest)
				r.Post("/users", s.createUser)
				r.Get("/users", s.listUsers)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type submitRequestBody struct {
	WebsiteURL string `json:"website_url"`
}

func (s *Server) submitRequest(w http.ResponseWriter, r *http.Request) {
	var body submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.WebsiteURL == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	req, err := s.requests.Submit(r.Context(), callerID(r), body.WebsiteURL)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) listPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.requests.ListPending(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if reqs == nil {
		reqs = []scraping.AccessRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

type decisionBody struct {
	Message string `json:"message"`
}

func (s *Server) approveRequest(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	// The message is optional; an empty body is fine.
	_ = json.NewDecoder(r.Body).Decode(&body)
	err := s.requests.Approve(r.Context(), chi.URLParam(r, "request_id"), callerID(r), body.Message)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "scraping request approved"})
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	_ = json.NewDecoder(r.Body).Decode(&body)
	err := s.requests.Reject(r.Context(), chi.URLParam(r, "request_id"), callerID(r), body.Message)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "scraping request rejected"})
}

type createJobBody struct {
	URLs     []string `json:"urls"`
	Keywords []string `json:"keywords"`
}

type createJobResponse struct {
	RequestID string `json:"request_id"`
	Payload   string `json:"payload"`
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var body createJobBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one url is required")
		return
	}
	requestID, payload, err := s.exchange.CreateJob(r.Context(), callerID(r), body.URLs, body.Keywords)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createJobResponse{RequestID: requestID, Payload: string(payload)})
}

func (s *Server) uploadJobXML(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil || len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "request body must carry the XML payload")
		return
	}
	requestID, err := s.exchange.SubmitPayload(r.Context(), callerID(r), payload)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"request_id": requestID,
		"message":    "XML received and ready for robot",
	})
}

func (s *Server) fetchJob(w http.ResponseWriter, r *http.Request) {
	payload, err := s.exchange.FetchJob(callerID(r), chi.URLParam(r, "request_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	if _, err := w.Write(payload); err != nil {
		s.logger.Error("write job payload failed", zap.Error(err))
	}
}

func (s *Server) storeResult(w http.ResponseWriter, r *http.Request) {
	var body scraping.ResultCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	result, err := s.results.Store(r.Context(), callerID(r), body)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	resultSet, err := s.results.GetResults(r.Context(), callerID(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultSet)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body scraping.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	user, err := s.users.Create(r.Context(), body)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	userList, err := s.users.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if userList == nil {
		userList = []scraping.User{}
	}
	writeJSON(w, http.StatusOK, userList)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var ve *scraping.ValidationError
	switch {
	case errors.Is(err, scraping.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, scraping.ErrInvalidState):
		writeError(w, http.StatusConflict, "request already decided")
	case errors.Is(err, scraping.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "website not allowed for scraping")
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
