package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/facegate/server/internal/facegate/service"
	"github.com/facegate/server/internal/facegate/types"
)

// maxFrameBytes caps the uploaded capture. A 1080p JPEG is well under 2 MiB;
// 8 MiB leaves room for uncompressed captures from misconfigured cameras.
const maxFrameBytes = 8 << 20

type Dependencies struct {
	Logger      *zap.Logger
	Addr        string
	Decision    *service.DecisionService
	CORSOrigins []string

	// Per-origin validation rate limit. Zero RPS disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	decision   *service.DecisionService
	limiters   *originLimiters
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:   d.Logger,
		decision: d.Decision,
		limiters: newOriginLimiters(rate.Limit(d.RateLimitRPS), d.RateLimitBurst),
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(requestLogger(d.Logger))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/validate", s.handleValidate)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleValidate accepts one multipart capture (fields: image, ip) and
// returns the decision payload. Expected outcomes are HTTP 200; only
// malformed requests and infrastructure faults use error statuses.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFrameBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_multipart", "invalid multipart body")
		return
	}

	origin := strings.TrimSpace(r.FormValue("ip"))
	if origin == "" {
		// Cameras that omit the field are identified by their socket.
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			origin = host
		}
	}

	if !s.limiters.allow(origin) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many validation attempts")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_image", "image file is required")
		return
	}
	defer file.Close()

	frame, err := io.ReadAll(io.LimitReader(file, maxFrameBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_image", "could not read image")
		return
	}

	resp, err := s.decision.Validate(r.Context(), types.ValidationRequest{
		Origin: origin,
		Frame:  frame,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrigin):
			writeError(w, http.StatusBadRequest, "invalid_origin", err.Error())
		case errors.Is(err, service.ErrEmptyFrame):
			writeError(w, http.StatusBadRequest, "empty_frame", err.Error())
		default:
			s.logger.Error("validate error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
