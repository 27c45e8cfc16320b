package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/coopco/autopost/internal/bus"
	"github.com/coopco/autopost/internal/history"
	"github.com/coopco/autopost/internal/scheduler"
	"github.com/coopco/autopost/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxUploadBytes matches Discord's default attachment limit.
const maxUploadBytes = 25 << 20

var validate = validator.New()

// Deliverer sends a single delivery synchronously.
type Deliverer interface {
	Deliver(ctx context.Context, d bus.Delivery) error
}

type Config struct {
	Store     *store.Store
	Scheduler *scheduler.Service
	Deliverer Deliverer
	// History is optional; without it the history route answers 404.
	History   *history.Manager
	// Channel names the transport used for one-off sends.
	Channel   string
	UploadDir string
}

// Server exposes the profile API consumed by the editor.
type Server struct {
	store     *store.Store
	sched     *scheduler.Service
	deliverer Deliverer
	history   *history.Manager
	channel   string
	uploadDir string
	router    chi.Router
}

func New(cfg Config) *Server {
	s := &Server{
		store:     cfg.Store,
		sched:     cfg.Scheduler,
		deliverer: cfg.Deliverer,
		history:   cfg.History,
		channel:   cfg.Channel,
		uploadDir: cfg.UploadDir,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.listProfiles)
		r.Get("/profile/{name}", s.getProfile)
		r.Post("/save_profile", s.saveProfile)
		r.Post("/upload_attachment", s.uploadAttachment)
		r.Post("/duplicate_profile", s.duplicateProfile)
		r.Post("/delete_profile", s.deleteProfile)
		r.Post("/send_once", s.sendOnce)
		r.Post("/start", s.startProfile)
		r.Post("/stop", s.stopProfile)
		r.Get("/status", s.status)
		r.Get("/history/{name}", s.deliveryHistory)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// messageResponse is the body of every non-data reply.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return false
	}
	return true
}

// decodeBody is decodeJSON followed by struct tag validation.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
