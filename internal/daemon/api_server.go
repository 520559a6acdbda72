package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinescan/internal/api"
	"cinescan/internal/config"
	"cinescan/internal/history"
	"cinescan/internal/identification"
	"cinescan/internal/logging"
	"cinescan/internal/services"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	multipartMemory     = 8 << 20
)

// Recognizer is the identification surface the API exposes.
type Recognizer interface {
	RecognizeImage(ctx context.Context, image []byte) (*identification.Result, error)
	RecognizeAudio(ctx context.Context, audio []byte) (*identification.Result, error)
	RecognizeVideo(ctx context.Context, video []byte, filename string) (*identification.Result, error)
	Search(ctx context.Context, query string) (*identification.Result, error)
	Status(ctx context.Context) identification.Status
}

// HistoryReader lists recorded recognitions.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

var errUploadTooLarge = errors.New("upload exceeds size limit")

type apiServer struct {
	svc       Recognizer
	history   HistoryReader
	logger    *slog.Logger
	validate  *validator.Validate
	maxUpload int64
	version   string
}

// NewHandler builds the HTTP API. history may be nil when recording is disabled.
func NewHandler(cfg *config.Config, svc Recognizer, hist HistoryReader, logger *slog.Logger, version string) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &apiServer{
		svc:       svc,
		history:   hist,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		maxUpload: cfg.MaxUploadBytes(),
		version:   version,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg))
	r.Use(requestMetrics)

	r.With(authMiddleware(cfg.Server.APIToken)).Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleBanner)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(cfg.Server.APIToken))
			r.Use(rateLimit(cfg))
			r.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))
			r.Post("/recognize-image", s.handleRecognizeImage)
			r.Post("/recognize-audio", s.handleRecognizeAudio)
			r.Post("/recognize-video", s.handleRecognizeVideo)
			r.Post("/search", s.handleSearch)
			r.Get("/history", s.handleHistory)
			r.Get("/status", s.handleStatus)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, api.Failure("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, api.Failure("method not allowed"))
	})
	return r
}

func (s *apiServer) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Banner{Message: "CINESCAN API", Version: s.version, Status: "running"})
}

func (s *apiServer) handleRecognizeImage(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log(r).Info("image received", logging.String("filename", filename), logging.Int("bytes", len(data)))
	result, err := s.svc.RecognizeImage(r.Context(), data)
	s.writeResult(w, r, result, err)
}

func (s *apiServer) handleRecognizeAudio(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log(r).Info("audio received", logging.String("filename", filename), logging.Int("bytes", len(data)))
	result, err := s.svc.RecognizeAudio(r.Context(), data)
	s.writeResult(w, r, result, err)
}

func (s *apiServer) handleRecognizeVideo(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log(r).Info("video received", logging.String("filename", filename), logging.Int("bytes", len(data)))
	result, err := s.svc.RecognizeVideo(r.Context(), data, filename)
	s.writeResult(w, r, result, err)
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	body := http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "search", "request body must be JSON with a query field", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "search", "query is required and must be at most 500 characters", err))
		return
	}
	result, err := s.svc.Search(r.Context(), req.Query)
	s.writeResult(w, r, result, err)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, r, services.Wrap(services.ErrConfiguration, "api", "history", "history recording is disabled", nil))
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "history", "limit must be a positive integer", err))
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: api.FromHistoryEntries(entries)})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.FromStatus(s.svc.Status(r.Context()), s.version))
}

// readUpload returns the multipart "file" field capped at the configured size.
func (s *apiServer) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", errUploadTooLarge
		}
		return nil, "", services.Wrap(services.ErrValidation, "api", "upload", "expected a multipart form with a file field", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "api", "upload", "missing file field", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "api", "upload", "read uploaded file", err)
	}
	return data, header.Filename, nil
}

func (s *apiServer) writeResult(w http.ResponseWriter, r *http.Request, result *identification.Result, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromResult(result))
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if errors.Is(err, errUploadTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(s.log(r), "request failed", "api_request_failed",
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	resp := api.Failure(err.Error())
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id
	}
	writeJSON(w, status, resp)
}

func (s *apiServer) log(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), s.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
