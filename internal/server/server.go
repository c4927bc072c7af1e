// Package server exposes the cleaning pipeline over HTTP: upload a sales
// file, receive the run summary as JSON or one artifact as CSV or XLSX.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesprep-cli/internal/exporter"
	"github.com/KaramelBytes/salesprep-cli/internal/parser"
	"github.com/KaramelBytes/salesprep-cli/internal/pipeline"
)

var errBadRequest = errors.New("bad request")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Config holds the listener settings.
type Config struct {
	Addr        string
	MaxUploadMB int
}

// Server wires the router, pipeline and metrics together.
type Server struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	metrics  *Metrics
	log      *zap.Logger
}

// New builds a Server running a pipeline with the given settings. The
// server's metrics are registered as a pipeline observer.
func New(cfg Config, settings pipeline.Settings, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	m := NewMetrics()
	p, err := pipeline.New(settings, pipeline.WithLogger(log), pipeline.WithObserver(m))
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, pipeline: p, metrics: m, log: log.Named("server")}, nil
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Post("/runs", s.handleRun)
		r.Post("/runs/artifact", s.handleArtifact)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// RunSummary is the JSON body returned for an uploaded file.
type RunSummary struct {
	File      string   `json:"file"`
	Artifacts []string `json:"artifacts"`
	*pipeline.Result
}

// upload reads the multipart file and runs the pipeline on it.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (string, *pipeline.Result, error) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: parse multipart form: %v", errBadRequest, err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: form field \"file\": %v", errBadRequest, err)
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	opt := parser.Options{Sheet: r.FormValue("sheet")}
	if v := r.FormValue("sheet_index"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil || idx < 1 {
			return name, nil, fmt.Errorf("%w: sheet_index must be a positive integer", errBadRequest)
		}
		opt.SheetIndex = idx
	}
	ds, err := parser.Read(file, name, opt)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return name, nil, err
	}
	res, err := s.pipeline.Run(r.Context(), ds)
	if err != nil {
		return name, nil, err
	}
	return name, res, nil
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name, res, err := s.upload(w, r)
	if err != nil {
		s.metrics.uploads.WithLabelValues(strconv.Itoa(statusFor(err))).Inc()
		s.fail(w, r, err)
		return
	}
	s.metrics.uploads.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	s.log.Info("server: run complete",
		zap.String("run_id", res.RunID),
		zap.String("file", name),
		zap.Int("rows", res.Rows),
	)
	render.JSON(w, r, RunSummary{File: name, Artifacts: pipeline.ArtifactNames, Result: res})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	artifact := r.URL.Query().Get("name")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		s.metrics.uploads.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		s.fail(w, r, fmt.Errorf("%w: unknown format %q (want csv or xlsx)", errBadRequest, format))
		return
	}
	if !knownArtifact(artifact) {
		s.metrics.uploads.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		s.fail(w, r, fmt.Errorf("%w: unknown artifact %q (want one of %s)",
			errBadRequest, artifact, strings.Join(pipeline.ArtifactNames, ", ")))
		return
	}
	name, res, err := s.upload(w, r)
	if err != nil {
		s.metrics.uploads.WithLabelValues(strconv.Itoa(statusFor(err))).Inc()
		s.fail(w, r, err)
		return
	}
	data, ok := res.Artifact(artifact)
	if !ok {
		s.fail(w, r, fmt.Errorf("run %s produced no %s", res.RunID, artifact))
		return
	}
	s.metrics.uploads.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()

	base := strings.TrimSuffix(name, filepath.Ext(name))
	contentType, write := "text/csv; charset=utf-8", func() error { return exporter.WriteCSV(w, data) }
	if format == "xlsx" {
		contentType = xlsxContentType
		write = func() error { return exporter.WriteWorkbook(w, exporter.Sheet{Name: artifact, Data: data}) }
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_"+artifact+"."+format))
	w.Header().Set("X-Run-ID", res.RunID)
	if err := write(); err != nil {
		s.log.Error("server: write artifact", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func knownArtifact(name string) bool {
	for _, n := range pipeline.ArtifactNames {
		if n == name {
			return true
		}
	}
	return false
}
