package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/example/go-jtalk/internal/audio"
	"github.com/example/go-jtalk/internal/config"
	"github.com/example/go-jtalk/internal/label"
	"github.com/example/go-jtalk/internal/text"
	"github.com/example/go-jtalk/internal/tts"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Synthesizer produces WAV bytes from text and a voice ID.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// StreamingSynthesizer sends PCM chunks as they are synthesized and closes
// out when done.
type StreamingSynthesizer interface {
	SynthesizeStream(ctx context.Context, text, voice string, out chan<- tts.PCMChunk) error
}

// Labeler produces full-context labels from text.
type Labeler interface {
	Labels(ctx context.Context, text string) ([]string, error)
}

// VoiceLister returns the list of available voices.
type VoiceLister interface {
	ListVoices() []tts.Voice
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
	streamer       StreamingSynthesizer
	labeler        Labeler
	corsOrigins    []string
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		workers:        2,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent front-end or synthesis
// calls.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStreamer enables POST /tts/stream.
func WithStreamer(s StreamingSynthesizer) Option {
	return func(o *options) { o.streamer = s }
}

// WithLabeler enables POST /labels.
func WithLabeler(l Labeler) Option {
	return func(o *options) { o.labeler = l }
}

// WithCORSOrigins allows cross-origin requests from origins. "*" allows any.
func WithCORSOrigins(origins ...string) Option {
	return func(o *options) { o.corsOrigins = origins }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	synth  Synthesizer
	voices VoiceLister
	opts   options
	sem    chan struct{} // semaphore for worker pool
	log    *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /voices, POST /tts,
// and, when enabled by options, POST /tts/stream and POST /labels. A nil
// synth makes POST /tts answer 503.
func NewHandler(synth Synthesizer, voices VoiceLister, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if voices == nil {
		voices = noVoices{}
	}

	h := &handler{
		synth:  synth,
		voices: voices,
		opts:   opts,
		log:    opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/voices", h.handleVoices)
	mux.HandleFunc("/tts", h.handleTTS)
	mux.HandleFunc("/tts/stream", h.handleTTSStream)
	mux.HandleFunc("/labels", h.handleLabels)

	if len(opts.corsOrigins) == 0 {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins: opts.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"version":      buildVersion(),
		"label_format": label.Format,
	})
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	voices := h.voices.ListVoices()
	if voices == nil {
		voices = []tts.Voice{}
	}
	writeJSON(w, http.StatusOK, voices)
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type labelsResponse struct {
	Format string   `json:"format"`
	Labels []string `json:"labels"`
}

// decodeRequest validates method, body and size. It writes the error response
// itself and reports whether the request may proceed.
func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request) (ttsRequest, bool) {
	var req ttsRequest

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}

	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return req, false
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return req, false
	}

	return req, true
}

// acquire takes a worker slot, honouring cancellation while waiting. The
// returned release func is nil when the slot was not acquired.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) func() {
	if h.sem == nil {
		return func() {}
	}
	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return nil
	}
}

func (h *handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	if h.synth == nil {
		writeError(w, http.StatusServiceUnavailable, "no waveform backend configured")
		return
	}

	release := h.acquire(w, r)
	if release == nil {
		return
	}
	defer release()

	// Apply per-request timeout.
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	wav, err := h.synth.Synthesize(ctx, req.Text, req.Voice)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, "synthesis", req, durationMS, err)
		return
	}

	h.log.InfoContext(r.Context(), "synthesis complete",
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Int("wav_bytes", len(wav)),
	)

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

func (h *handler) handleTTSStream(w http.ResponseWriter, r *http.Request) {
	if h.opts.streamer == nil {
		writeError(w, http.StatusNotImplemented, "streaming is not available for this backend")
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	release := h.acquire(w, r)
	if release == nil {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	ch := make(chan tts.PCMChunk, 4)
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.opts.streamer.SynthesizeStream(ctx, req.Text, req.Voice, ch)
	}()

	flusher, _ := w.(http.Flusher)
	headerSent := false
	samples := 0
	for chunk := range ch {
		if !headerSent {
			w.Header().Set("Content-Type", "audio/wav")
			w.WriteHeader(http.StatusOK)
			if _, err := audio.WriteStreamHeader(w, chunk.SampleRate); err != nil {
				cancel()
				break
			}
			headerSent = true
		}
		if _, err := audio.WritePCM16(w, chunk.Samples); err != nil {
			cancel()
			break
		}
		samples += len(chunk.Samples)
		if flusher != nil {
			flusher.Flush()
		}
	}
	// Drain so the producer can finish after a write failure.
	for range ch {
	}

	err := <-errCh
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		if !headerSent {
			h.fail(w, r, "streaming synthesis", req, durationMS, err)
			return
		}
		// Too late for a status code; the client sees a truncated stream.
		h.log.ErrorContext(r.Context(), "streaming synthesis aborted",
			slog.String("voice", req.Voice),
			slog.Int("samples", samples),
			slog.String("error", err.Error()),
		)
		return
	}

	h.log.InfoContext(r.Context(), "streaming synthesis complete",
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Int("samples", samples),
	)
}

func (h *handler) handleLabels(w http.ResponseWriter, r *http.Request) {
	if h.opts.labeler == nil {
		writeError(w, http.StatusNotImplemented, "label extraction is not available")
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	release := h.acquire(w, r)
	if release == nil {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	labels, err := h.opts.labeler.Labels(ctx, req.Text)
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		h.fail(w, r, "label extraction", req, durationMS, err)
		return
	}

	h.log.InfoContext(r.Context(), "label extraction complete",
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Int("labels", len(labels)),
	)
	writeJSON(w, http.StatusOK, labelsResponse{Format: label.Format, Labels: labels})
}

// fail maps err to a status code, logs it and writes the error response.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, what string, req ttsRequest, durationMS int64, err error) {
	attrs := []any{
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.String("error", err.Error()),
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), what+" timed out", attrs...)
		writeError(w, http.StatusGatewayTimeout, what+" timed out")
	case errors.Is(err, text.ErrEmptyText), errors.Is(err, tts.ErrNoVoice), errors.Is(err, tts.ErrUnknownVoice):
		h.log.InfoContext(r.Context(), what+" rejected", attrs...)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tts.ErrNoEngine):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.ErrorContext(r.Context(), what+" failed", attrs...)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	tts             *tts.Service
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// New builds a server for cfg. A nil svc is built from cfg on Start.
func New(cfg config.Config, svc *tts.Service) *Server {
	shutdown := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		shutdown = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}
	return &Server{
		cfg:             cfg,
		tts:             svc,
		shutdownTimeout: shutdown,
		logger:          slog.Default(),
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	backend, err := config.NormalizeBackend(s.cfg.Engine.Backend)
	if err != nil {
		return err
	}

	deps, err := s.runtimeDeps(backend)
	if err != nil {
		return err
	}

	handlerOpts := []Option{
		WithWorkers(deps.workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second),
		WithLabeler(deps.labeler),
		WithCORSOrigins(s.cfg.Server.CORSOrigins...),
		WithLogger(s.logger),
	}
	if deps.streamer != nil {
		handlerOpts = append(handlerOpts, WithStreamer(deps.streamer))
	}

	h := NewHandler(deps.synth, deps.voices, handlerOpts...)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening",
		slog.String("addr", s.cfg.Server.ListenAddr),
		slog.String("backend", backend),
		slog.Int("workers", deps.workers),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks GET /health on addr. A listen address without a host,
// such as ":8080", is probed on the loopback interface.
func ProbeHTTP(ctx context.Context, addr string) error {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("server reports status %q", body.Status)
	}
	return nil
}

type runtimeDeps struct {
	synth    Synthesizer
	streamer StreamingSynthesizer
	labeler  Labeler
	voices   VoiceLister
	workers  int
}

func (s *Server) runtimeDeps(backend string) (runtimeDeps, error) {
	switch backend {
	case config.BackendHTSEngine, config.BackendNone:
	default:
		return runtimeDeps{}, fmt.Errorf("unsupported backend %q", backend)
	}

	svc := s.tts
	if svc == nil {
		var err error
		next := s.cfg
		next.Engine.Backend = backend
		svc, err = tts.NewService(next, tts.WithLogger(s.logger))
		if err != nil {
			return runtimeDeps{}, fmt.Errorf("initialize service: %w", err)
		}
	}

	deps := runtimeDeps{
		labeler: svc,
		voices:  serviceVoices{svc: svc},
		workers: chooseWorkerLimit(s.cfg, backend),
	}
	if backend == config.BackendHTSEngine {
		deps.synth = svc
		deps.streamer = svc
	}
	return deps, nil
}

// chooseWorkerLimit bounds concurrent requests. The engine backend falls back
// to the subprocess concurrency when no server limit is set; labels-only mode
// runs in-process and uses the server limit alone.
func chooseWorkerLimit(cfg config.Config, backend string) int {
	workers := cfg.Server.Workers
	if workers <= 0 && backend == config.BackendHTSEngine {
		workers = cfg.Engine.Concurrency
	}
	return workers
}

type serviceVoices struct {
	svc *tts.Service
}

func (v serviceVoices) ListVoices() []tts.Voice { return v.svc.Voices() }

type noVoices struct{}

func (noVoices) ListVoices() []tts.Voice { return nil }
