package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/go-neumernym/internal/analysis"
	"github.com/example/go-neumernym/internal/config"
	"github.com/example/go-neumernym/internal/text"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
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

// AnalyzeFunc prepares raw input and analyses it.
type AnalyzeFunc func(raw []byte, opts analysis.BatchOptions) analysis.Report

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	responseDelay  time.Duration
	rateLimit      rate.Limit
	rateBurst      int
	nfc            bool
	analyze        AnalyzeFunc
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   65536,
		workers:        4,
		requestTimeout: 10 * time.Second,
		rateBurst:      20,
		analyze:        analysis.Run,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /analyze.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent analyses. Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithResponseDelay holds each /analyze response for d after the result is
// computed. It is presentation pacing only and never changes the result.
func WithResponseDelay(d time.Duration) Option {
	return func(o *options) { o.responseDelay = d }
}

// WithRateLimit allows perSecond requests per client host with the given
// burst. A non-positive perSecond disables rate limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = rate.Limit(perSecond)
		o.rateBurst = burst
	}
}

// WithNFC applies Unicode NFC normalization to every request.
func WithNFC(enabled bool) Option {
	return func(o *options) { o.nfc = enabled }
}

// WithAnalyzeFunc replaces the analysis pipeline.
func WithAnalyzeFunc(fn AnalyzeFunc) Option {
	return func(o *options) { o.analyze = fn }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	opts    options
	sem     *semaphore.Weighted
	limiter *clientLimiter
	log     *slog.Logger
}

// NewHandler returns an http.Handler that serves /health and POST /analyze.
func NewHandler(optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		opts: opts,
		log:  opts.logger,
	}
	if opts.workers > 0 {
		h.sem = semaphore.NewWeighted(int64(opts.workers))
	}
	if opts.rateLimit > 0 {
		h.limiter = newClientLimiter(opts.rateLimit, opts.rateBurst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/analyze", h.handleAnalyze)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type analyzeRequest struct {
	Text        string `json:"text"`
	Details     bool   `json:"details"`
	InputFormat string `json:"input_format"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.limiter != nil && !h.limiter.allow(clientHost(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	req, status, err := h.decodeRequest(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	format, err := text.ParseInputFormat(req.InputFormat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		if err := h.sem.Acquire(ctx, 1); err != nil {
			h.writeCancelled(w, r, requestID, "waiting for worker", err)
			return
		}
		defer h.sem.Release(1)
	}

	start := time.Now()
	rep := h.opts.analyze([]byte(req.Text), analysis.BatchOptions{
		Format:    format,
		Normalize: text.NormalizeOptions{NFC: h.opts.nfc},
		Details:   req.Details,
	})
	durationMS := time.Since(start).Milliseconds()

	if h.opts.responseDelay > 0 {
		timer := time.NewTimer(h.opts.responseDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			h.writeCancelled(w, r, requestID, "during response delay", ctx.Err())
			return
		}
	}

	h.log.InfoContext(r.Context(), "analysis complete",
		slog.String("request_id", requestID),
		slog.Int("text_len", len(req.Text)),
		slog.String("input_format", string(format)),
		slog.Int("word_count", rep.WordCount),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, int, error) {
	// JSON escaping can expand text up to six bytes per input byte.
	body := http.MaxBytesReader(w, r.Body, int64(h.opts.maxTextBytes)*6+1024)

	var req analyzeRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		raw, err := io.ReadAll(body)
		if err != nil {
			return req, bodyErrorStatus(err), fmt.Errorf("read body: %w", err)
		}
		q := r.URL.Query()
		req.Text = string(raw)
		req.InputFormat = q.Get("input_format")
		req.Details, _ = strconv.ParseBool(q.Get("details"))
		return req, http.StatusOK, nil
	}

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, bodyErrorStatus(err), fmt.Errorf("invalid JSON: %w", err)
	}
	return req, http.StatusOK, nil
}

func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *handler) writeCancelled(w http.ResponseWriter, r *http.Request, requestID, stage string, err error) {
	h.log.WarnContext(r.Context(), "analysis cancelled",
		slog.String("request_id", requestID),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "request timed out "+stage)
		return
	}
	writeError(w, http.StatusServiceUnavailable, "request cancelled "+stage)
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
// Per-client rate limiting
// ---------------------------------------------------------------------------

// limiterIdleTTL is how long a client's limiter is kept after its last request.
const limiterIdleTTL = 10 * time.Minute

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	clients   map[string]*clientEntry
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limit:     limit,
		burst:     burst,
		idle:      limiterIdleTTL,
		now:       time.Now,
		lastSweep: time.Now(),
		clients:   make(map[string]*clientEntry),
	}
}

func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	now := c.now()
	if now.Sub(c.lastSweep) >= c.idle {
		c.sweep(now)
	}
	e, ok := c.clients[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = e
	}
	e.lastSeen = now
	c.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// sweep drops clients idle for at least c.idle. Callers hold c.mu.
func (c *clientLimiter) sweep(now time.Time) {
	for key, e := range c.clients {
		if now.Sub(e.lastSeen) >= c.idle {
			delete(c.clients, key)
		}
	}
	c.lastSweep = now
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config) *Server {
	return &Server{
		cfg:             cfg,
		logger:          slog.Default(),
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// HandlerOptions translates the server configuration into handler options.
func (s *Server) HandlerOptions() []Option {
	sc := s.cfg.Server
	return []Option{
		WithWorkers(sc.Workers),
		WithMaxTextBytes(sc.MaxTextBytes),
		WithRequestTimeout(time.Duration(sc.RequestTimeout) * time.Second),
		WithResponseDelay(time.Duration(sc.ResponseDelayMS) * time.Millisecond),
		WithRateLimit(sc.RateLimit, sc.RateBurst),
		WithNFC(s.cfg.Analysis.UnicodeNFC),
		WithLogger(s.logger),
	}
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve answers requests on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           NewHandler(s.HandlerOptions()...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
