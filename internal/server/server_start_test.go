package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/go-neumernym/internal/config"
	"github.com/example/go-neumernym/internal/testutil"
)

func TestServe_LifecycleHealthAnalyzeAndShutdown(t *testing.T) {
	ln := testutil.Listen(t)
	addr := ln.Addr().String()

	cfg := config.DefaultConfig()
	cfg.Server.ListenAddr = addr

	s := New(cfg).WithShutdownTimeout(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Serve(ctx, ln)
	}()

	client := &http.Client{Timeout: 2 * time.Second}

	if err := ProbeHTTP(addr); err != nil {
		t.Fatalf("ProbeHTTP: %v", err)
	}

	resp, err := client.Post(fmt.Sprintf("http://%s/analyze", addr), "application/json",
		strings.NewReader(`{"text":"international"}`))
	if err != nil {
		t.Fatalf("POST /analyze: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/analyze status = %d; want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode /analyze: %v", err)
	}

	if body["neumernym"] != "i11l" {
		t.Errorf("neumernym = %v; want i11l", body["neumernym"])
	}

	// Graceful shutdown.
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Serve() returned error on shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return within 5s of context cancel")
	}
}

func TestStart_ListenErrorIsReturned(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.ListenAddr = "256.0.0.1:bad"

	err := New(cfg).Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "http listen") {
		t.Fatalf("Start() = %v; want http listen error", err)
	}
}

func TestProbeHTTP_UnreachableFails(t *testing.T) {
	ln := testutil.Listen(t)
	addr := ln.Addr().String()
	_ = ln.Close()

	if err := ProbeHTTP(addr); err == nil {
		t.Error("ProbeHTTP() = nil; want error for closed port")
	}
}

func TestHandlerOptions_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Workers = 3
	cfg.Server.ResponseDelayMS = 250
	cfg.Server.RateLimit = 5
	cfg.Server.RateBurst = 7
	cfg.Analysis.UnicodeNFC = true

	opts := defaultOptions()
	for _, fn := range New(cfg).HandlerOptions() {
		fn(&opts)
	}

	if opts.workers != 3 {
		t.Errorf("workers = %d; want 3", opts.workers)
	}

	if opts.responseDelay != 250*time.Millisecond {
		t.Errorf("responseDelay = %v; want 250ms", opts.responseDelay)
	}

	if float64(opts.rateLimit) != 5 || opts.rateBurst != 7 {
		t.Errorf("rate = %v/%d; want 5/7", opts.rateLimit, opts.rateBurst)
	}

	if !opts.nfc {
		t.Error("nfc = false; want true")
	}

	if opts.requestTimeout != 10*time.Second {
		t.Errorf("requestTimeout = %v; want 10s", opts.requestTimeout)
	}
}

func TestHandlerOptions_ValidatedConfigServesRequests(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RequestTimeout = 1
	cfg.Server.MaxTextBytes = len("cat")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	h := NewHandler(New(cfg).HandlerOptions()...)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"text":"cat"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body %s)", rec.Code, rec.Body.String())
	}
}
