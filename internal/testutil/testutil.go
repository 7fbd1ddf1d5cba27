// Package testutil provides shared helpers for tests that touch the
// filesystem or the loopback network.
//
// Helpers that need an environment capability call t.Skip with a readable
// reason when it is missing, so the suite stays runnable in sandboxes.
//
// Typical usage:
//
//	func TestServe(t *testing.T) {
//	    ln := testutil.Listen(t)
//	    ...
//	}
package testutil

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

// LoopbackAddr is the address Listen binds to.
const LoopbackAddr = "127.0.0.1:0"

// Listen opens a TCP listener on an ephemeral loopback port and closes it
// when the test ends. The test is skipped if loopback networking is not
// available.
func Listen(tb testing.TB) net.Listener {
	tb.Helper()

	ln, err := net.Listen("tcp", LoopbackAddr)
	if err != nil {
		tb.Skipf("loopback listener not available: %v", err)
		return nil
	}
	tb.Cleanup(func() { _ = ln.Close() })

	return ln
}

// WriteInput writes content to a file called name inside a fresh temp
// directory and returns its path.
func WriteInput(tb testing.TB, name, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write input %s: %v", name, err)
	}

	return path
}

// RequireEnv skips the test unless the environment variable key is set and
// returns its value.
func RequireEnv(tb testing.TB, key string) string {
	tb.Helper()

	v := os.Getenv(key)
	if v == "" {
		tb.Skipf("%s not set", key)
	}

	return v
}
