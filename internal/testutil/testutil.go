// Package testutil holds shared helpers for tests that stand up a full
// application instance.
package testutil

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/calcgrid/internal/app"
	"github.com/vk/calcgrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// NewApp creates an app instance for system testing, with debug logging
// captured in the returned buffer. With no modules given, the app uses the
// compiled-in content modules.
func NewApp(t *testing.T, cfg *app.Config, modules ...registry.Module) (*app.App, *SafeBuffer) {
	t.Helper()

	if cfg == nil {
		cfg = &app.Config{LogFormat: "text", DefaultLocale: "en"}
	}
	cfg.LogLevel = "debug"

	outBuffer := &SafeBuffer{}
	testApp := app.New(outBuffer, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("CALCGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full output for %s ---\n%s", t.Name(), outBuffer.String())
		}
	})

	return testApp, outBuffer
}
