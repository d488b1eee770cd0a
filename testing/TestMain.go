// Package testing flags the process as a test run so binaries skip runtime startup.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("RESTAURANT_TEST_MODE", "1")
		if os.Getenv("JWT_KEY") == "" {
			_ = os.Setenv("JWT_KEY", "test-signing-key")
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be delegated to from packages that need test mode before any init runs.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
