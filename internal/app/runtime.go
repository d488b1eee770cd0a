package app

import (
	"os"
	"sync"
)

const testModeEnv = "RESTAURANT_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the binary runs under go test and must skip runtime start-up.
func InTestMode() bool {
	return testMode()
}
