package backend

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no test leaks goroutines: retry loops and HTTP clients
// must fully unwind when their context ends.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
