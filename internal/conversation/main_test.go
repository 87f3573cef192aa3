// ABOUTME: Package test entry point
// ABOUTME: Fails the run if a controller or broadcaster leaks a goroutine

package conversation

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
