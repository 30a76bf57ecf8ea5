package router

import (
	"os"
	"testing"

	"github.com/Protocol-Lattice/perplexia/pkg/sandbox"
)

// Datetime tests run real snippets, which re-execute this test binary.
func TestMain(m *testing.M) {
	sandbox.Init()
	os.Exit(m.Run())
}
