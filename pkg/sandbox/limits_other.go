//go:build !linux

package sandbox

import "runtime/debug"

// limitMemory only sets a soft heap goal outside Linux.
func limitMemory(budget int64) error {
	if budget > 0 {
		debug.SetMemoryLimit(budget)
	}
	return nil
}
