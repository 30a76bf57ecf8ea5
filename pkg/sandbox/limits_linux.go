//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// limitMemory caps the address space the process may still map at budget
// bytes above what it holds now. An allocation past the cap kills the
// process with a runtime out-of-memory error.
func limitMemory(budget int64) error {
	if budget <= 0 {
		return nil
	}
	debug.SetMemoryLimit(budget)

	mapped, err := mappedBytes()
	if err != nil {
		return err
	}
	limit := uint64(mapped + budget)

	var current unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_AS, &current); err == nil && current.Max < limit {
		limit = current.Max
	}
	return unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: limit, Max: limit})
}

func mappedBytes() (int64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("unexpected statm content %q", data)
	}
	pages, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse statm: %w", err)
	}
	return pages * int64(os.Getpagesize()), nil
}
