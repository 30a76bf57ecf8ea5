package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/traefik/yaegi/interp"
)

// childEnv marks a process started by Runner.Run to evaluate one snippet.
const childEnv = "PERPLEXIA_SANDBOX_CHILD"

type request struct {
	Program     string        `json:"program"`
	Entry       string        `json:"entry"`
	Packages    []string      `json:"packages"`
	Timeout     time.Duration `json:"timeout"`
	MemoryLimit int64         `json:"memory_limit"`
}

type response struct {
	Output   string `json:"output"`
	Error    string `json:"error,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// Init turns the current process into a snippet evaluator when it was started
// by a Runner, and exits once the snippet finished. Otherwise it returns
// immediately. Binaries that run snippets call it first thing in main, and
// test binaries first thing in TestMain.
func Init() {
	if os.Getenv(childEnv) != "1" {
		return
	}
	os.Exit(serveChild(os.Stdin, os.Stdout, os.Stderr))
}

func serveChild(in io.Reader, out, errOut io.Writer) int {
	var req request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		fmt.Fprintf(errOut, "sandbox: decode request: %v\n", err)
		return 2
	}
	if err := limitMemory(req.MemoryLimit); err != nil {
		fmt.Fprintf(errOut, "sandbox: limit memory: %v\n", err)
		return 2
	}
	if err := json.NewEncoder(out).Encode(evaluate(req)); err != nil {
		fmt.Fprintf(errOut, "sandbox: encode response: %v\n", err)
		return 2
	}
	return 0
}

func evaluate(req request) (resp response) {
	symbols, err := exportsFor(req.Packages)
	if err != nil {
		return response{Error: err.Error()}
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	i := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr})
	if err := i.Use(symbols); err != nil {
		return response{Error: "load symbols: " + err.Error()}
	}

	defer func() {
		if rec := recover(); rec != nil {
			resp = response{Error: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	for _, src := range []string{req.Program, req.Entry} {
		if _, err := i.EvalWithContext(ctx, src); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return response{TimedOut: true}
			}
			return response{Error: err.Error()}
		}
	}
	return response{Output: stdout.String()}
}
