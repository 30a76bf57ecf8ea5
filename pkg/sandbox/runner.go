// Package sandbox runs short generated Go snippets inside a yaegi interpreter
// that can only see a fixed set of standard library packages. Each snippet is
// checked against a static policy and then evaluated in a child process with
// a bounded address space, so a runaway snippet dies with its process.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// ErrExecution wraps every failure raised while evaluating a snippet.
var ErrExecution = errors.New("execution error")

// DefaultTimeout bounds a single snippet run when none is configured.
const DefaultTimeout = 5 * time.Second

// DefaultMemoryLimit is the address space a snippet process may map on top of
// what it holds at start-up.
const DefaultMemoryLimit int64 = 512 << 20

// childGrace is how long the parent waits past the run timeout before it
// kills a child that did not report back.
const childGrace = 2 * time.Second

// DefaultPackages is the capability set exposed to snippets: formatting,
// date/time and math. Nothing that touches the filesystem, network or
// process is reachable.
var DefaultPackages = []string{"fmt", "math", "strings", "time"}

// Options configure a Runner.
type Options struct {
	Timeout     time.Duration
	MemoryLimit int64
	Packages    []string
	// Command starts the snippet process. It defaults to the running
	// executable, whose main must call Init before anything else.
	Command []string
	Logger  *zap.Logger
}

// Runner evaluates snippets in a fresh interpreter per call.
type Runner struct {
	timeout     time.Duration
	memoryLimit int64
	packages    []string
	symbols     interp.Exports
	command     []string
	logger      *zap.Logger
}

// New builds a Runner whose interpreters only load the requested packages.
func New(opts Options) (*Runner, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	memoryLimit := opts.MemoryLimit
	if memoryLimit <= 0 {
		memoryLimit = DefaultMemoryLimit
	}
	packages := opts.Packages
	if len(packages) == 0 {
		packages = DefaultPackages
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	symbols, err := exportsFor(packages)
	if err != nil {
		return nil, err
	}
	if _, ok := symbols["fmt/fmt"]; !ok {
		return nil, errors.New("sandbox: fmt must be allowed so snippets can print")
	}

	command := opts.Command
	if len(command) == 0 {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("sandbox: locate executable: %w", err)
		}
		command = []string{self}
	}

	return &Runner{
		timeout:     timeout,
		memoryLimit: memoryLimit,
		packages:    packages,
		symbols:     symbols,
		command:     command,
		logger:      logger,
	}, nil
}

func exportsFor(packages []string) (interp.Exports, error) {
	symbols := make(interp.Exports, len(packages))
	for _, pkg := range packages {
		key := pkg + "/" + pkg[strings.LastIndex(pkg, "/")+1:]
		exports, ok := stdlib.Symbols[key]
		if !ok {
			return nil, fmt.Errorf("sandbox: package %q is not available", pkg)
		}
		symbols[key] = exports
	}
	return symbols, nil
}

// Timeout reports the per-run execution bound.
func (r *Runner) Timeout() time.Duration { return r.timeout }

// Run executes snippet as the body of a function and returns everything it
// printed, trimmed of surrounding whitespace.
func (r *Runner) Run(ctx context.Context, snippet string) (string, error) {
	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return "", fmt.Errorf("%w: empty snippet", ErrExecution)
	}

	program, entry, bodyStart := r.wrap(snippet)
	if err := inspect(program, bodyStart); err != nil {
		return "", err
	}

	payload, err := json.Marshal(request{
		Program:     program,
		Entry:       entry,
		Packages:    r.packages,
		Timeout:     r.timeout,
		MemoryLimit: r.memoryLimit,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrExecution, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout+childGrace)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.command[0], r.command[1:]...)
	cmd.Env = []string{childEnv + "=1"}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", r.processFailure(ctx, runCtx, err, stderr.String())
	}

	var resp response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("%w: malformed sandbox response: %v", ErrExecution, err)
	}
	switch {
	case resp.TimedOut:
		return "", r.timedOut()
	case resp.Error != "":
		return "", fmt.Errorf("%w: %s", ErrExecution, resp.Error)
	}

	r.logger.Debug("snippet executed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("stdout_bytes", len(resp.Output)),
	)
	return strings.TrimSpace(resp.Output), nil
}

func (r *Runner) timedOut() error {
	return fmt.Errorf("%w: timed out after %s", ErrExecution, r.timeout)
}

func (r *Runner) processFailure(ctx, runCtx context.Context, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrExecution, ctxErr)
	}
	if runCtx.Err() != nil {
		return r.timedOut()
	}
	msg := crashReason(stderr)
	if msg == "" {
		msg = err.Error()
	}
	r.logger.Warn("snippet process failed", zap.Error(err), zap.String("reason", msg))
	return fmt.Errorf("%w: %s", ErrExecution, msg)
}

// crashReason extracts the runtime's own explanation from a dead child's
// stderr, such as "fatal error: runtime: out of memory".
func crashReason(stderr string) string {
	var first string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "fatal error:") || strings.HasPrefix(line, "panic:") {
			return line
		}
		if first == "" {
			first = line
		}
	}
	return first
}

// wrap builds the program the interpreter evaluates. bodyStart is the byte
// offset of the entry function declaration inside program.
func (r *Runner) wrap(snippet string) (program, entry string, bodyStart int) {
	var sb strings.Builder
	sb.WriteString("package main\n\nimport (\n")
	for _, pkg := range r.packages {
		sb.WriteString("\t\"" + pkg + "\"\n")
	}
	sb.WriteString(")\n\nvar (\n")
	for _, pkg := range r.packages {
		if marker, ok := usageMarker(r.symbols, pkg); ok {
			sb.WriteString("\t_ = " + marker + "\n")
		}
	}
	sb.WriteString(")\n\n")
	bodyStart = sb.Len()
	sb.WriteString("func Run() {\n")
	sb.WriteString(snippet)
	sb.WriteString("\n}\n")
	return sb.String(), "main.Run()", bodyStart
}

// usageMarker picks an exported function of pkg so the generated import is
// always referenced, whatever the snippet itself uses.
func usageMarker(symbols interp.Exports, pkg string) (string, bool) {
	name := pkg[strings.LastIndex(pkg, "/")+1:]
	exports := symbols[pkg+"/"+name]
	preferred := map[string]string{"fmt": "Sprint", "math": "Abs", "strings": "TrimSpace", "time": "Now"}
	if fn, ok := preferred[name]; ok {
		if _, exists := exports[fn]; exists {
			return name + "." + fn, true
		}
	}
	for sym, v := range exports {
		if v.Kind() == reflect.Func {
			return name + "." + sym, true
		}
	}
	return "", false
}
