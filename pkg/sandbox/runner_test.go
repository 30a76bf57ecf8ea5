package sandbox

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	Init()
	goleak.VerifyTestMain(m)
}

func newRunner(t *testing.T, timeout time.Duration) *Runner {
	t.Helper()
	r, err := New(Options{Timeout: timeout})
	require.NoError(t, err)
	return r
}

func TestRunCapturesPrintedOutput(t *testing.T) {
	r := newRunner(t, 0)
	out, err := r.Run(context.Background(), `fmt.Println("2024-01-01")`)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", out)
}

func TestRunUsesTimePackage(t *testing.T) {
	r := newRunner(t, 0)
	out, err := r.Run(context.Background(), `d := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
fmt.Println(d.AddDate(0, 0, 30).Format("2006-01-02"))`)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", out)
}

func TestRunTrimsWhitespace(t *testing.T) {
	r := newRunner(t, 0)
	out, err := r.Run(context.Background(), `fmt.Print("  42\n\n")`)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestRunReportsCompileErrors(t *testing.T) {
	r := newRunner(t, 0)
	_, err := r.Run(context.Background(), `fmt.Println(undefinedThing)`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
}

func TestRunBlocksUnlistedPackages(t *testing.T) {
	r := newRunner(t, 0)
	_, err := r.Run(context.Background(), `os.Exit(3)`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
}

func TestRunRecoversRuntimePanics(t *testing.T) {
	r := newRunner(t, 0)
	_, err := r.Run(context.Background(), `var xs []int
fmt.Println(xs[3])`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
}

// waitForGoroutines polls until the goroutine count drops back to want.
func waitForGoroutines(t *testing.T, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > want && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), want)
}

func TestRunEnforcesTimeout(t *testing.T) {
	r := newRunner(t, 200*time.Millisecond)
	before := runtime.NumGoroutine()
	start := time.Now()
	_, err := r.Run(context.Background(), "x := 0\nfor {\n\tx = x + 1\n}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
	waitForGoroutines(t, before)
}

func TestRunHonoursCallerCancellation(t *testing.T) {
	r := newRunner(t, 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := r.Run(ctx, "x := 0\nfor {\n\tx = x + 1\n}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunRejectsGoroutines(t *testing.T) {
	r := newRunner(t, 200*time.Millisecond)
	before := runtime.NumGoroutine()
	_, err := r.Run(context.Background(), "go func() {\n\tfor {\n\t}\n}()\nfmt.Println(\"started\")")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
	assert.True(t, errors.Is(err, ErrDisallowed))
	assert.Contains(t, err.Error(), "go statement")
	waitForGoroutines(t, before)
}

func TestRunRejectsChannelsAndSelect(t *testing.T) {
	r := newRunner(t, 0)
	cases := map[string]string{
		"make channel": "ch := make(chan int, 1)\nfmt.Println(len(ch))",
		"send":         "var ch chan int\nch <- 1",
		"receive":      "var ch chan int\nfmt.Println(<-ch)",
		"select":       "select {}",
	}
	for name, snippet := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Run(context.Background(), snippet)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDisallowed), err.Error())
		})
	}
}

func TestRunRejectsBlockingTimeCalls(t *testing.T) {
	r := newRunner(t, 0)
	snippets := []string{
		`time.Sleep(time.Hour)`,
		`fmt.Println(time.After(time.Hour))`,
		`fmt.Println(time.Tick(time.Hour))`,
		`t := time.NewTimer(time.Hour)
fmt.Println(t)`,
		`t := time.NewTicker(time.Hour)
fmt.Println(t)`,
		`time.AfterFunc(time.Hour, func() {})`,
		`sleep := time.Sleep
sleep(time.Hour)`,
	}
	for _, snippet := range snippets {
		start := time.Now()
		_, err := r.Run(context.Background(), snippet)
		require.Error(t, err, snippet)
		assert.True(t, errors.Is(err, ErrDisallowed), snippet)
		assert.Less(t, time.Since(start), time.Second, snippet)
	}
}

func TestRunRejectsExtraTopLevelDeclarations(t *testing.T) {
	r := newRunner(t, 0)
	snippets := []string{
		"}\nfunc init() {\n\tfmt.Println(\"init ran\")\n}\nfunc X() {",
		"}\nvar leaked = fmt.Sprint(\"x\")\nfunc X() {",
		"}\nfunc Run2() {",
	}
	for _, snippet := range snippets {
		out, err := r.Run(context.Background(), snippet)
		require.Error(t, err, snippet)
		assert.True(t, errors.Is(err, ErrDisallowed), snippet)
		assert.Empty(t, out)
	}
}

func TestRunAllowsTimeArithmetic(t *testing.T) {
	r := newRunner(t, 0)
	out, err := r.Run(context.Background(), `d := 90 * time.Minute
fmt.Println(d.Hours())`)
	require.NoError(t, err)
	assert.Equal(t, "1.5", out)
}

func TestRunRejectsEmptySnippet(t *testing.T) {
	r := newRunner(t, 0)
	_, err := r.Run(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrExecution))
}

func TestRunOutputIsRequestScoped(t *testing.T) {
	r := newRunner(t, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			want := strconv.Itoa(n)
			out, err := r.Run(context.Background(), `fmt.Println(`+want+`)`)
			assert.NoError(t, err)
			assert.Equal(t, want, out)
		}(i)
	}
	wg.Wait()
}

func TestNewRejectsUnknownPackage(t *testing.T) {
	_, err := New(Options{Packages: []string{"fmt", "definitely/not/a/package"}})
	require.Error(t, err)
}

func TestNewRequiresFmt(t *testing.T) {
	_, err := New(Options{Packages: []string{"time"}})
	require.Error(t, err)
}
