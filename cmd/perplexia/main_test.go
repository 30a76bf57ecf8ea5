package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Protocol-Lattice/perplexia/pkg/models"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
	"github.com/Protocol-Lattice/perplexia/pkg/session"
)

const (
	classifierMarker = "classify into one of the following categories"
	factualMarker    = "Answer the following question concisely"
)

func basicChat(t *testing.T, model models.Agent) *router.Chat {
	t.Helper()
	chat, err := router.New(router.Options{Model: model, Variant: router.VariantBasic})
	require.NoError(t, err)
	return chat
}

func TestBuildLogger(t *testing.T) {
	l, err := buildLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = buildLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = buildLogger("loud", false)
	assert.Error(t, err)
}

func TestReadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\nWho wrote Hamlet?\n\n  What is 2+2?  \n"), 0o644))

	got, err := readQuestions(nil, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Who wrote Hamlet?", "What is 2+2?"}, got)

	got, err = readQuestions(strings.NewReader("from stdin\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, []string{"from stdin"}, got)

	_, err = readQuestions(strings.NewReader("\n# only comments\n"), "-")
	assert.Error(t, err)
}

func TestAnswerAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	model := models.NewScriptedLLM("general").
		Fail("broken question", errors.New("upstream down")).
		On(classifierMarker, "factual").
		On(factualMarker, "an answer")
	chat := basicChat(t, model)

	got, err := answerAll(context.Background(), chat, []string{"first", "broken question", "third"}, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "an answer", got[0])
	assert.Contains(t, got[1], "error:")
	assert.Equal(t, "an answer", got[2])
}

func TestChatLoopCarriesHistory(t *testing.T) {
	model := models.NewScriptedLLM("general").
		On(classifierMarker, "factual").
		On(factualMarker, "noted")
	chat := basicChat(t, model)
	sessions, err := session.New(4, 0)
	require.NoError(t, err)

	in := strings.NewReader("my name is Ada\n\nwhat is my name?\n/reset\nhello\n/exit\nignored\n")
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), chat, sessions, "s", in, &out))

	assert.Contains(t, out.String(), "History cleared.")
	assert.Len(t, sessions.History("s"), 2, "only the turn after /reset remains")

	var sawHistory bool
	for _, p := range model.Prompts() {
		if strings.Contains(p, "what is my name?") && strings.Contains(p, "my name is Ada") {
			sawHistory = true
		}
	}
	assert.True(t, sawHistory, "second question should see the first turn")
}
