package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Protocol-Lattice/perplexia/pkg/concurrent"
	"github.com/Protocol-Lattice/perplexia/pkg/router"
	"github.com/Protocol-Lattice/perplexia/pkg/session"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		chat, err := chatStack(ctx)
		if err != nil {
			return err
		}
		res, err := chat.Run(ctx, router.Request{Question: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		logger.Debug("answered",
			zap.String("category", string(res.Category)),
			zap.String("artifact", res.Artifact))
		fmt.Fprintln(cmd.OutOrStdout(), res.Answer)
		return nil
	},
}

var sessionFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat that keeps conversation history",
	Long: `Starts a read-eval-print loop. Each answer sees the previous turns of the
session. Type /reset to clear the history and /exit to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		chat, err := chatStack(ctx)
		if err != nil {
			return err
		}
		sessions, err := newSessions()
		if err != nil {
			return err
		}
		id := sessionFlag
		if id == "" {
			id = uuid.NewString()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s (variant %s). Type /exit to quit.\n", id, chat.Variant())
		return chatLoop(ctx, chat, sessions, id, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func chatLoop(ctx context.Context, chat *router.Chat, sessions *session.Store, id string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			sessions.Reset(id)
			fmt.Fprintln(out, "History cleared.")
			continue
		}

		answer, err := chat.Process(ctx, line, sessions.History(id))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		sessions.Append(id,
			router.Message{Role: "user", Content: line},
			router.Message{Role: "assistant", Content: answer})
		fmt.Fprintln(out, answer)
	}
}

var batchParallel int

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Answer one question per line of a file concurrently",
	Long: `Reads questions from a file (or stdin when the file is "-"), one per line,
and answers them concurrently. Blank lines and lines starting with # are
ignored. Answers are printed in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		questions, err := readQuestions(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		chat, err := chatStack(ctx)
		if err != nil {
			return err
		}

		start := time.Now()
		results, err := answerAll(ctx, chat, questions, batchParallel)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, q := range questions {
			fmt.Fprintf(out, "Q: %s\nA: %s\n\n", q, results[i])
		}
		logger.Info("batch complete", zap.Int("questions", len(questions)), zap.Duration("duration", time.Since(start)))
		return nil
	},
}

// answerAll processes every question independently. A failed question is
// reported in its slot and does not cancel the others.
func answerAll(ctx context.Context, chat *router.Chat, questions []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = concurrent.DefaultLimit
	}
	results := make([]string, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, q := range questions {
		g.Go(func() error {
			answer, err := chat.Process(gctx, q, nil)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				answer = "error: " + err.Error()
			}
			results[i] = answer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readQuestions(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no questions in %s", path)
	}
	return out, nil
}

func init() {
	chatCmd.Flags().StringVar(&sessionFlag, "session", "", "Session id to use (defaults to a new uuid)")
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", concurrent.DefaultLimit, "Questions answered at once")
}
