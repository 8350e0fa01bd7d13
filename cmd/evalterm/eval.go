package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/evalterm/evalbridge"
	"github.com/caffeineduck/evalterm/fetch"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Submit code to the eval server",
	Long: `Submit code to <server>/eval and print each result as an HTML fragment:

  <p>Result of CODE:&nbsp;&nbsp;RESULT</p>

With --code, one request is sent and the command exits. Otherwise lines are
read interactively; Enter on a non-empty line submits it.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringP("code", "c", "", "Code to submit")
	evalCmd.Flags().Duration("timeout", 0, "Request timeout (0 waits indefinitely)")
	evalCmd.Flags().String("history", "", "History file path (default: ~/.evalterm_eval_history)")
	bindFlags(evalCmd, "eval")
	rootCmd.AddCommand(evalCmd)
}

var errNotSent = errors.New("request not sent")

// writerAlerter shows alerts as lines on w.
type writerAlerter struct {
	w io.Writer
}

func (a writerAlerter) Alert(msg string) {
	fmt.Fprintln(a.w, msg)
}

func runEval(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bridge := evalbridge.New(evalbridge.Config{
		BaseURL: cfg.GetString("server"),
		Client: fetch.NewClient(fetch.Config{
			Timeout: cfg.GetDuration("eval.timeout"),
			Logger:  logger,
		}),
		Output:  evalbridge.NewContainer(func(fragment string) { fmt.Fprintln(out, fragment) }),
		Alerter: writerAlerter{w: cmd.ErrOrStderr()},
		Logger:  logger,
	})

	ctx := cmd.Context()

	if code := cfg.GetString("eval.code"); code != "" {
		if !bridge.KeyPress(ctx, evalbridge.KeyEnter, code) {
			return errNotSent
		}
		bridge.Wait()
		return nil
	}

	historyFile := cfg.GetString("eval.history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".evalterm_eval_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eval> ",
		HistoryFile:     historyFile,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read input: %w", err)
		}
		if bridge.KeyPress(ctx, evalbridge.KeyEnter, line) {
			bridge.Wait()
		}
	}
	return nil
}
