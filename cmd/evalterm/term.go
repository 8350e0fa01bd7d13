package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/evalterm/fetch"
	"github.com/caffeineduck/evalterm/terminal"
)

var termCmd = &cobra.Command{
	Use:   "term",
	Short: "Interactive terminal with get, help and exit",
	Long: `Start the interactive terminal.

Commands:
  get url        fetch url and print the response body
  get -e url     fetch url as a server payload and print response statistics
  help           clear the screen and show the banner
  exit           close the terminal

Any other input is echoed back. Ctrl+C releases the keyboard; the next Enter
takes it back. Ctrl+D exits.`,
	RunE: runTerm,
}

func init() {
	termCmd.Flags().String("history", "", "History file path (default: ~/.evalterm_history)")
	termCmd.Flags().StringSlice("allow-host", nil, "Allow get to host (repeatable, default: any)")
	termCmd.Flags().Int64("max-body", fetch.DefaultMaxBodySize, "Max response body size")
	termCmd.Flags().Int("max-url", fetch.DefaultMaxURLLength, "Max URL length")
	termCmd.Flags().Duration("timeout", 0, "Request timeout (0 waits indefinitely)")
	bindFlags(termCmd, "term")
	rootCmd.AddCommand(termCmd)
}

func runTerm(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	historyFile := cfg.GetString("term.history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".evalterm_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	client := fetch.NewClient(fetch.Config{
		AllowedHosts: cfg.GetStringSlice("term.allow-host"),
		MaxBodySize:  cfg.GetInt64("term.max-body"),
		MaxURLLength: cfg.GetInt("term.max-url"),
		Timeout:      cfg.GetDuration("term.timeout"),
		Logger:       logger,
	})

	host := terminal.NewHost(terminal.HostConfig{
		Display: terminal.NewConsole(rl),
		Client:  client,
		Logger:  logger,
	})
	sess := host.Open()
	defer sess.Wait()

	ctx := cmd.Context()
	for sess.IsOpen() {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				sess.Blur()
				continue
			}
			if errors.Is(err, io.EOF) {
				sess.Close()
				break
			}
			return fmt.Errorf("read input: %w", err)
		}

		if err := sess.Submit(ctx, line); errors.Is(err, terminal.ErrLocked) {
			sess.Focus()
		}
	}
	return nil
}
