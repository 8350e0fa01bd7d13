package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/caffeineduck/evalterm/internal/logging"
)

// cfg merges flags, EVALTERM_* environment variables and the config file.
var cfg = viper.New()

var rootCmd = &cobra.Command{
	Use:   "evalterm",
	Short: "Client and server for remote code evaluation",
	Long: `evalterm - Send code to an eval server and browse it from a terminal.

  eval    submit lines to <server>/eval and print the rendered result
  term    interactive terminal: get [-e] url, help, exit
  serve   run the eval server (starlark, javascript, wasi modules, opt-in go)

Flags may also be set with EVALTERM_* environment variables
(EVALTERM_SERVER, EVALTERM_SERVE_ADDR) or a config file.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("server", "http://localhost:8000", "Eval server base URL")
	pf.String("config", "", "Config file (yaml, toml or json)")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text, json")

	for _, name := range []string{"server", "log-level", "log-format"} {
		cfg.BindPFlag(name, pf.Lookup(name))
	}

	cfg.SetEnvPrefix("EVALTERM")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	cfg.AutomaticEnv()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}
	cfg.SetConfigFile(path)
	if err := cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// bindFlags exposes the local flags of cmd under "<prefix>.<flag>".
func bindFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		cfg.BindPFlag(prefix+"."+f.Name, f)
	})
}

func newLogger() (*slog.Logger, error) {
	return logging.New(os.Stderr, cfg.GetString("log-level"), cfg.GetString("log-format"))
}
