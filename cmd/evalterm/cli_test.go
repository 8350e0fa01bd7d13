package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/evalterm/evalbridge"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedPhrases := []string{
		"evalterm",
		"eval",
		"term",
		"serve",
		"--server",
		"--config",
		"--log-level",
		"EVALTERM_",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("help output should contain %q", phrase)
		}
	}
}

func TestCLIEvalHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "eval", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, phrase := range []string{"--code", "--timeout", "--history", "Result of"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("eval help output should contain %q", phrase)
		}
	}
}

func TestCLITermHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "term", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, phrase := range []string{"get -e url", "help", "exit", "--allow-host", "--max-body", "--history"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("term help output should contain %q", phrase)
		}
	}
}

func TestCLIServeHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "serve", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, phrase := range []string{"--addr", "--lang", "--timeout", "--enable-go", "--wasm-module", "/eval", "/health"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("serve help output should contain %q", phrase)
		}
	}
}

func TestCLIEvalCode(t *testing.T) {
	var gotQuery, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.Write([]byte("2"))
	}))
	defer srv.Close()

	output, err := executeCommand(rootCmd, "eval", "--server", srv.URL, "-c", "1+1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotQuery != "code=1%2B1" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if want := evalbridge.Render("1+1", "2"); !strings.Contains(output, want) {
		t.Errorf("output %q should contain %q", output, want)
	}
}

func TestCLIConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evalterm.yaml")
	if err := os.WriteFile(path, []byte("serve:\n  lang: javascript\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", path, "")
	if err := initConfig(cmd, nil); err != nil {
		t.Fatalf("initConfig: %v", err)
	}
	if got := cfg.GetString("serve.lang"); got != "javascript" {
		t.Errorf("expected javascript from config file, got %q", got)
	}
}

func TestCLIConfigFileMissing(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", filepath.Join(t.TempDir(), "missing.yaml"), "")
	if err := initConfig(cmd, nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestCLIExecutorLanguages(t *testing.T) {
	tests := []struct {
		name     string
		enableGo bool
		want     []string
	}{
		{"default", false, []string{"javascript", "starlark"}},
		{"go enabled", true, []string{"go", "javascript", "starlark"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg.Set("serve.enable-go", tc.enableGo)
			t.Cleanup(func() { cfg.Set("serve.enable-go", false) })

			exec, err := newExecutor()
			if err != nil {
				t.Fatalf("newExecutor: %v", err)
			}
			defer exec.Close()

			if diff := cmp.Diff(tc.want, exec.Languages()); diff != "" {
				t.Errorf("languages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCLIServeDefaultAddrIsLoopback(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr").DefValue
	if !strings.HasPrefix(addr, "localhost:") {
		t.Errorf("default listen address %q should be loopback", addr)
	}
}
