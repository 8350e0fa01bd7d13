// Package executor evaluates code snippets through pluggable interpreter
// backends.
//
// # Overview
//
// The executor keeps a registry of [Language] implementations. It supports
// both stateless execution (single Run call) and stateful sessions (multiple
// Run calls with persistent state). Every evaluation is bounded by a timeout
// and reports a [Result].
//
// # Basic Usage
//
//	exec, err := executor.New(executor.WithLanguages(starlark.New()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	lang, _ := exec.Language("starlark")
//	result := exec.Run(ctx, lang, `print("hello")`)
//	fmt.Println(result.Output)
//
// # Sessions
//
// Sessions maintain state across multiple executions:
//
//	session, err := exec.NewSession(lang)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	session.Run(ctx, `x = 42`)
//	session.Run(ctx, `x + 1`)  // Output: 43
//
// # Language Interface
//
// To add support for a new language, implement the [Language] interface.
// See [github.com/caffeineduck/evalterm/language/starlark] for an example.
package executor
