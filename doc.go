// Package evalterm sends code to a remote eval server and browses HTTP
// resources from a small command terminal.
//
// # Overview
//
// Two clients share one HTTP layer, [fetch]:
//
//   - [evalbridge] POSTs the text of a code input to /eval?code=... and
//     renders the reply as <p>Result of CODE:&nbsp;&nbsp;RESULT</p>.
//   - [terminal] runs a line-oriented session with get [-e] url, help and
//     exit. Anything else is echoed back.
//
// The [server] package answers /eval with interpreters registered on an
// [executor]: starlark, javascript (goja), go (yaegi) and WASI modules run
// on wazero.
//
// # Basic Usage
//
//	exec, _ := executor.New(executor.WithLanguages(starlark.New()))
//	defer exec.Close()
//
//	s, _ := server.New(server.Config{Executor: exec, DefaultLanguage: "starlark"})
//	go s.HTTPServer().ListenAndServe()
//
//	out := evalbridge.NewContainer(nil)
//	b := evalbridge.New(evalbridge.Config{BaseURL: "http://localhost:8000", Output: out})
//	b.KeyPress(ctx, evalbridge.KeyEnter, "1+1")
//	b.Wait()
//	fmt.Println(out.HTML()) // <p>Result of 1+1:&nbsp;&nbsp;2</p>
//
// The evalterm command wraps all three: evalterm serve, evalterm eval and
// evalterm term.
package evalterm
