package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/caffeineduck/evalterm/executor"
	"github.com/caffeineduck/evalterm/terminal"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleEval evaluates the code query parameter in the persistent session of
// the requested language and writes the interpreter output.
func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("code") {
		http.Error(w, "code required", http.StatusBadRequest)
		return
	}
	code := q.Get("code")

	name := q.Get("lang")
	if name == "" {
		name = s.cfg.DefaultLanguage
	}
	lang, err := s.exec.Language(name)
	if err != nil {
		if errors.Is(err, executor.ErrUnknownLanguage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sess, err := s.session(lang)
	if err != nil {
		s.logger.Error("session unavailable", "language", name, "error", err)
		http.Error(w, "failed to start session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result := sess.Run(r.Context(), code)
	s.logger.Info("eval",
		"request_id", requestIDFrom(r.Context()),
		"language", name,
		"duration", result.Duration,
		"error", result.Error,
	)

	body := formatResult(result)

	if wantsPayload(r) {
		w.Header().Set("Content-Type", terminal.PayloadMediaType)
		json.NewEncoder(w).Encode(terminal.TextPayload(body))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// formatResult renders output followed by "Error: <msg>" when evaluation
// failed.
func formatResult(result executor.Result) string {
	if result.Error == nil {
		return result.Output
	}
	var b strings.Builder
	b.WriteString(result.Output)
	if result.Output != "" && !strings.HasSuffix(result.Output, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("Error: ")
	b.WriteString(result.Error.Error())
	return b.String()
}

func wantsPayload(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		if strings.Contains(accept, terminal.PayloadMediaType) {
			return true
		}
	}
	return false
}
