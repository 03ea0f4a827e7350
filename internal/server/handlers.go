// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/internal/synth"
)

// maxRequestBytes caps the JSON body of POST /api/ask.
const maxRequestBytes = 64 << 10

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Query}}{{.Query}} - {{end}}Answer Engine</title>
</head>
<body>
<form action="/ask" method="get">
<input type="text" name="q" value="{{.Query}}" size="80" autofocus>
<button type="submit">Ask</button>
</form>
{{if .Answer}}<article>
{{.Answer}}
</article>
{{if .Warnings}}<details><summary>Warnings</summary><ul>
{{range .Warnings}}<li>{{.}}</li>
{{end}}</ul></details>{{end}}
<p><small>{{.Elapsed}}</small></p>
{{end}}</body>
</html>
`))

type pageData struct {
	Query    string
	Answer   template.HTML
	Warnings []string
	Elapsed  string
}

type askRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, http.StatusOK, pageData{})
}

func (s *Server) handleAskAPI(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	res, ok := s.run(r.Context(), query)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, BusyMessage)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAskPage(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	res, ok := s.run(r.Context(), query)
	if !ok {
		http.Error(w, BusyMessage, http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(synth.WithSources(res)), &buf); err != nil {
		s.logger.Error().Err(err).Msg("Rendering answer markdown failed")
		http.Error(w, "rendering answer failed", http.StatusInternalServerError)
		return
	}
	s.writePage(w, http.StatusOK, pageData{
		Query:    query,
		Answer:   template.HTML(buf.String()),
		Warnings: res.Warnings,
		Elapsed:  res.Elapsed.Round(10 * time.Millisecond).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Msg("Rendering page failed")
		http.Error(w, "rendering page failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
