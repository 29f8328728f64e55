package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

// homePageTemplate is the HTML for the coordinator home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Agent Delegation</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    .transport-simulated { color: #996600; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Agent Delegation</h1>
  <p class="meta">Registered sub-agents and coordinator health.</p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    {{range $name, $ok := .Health.Checks}}
    <p>{{$name}}: {{if $ok}}OK{{else}}<span class="status-unhealthy">Failed</span>{{end}}</p>
    {{end}}
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Agents</h2>
    {{if not .Agents}}
    <p>No agents registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Agent</th><th>Transport</th><th>Target</th><th>Version</th><th>Tools</th></tr>
      </thead>
      <tbody>
        {{range .Agents}}
        <tr>
          <td><a href="/agent/{{.AgentID}}">{{.AgentID}}</a></td>
          <td class="transport-{{.Transport}}">{{.Transport}}</td>
          <td>{{if eq .Transport "nats"}}{{.Subject}}{{else}}{{.Endpoint}}{{end}}</td>
          <td>{{.Version}}</td>
          <td>{{len .Tools}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

// agentDetailPageTemplate is the HTML for a single agent and its tools.
const agentDetailPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.AgentID}} – Agent Delegation</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; vertical-align: top; }
    th { background: #f0f4f8; color: #0066cc; width: 140px; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 0.5rem; }
    section { margin-bottom: 2rem; }
    code { background: #f5f5f5; padding: 0 0.25rem; }
    .back { margin-bottom: 1rem; }
  </style>
</head>
<body>
  <p class="back"><a href="/">← Back to agents</a></p>
  <h1>{{if .DisplayName}}{{.DisplayName}}{{else}}{{.AgentID}}{{end}}</h1>
  {{if .Description}}<p class="meta">{{.Description}}</p>{{end}}

  <section>
    <h2>Details</h2>
    <table>
      <tr><th>Agent</th><td>{{.AgentID}}</td></tr>
      <tr><th>Transport</th><td>{{.Transport}}</td></tr>
      {{if .Endpoint}}<tr><th>Endpoint</th><td>{{.Endpoint}}</td></tr>{{end}}
      {{if .Subject}}<tr><th>Subject</th><td>{{.Subject}}</td></tr>{{end}}
      {{if .Version}}<tr><th>Version</th><td>{{.Version}}</td></tr>{{end}}
    </table>
  </section>

  <section>
    <h2>Tools</h2>
    {{if not .Tools}}
    <p>No tools known for this agent.</p>
    {{else}}
    {{range .Tools}}
    <h3>{{.Name}}</h3>
    {{if .Description}}<p>{{.Description}}</p>{{end}}
    {{if .Required}}<p><strong>Arguments:</strong> {{range .Required}}<code>{{.}}</code> {{end}}</p>{{end}}
    {{end}}
    {{end}}
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Health *HealthOutput
	Agents []AgentView
}

// handleHome returns an HTTP handler for the coordinator home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		data := homeData{Health: s.health(r.Context()), Agents: s.agentViews()}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// handleAgentDetail returns an HTTP handler for the agent detail page.
func (s *Server) handleAgentDetail() http.HandlerFunc {
	tmpl := template.Must(template.New("agentDetail").Parse(agentDetailPageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := s.agentView(r.PathValue("agent"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, view); err != nil {
			slog.Error(fmt.Sprintf("%s - agent detail template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
