package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/morezero/interaction-router/pkg/db"
	"github.com/morezero/interaction-router/pkg/manifest"
	"github.com/morezero/interaction-router/pkg/registry"
)

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (h *HealthOutput) Healthy() bool { return h.Status == "healthy" }

// Handler builds the HTTP mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/routes", s.handleRoutes)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Health runs every dependency check under the health timeout.
func (s *Server) Health(ctx context.Context) *HealthOutput {
	timeout := 5 * time.Second
	if s.cfg != nil && s.cfg.HealthCheckTimeout > 0 {
		timeout = s.cfg.HealthCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := &HealthOutput{
		Status:    "healthy",
		Checks:    make(map[string]string, len(s.checks)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			out.Status = "unhealthy"
			out.Checks[name] = err.Error()
			continue
		}
		out.Checks[name] = "ok"
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.Health(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !h.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(h)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "starting"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	routes := []registry.Route{}
	if s.reg != nil {
		routes = append(routes, s.reg.Routes()...)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(routes)
}

// homePageTemplate is the HTML for the router home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Interaction Router</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    h1, h2 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    .error { color: #cc0000; }
  </style>
</head>
<body>
  <h1>Interaction Router</h1>
  <p class="meta">Transport {{.Transport}}, registered actions and command manifest.</p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    {{range $name, $result := .Health.Checks}}
    <p>{{$name}}: {{if eq $result "ok"}}<span class="stat">OK</span>{{else}}<span class="error">{{$result}}</span>{{end}}</p>
    {{end}}
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Manifest</h2>
    {{if .Manifest}}
    <p><span class="stat">{{.Manifest.Name}}@{{.Manifest.Version}}</span> ({{len .Manifest.Commands}} commands)</p>
    {{else}}
    <p>No manifest loaded.</p>
    {{end}}
    {{if .SyncError}}
    <p class="error">Could not load sync state: {{.SyncError}}</p>
    {{else if .Sync}}
    <p>Last sync: {{.Sync.ManifestVersion}} ({{.Sync.CommandCount}} commands) at {{.Sync.SyncedAt.Format "2006-01-02 15:04:05"}}</p>
    {{end}}
    {{range .Issues}}
    <p class="error">{{.}}</p>
    {{end}}
  </section>

  <section>
    <h2>Routes</h2>
    {{if not .Routes}}
    <p>No actions registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Kind</th><th>Path</th><th>Action</th><th>Variant</th><th>Description</th></tr>
      </thead>
      <tbody>
        {{range .Routes}}
        <tr>
          <td>{{.Kind}}</td>
          <td>{{join .Path " "}}</td>
          <td>{{.Name}}</td>
          <td>{{.Variant}}</td>
          <td>{{.Description}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Transport string
	Health    *HealthOutput
	Manifest  *manifest.Manifest
	Sync      *db.SyncState
	SyncError string
	Issues    []string
	Routes    []registry.Route
}

// handleHome returns an HTTP handler for the router home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Funcs(template.FuncMap{"join": strings.Join}).Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data := homeData{
			Health:   s.Health(r.Context()),
			Manifest: s.manifest,
			Issues:   append([]string(nil), s.issues...),
		}
		sort.Strings(data.Issues)
		if s.cfg != nil {
			data.Transport = s.cfg.Transport
		}
		if s.reg != nil {
			data.Routes = s.reg.Routes()
		}
		if s.syncState != nil {
			state, err := s.syncState(r.Context())
			if err != nil {
				data.SyncError = err.Error()
			} else {
				data.Sync = state
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
