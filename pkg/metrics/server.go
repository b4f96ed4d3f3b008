package metrics

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

// Link is one entry on the metrics server's landing page.
type Link struct {
	Href  string
	Label string
}

var landingPage = template.Must(template.New("landing").Parse(`<html><head><title>TF-IDF Search</title></head><body>
<h1>TF-IDF Search Metrics</h1>
<ul>
<li><a href="/metrics">/metrics</a> (Prometheus scrape endpoint)</li>
{{- range .}}
<li><a href="{{.Href}}">{{.Href}}</a>{{with .Label}} ({{.}}){{end}}</li>
{{- end}}
</ul>
</body></html>
`))

// NewMux serves /metrics and a landing page that links /metrics plus the
// given service endpoints.
func NewMux(links ...Link) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := landingPage.Execute(w, links); err != nil {
			slog.Error("rendering metrics landing page", "error", err)
		}
	})
	return mux
}

// StartServer runs NewMux(links...) on port in the background and returns
// its shutdown func.
func StartServer(port int, links ...Link) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewMux(links...),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
