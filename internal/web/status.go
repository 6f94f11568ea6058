package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/ledgerimport/internal/core"
)

// statusView is the data shown on the status page.
type statusView struct {
	Uptime   time.Duration
	Uploads  core.LimiterStatus
	MaxBytes int64
	Auth     bool
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	view := statusView{
		Uptime:   time.Since(s.started).Truncate(time.Second),
		Uploads:  s.limiter.Status(),
		MaxBytes: s.cfg.Upload.MaxFileSize,
		Auth:     s.cfg.Security.RequireAPIKey,
	}
	templ.Handler(statusPage(view)).ServeHTTP(w, r)
}

// statusPage renders the ledgerd landing page.
func statusPage(v statusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		auth := "disabled"
		if v.Auth {
			auth = "required"
		}
		rows := [][2]string{
			{"Uptime", v.Uptime.String()},
			{"Active uploads", fmt.Sprintf("%d of %d", v.Uploads.Active, v.Uploads.Max)},
			{"Max file size", fmt.Sprintf("%d bytes", v.MaxBytes)},
			{"API key", auth},
		}

		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>ledgerd</title>`+
			`<style>body{font-family:sans-serif;margin:2rem}td{padding:.25rem 1rem}</style></head>`+
			`<body><h1>ledgerd</h1><table>`); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(w, "<tr><th>%s</th><td>%s</td></tr>",
				templ.EscapeString(row[0]), templ.EscapeString(row[1])); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table><p><a href="/metrics">metrics</a> &middot; <a href="/healthz">health</a></p></body></html>`)
		return err
	})
}
