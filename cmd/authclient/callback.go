package main

import (
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const callbackPage = `<html><body><p>%s</p><p>You can close this window.</p></body></html>`

// redirectHandler receives the authorization redirect.
type redirectHandler interface {
	HandleRedirect(u *url.URL) bool
}

// newRouter serves the redirect path of redirectURL and the metrics endpoint.
// Requests are rebuilt as the full redirect URL before they are handed on.
func newRouter(redirectURL *url.URL, target redirectHandler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	path := redirectURL.Path
	if path == "" {
		path = "/"
	}
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		u := *redirectURL
		u.RawQuery = req.URL.RawQuery
		if !target.HandleRedirect(&u) {
			log.Warn().Msg("redirect did not match a pending authorization")
			writePage(w, http.StatusNotFound, "No authorization is waiting for this redirect.")
			return
		}
		writePage(w, http.StatusOK, "Authorization received.")
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func writePage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, callbackPage, html.EscapeString(msg))
}
