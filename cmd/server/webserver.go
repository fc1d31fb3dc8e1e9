package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// webServer creates the http server: the websocket evaluation endpoint at
// /ws and scheduler stats at /healthz.
func webServer(addr string, sched *evalScheduler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newMux(sched),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newMux(sched *evalScheduler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(sched))
	mux.HandleFunc("/healthz", healthHandler(sched))
	return mux
}

// websocketHandler upgrades the connection and hands it to the scheduler
// until the client goes away.
func websocketHandler(sched *evalScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // TODO: take allowed origins from a flag once a browser client exists
		})
		if err != nil {
			slog.Warn("websocket accept", "remote", r.RemoteAddr, "err", err)
			return
		}
		defer c.CloseNow()

		slog.Info("got connection", "remote", r.RemoteAddr)
		err = sched.serve(r.Context(), c)
		switch {
		case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
			websocket.CloseStatus(err) == websocket.StatusGoingAway,
			errors.Is(err, context.Canceled):
			slog.Info("connection closed", "remote", r.RemoteAddr)
		default:
			slog.Warn("connection failed", "remote", r.RemoteAddr, "err", err)
		}
	}
}

func healthHandler(sched *evalScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sched.stats()); err != nil {
			slog.Warn("healthz encode", "err", err)
		}
	}
}
