package rest

import (
	"context"
	"net/http"
)

// HealthCheck reports whether the backing storage answers.
type HealthCheck func(ctx context.Context) error

type PingHandler interface {
	PingHandler(w http.ResponseWriter, r *http.Request)
}

type pingHandler struct {
	check HealthCheck
}

// NewPingHandler answers pong, or 503 when check fails. A nil check always answers pong.
func NewPingHandler(check HealthCheck) PingHandler {
	return &pingHandler{check: check}
}

func (that *pingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if that.check != nil {
		if err := that.check(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
