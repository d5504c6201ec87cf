package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	MessagesChecked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modbot_messages_checked_total",
			Help: "Total number of inbound messages screened",
		},
	)

	MessagesFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbot_messages_flagged_total",
			Help: "Total number of messages removed, by reason",
		},
		[]string{"reason"},
	)

	ModerationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbot_moderation_actions_total",
			Help: "Total number of applied moderation actions, by action",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(MessagesChecked)
	prometheus.MustRegister(MessagesFlagged)
	prometheus.MustRegister(ModerationActions)
}

// Server exposes /metrics. It satisfies lifecycle.Component.
type Server struct {
	srv *http.Server
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start(_ context.Context) error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
