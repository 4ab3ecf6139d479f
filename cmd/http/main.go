package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awmpietro/golang-rule-engine-case/internal/app"
	"github.com/awmpietro/golang-rule-engine-case/internal/config"
	"github.com/awmpietro/golang-rule-engine-case/internal/transport/httptransport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	svc, closeSvc, err := app.NewFromConfig(cfg, log.Default())
	if err != nil {
		log.Fatalf("build service: %v", err)
	}

	mux := http.NewServeMux()
	httptransport.NewHandler(svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = closeSvc()
		log.Fatalf("listen: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on %s evaluator=%s store=%q", ln.Addr(), cfg.Evaluator, cfg.StorePath)
	if err := serve(ctx, srv, ln, closeSvc); err != nil {
		log.Fatalf("serve: %v", err)
	}
	log.Printf("shutdown complete")
}

// serve runs srv on ln until ctx is done, then drains in-flight requests
// before closeSvc releases the store and flushes the observers.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, closeSvc func() error) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return errors.Join(err, closeSvc())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		shutdownErr = errors.Join(shutdownErr, err)
	}
	return errors.Join(shutdownErr, closeSvc())
}
