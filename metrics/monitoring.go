package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry:          registry,
		EnableOpenMetrics: true,
	}))
}

// Serve exposes the registry on bind until ctx is done. The returned channel
// is closed once the server has stopped.
func Serve(ctx context.Context, bind string, registry *prometheus.Registry, logger *zap.Logger) <-chan struct{} {
	server := fasthttp.Server{
		Handler:          Handler(registry),
		GetOnly:          true,
		DisableKeepalive: true,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("monitoring enabled", zap.String("bind", bind))
		if err := server.ListenAndServe(bind); err != nil {
			logger.Error("monitoring stopped", zap.String("bind", bind), zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		_ = server.Shutdown()
	}()

	return done
}
