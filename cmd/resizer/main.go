package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/greut/resizer/codec"
	"github.com/greut/resizer/codec/native"
	"github.com/greut/resizer/codec/vips"
	"github.com/greut/resizer/compress"
	"github.com/greut/resizer/config"
	"github.com/greut/resizer/metrics"
	"github.com/greut/resizer/pipeline"
	"github.com/greut/resizer/resizer"
	"github.com/greut/resizer/smartcrop"
	"github.com/greut/resizer/source"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func newCodec(name string) (codec.Codec, error) {
	switch name {
	case "", "vips":
		return vips.New(), nil
	case "native":
		return native.New(), nil
	}
	return nil, fmt.Errorf("unknown codec %#v", name)
}

// listen binds the configured address. In development the next nine ports
// are tried when it is taken.
func listen(c *config.Config, logger *zap.Logger) (net.Listener, error) {
	l, err := net.Listen("tcp", c.Listen())
	if err == nil || c.Mode != config.Development {
		return l, err
	}

	for port := c.Port + 1; port < c.Port+10; port++ {
		if l, e := net.Listen("tcp", net.JoinHostPort(c.Host, strconv.Itoa(port))); e == nil {
			logger.Info("requested port is unavailable, falling back",
				zap.Int("requested", c.Port),
				zap.Int("port", port),
			)
			return l, nil
		}
	}

	return nil, err
}

func main() {
	var configFile = flag.String("config", "config.toml", "Define the configuration file to use.")
	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		explicit = explicit || f.Name == "config"
	})
	if flag.NArg() > 0 {
		*configFile = flag.Arg(0)
		explicit = true
	}

	c, err := config.Load(*configFile, explicit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("resizer",
		zap.String("mode", string(c.Mode)),
		zap.String("codec", c.Codec),
		zap.String("source", c.Source.Name),
	)

	cdc, err := newCodec(c.Codec)
	if err != nil {
		logger.Fatal("codec", zap.Error(err))
	}

	src, err := source.NewFromConfig(c, logger)
	if err != nil {
		logger.Fatal("source", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(metrics.Options{Labels: prometheus.Labels{
		"version":     c.Version,
		"environment": c.Environment,
	}})
	m.Register(registry)

	p := pipeline.New(cdc,
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithFinder(smartcrop.New()),
		pipeline.WithCompressor(compress.New(c.Pngquant, logger)),
		pipeline.WithTracker(m),
	)

	svc := &resizer.Services{
		Source:   src,
		Pipeline: p,
		Metrics:  m,
		Logger:   logger,
	}

	var pool http.Handler
	if c.Cache.Self != "" {
		pool = resizer.NewPool(c.Cache.Self, c.Cache.Peers...)
	}

	handler := resizer.NewHandler(c, svc, resizer.NewGroups("", c, svc), pool)

	l, err := listen(c, logger)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	if c.Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-metrics.Serve(ctx, c.Monitoring.Bind, registry, logger)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("server running", zap.String("listen", l.Addr().String()))
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()

	go func() {
		select {
		case <-time.After(time.Minute):
		case <-sig:
		}
		logger.Fatal("force shutdown")
	}()

	shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}

	wg.Wait()
	logger.Info("shutdown")
}
