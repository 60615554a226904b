package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/reelay/reelay/internal/resolver"
	"github.com/reelay/reelay/internal/web"
)

func main() {
	// .env is optional; flags always win over the environment.
	_ = godotenv.Load()

	var (
		addr         string
		timeout      time.Duration
		probeRefresh time.Duration
		logLevel     string
	)
	flag.StringVar(&addr, "addr", envOr("REELAY_ADDR", ":8080"), "listen address")
	flag.DurationVar(&timeout, "timeout", envDurationOr("REELAY_TIMEOUT", 45*time.Second), "per-backend resolution timeout")
	flag.DurationVar(&probeRefresh, "probe-refresh", envDurationOr("REELAY_PROBE_REFRESH", 5*time.Minute), "backend availability re-probe interval (0 disables)")
	flag.StringVar(&logLevel, "log-level", envOr("REELAY_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", logLevel)
		os.Exit(2)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := resolver.New(resolver.Config{Log: log, Timeout: timeout})
	for id, available := range res.Capabilities() {
		log.WithFields(logrus.Fields{"adapter": id, "available": available}).Info("backend probed")
	}
	if probeRefresh > 0 {
		res.StartRefresh(ctx, probeRefresh)
	}

	log.WithField("addr", addr).Info("listening")
	if err := web.ListenAndServe(ctx, addr, res, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server exited")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
