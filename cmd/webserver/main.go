package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trytobebee/snake_io/pkg/config"
	"github.com/trytobebee/snake_io/pkg/scores"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	settings := config.Default()
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	settings.RegisterFlags(flag.CommandLine)
	onePerIP := flag.Bool("one-per-ip", true, "allow a single game per client address")
	flag.Parse()
	if err := settings.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := scores.Open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := NewServer(settings, store, os.Stderr)
	srv.onePerIP = *onePerIP

	httpSrv := &http.Server{
		Addr:              settings.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Snake Game Web Server starting on http://localhost%s\n", settings.Addr)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
