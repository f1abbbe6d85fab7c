// library-api hosts the catalog and checkout HTTP endpoints together with the
// order status projector consumers.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"library/internal/catalog"
	"library/internal/checkout"
	"library/internal/config"
	"library/internal/httpapi"
	"library/internal/logging"
	"library/internal/rabbit"
	"library/internal/sqlitedb"
)

func main() {
	cfg := config.Load()
	log := logging.New("library-api")

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	defer db.Close()

	if err := catalog.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrating catalog schema")
	}
	if err := checkout.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrating checkout schema")
	}

	br, err := rabbit.New(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitPrefetch, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to rabbitmq")
	}
	defer br.Close()

	catalogRepo := catalog.NewSQLiteRepo(db)
	catalogSvc := catalog.NewService(catalogRepo, log)

	orderRepo := checkout.NewSQLiteRepo(db)
	checkoutSvc := checkout.NewService(orderRepo, catalogRepo, br, log)
	projector := checkout.NewProjector(checkoutSvc, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := br.Consume(ctx, checkout.ProjectorQueue, projector.Bindings(), projector.Handle); err != nil {
		log.Fatal().Err(err).Msg("starting projector consumer")
	}

	server := httpapi.NewServer(catalogSvc, checkoutSvc, cfg.MaxItemQty, log)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router()}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
