// checkout-worker hosts exactly one pipeline stage, selected by the
// PROCESS_STEP environment variable. One process per stage lets each relay be
// scaled and deployed independently.
package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"library/internal/config"
	"library/internal/logging"
	"library/internal/rabbit"
	"library/internal/worker"
)

func main() {
	cfg := config.Load()
	step := strings.ToLower(cfg.ProcessStep)
	log := logging.New("checkout-worker").With().Str("step", step).Logger()

	stages := worker.Stages(log)
	if step == "" {
		log.Fatal().Msg("PROCESS_STEP not informed")
	}
	stage, ok := stages[step]
	if !ok {
		log.Fatal().
			Str("process_step", step).
			Strs("valid_steps", worker.ValidSteps(stages)).
			Msg("invalid PROCESS_STEP")
	}

	br, err := rabbit.New(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitPrefetch, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to rabbitmq")
	}
	defer br.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx, br, stage); err != nil {
		log.Fatal().Err(err).Msg("starting stage consumer")
	}
	log.Info().Str("queue", stage.Queue()).Msg("stage consumer running")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}
