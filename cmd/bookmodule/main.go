// @title       Book Module API
// @version     1.0
// @description Книги, ресурсы страниц и аннотации читателя.
// @BasePath    /v1
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	a, err := app.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build failed")
	}
	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}
