package fx

import (
	"wordle-golf/internal/api"
	"wordle-golf/internal/config"
	"wordle-golf/internal/database"
	"wordle-golf/internal/logger"
	"wordle-golf/internal/notify"
	"wordle-golf/internal/presentation"
	"wordle-golf/internal/repository"
	"wordle-golf/internal/scheduler"
	"wordle-golf/internal/server"
	"wordle-golf/internal/service"

	"go.uber.org/fx"
)

func providePuzzleSource(client *api.NYTClient) service.PuzzleSource {
	return client
}

func provideRoundStore(repo *repository.RoundRepository) service.RoundStore {
	return repo
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repo
	fx.Provide(repository.NewRoundRepository),
	fx.Provide(provideRoundStore),
	// api client
	fx.Provide(api.NewNYTClient),
	fx.Provide(providePuzzleSource),
	// presentation + transport boundary
	fx.Provide(presentation.NewRenderer),
	fx.Provide(notify.New),
	// svc
	fx.Provide(service.NewRoundService),
	fx.Provide(scheduler.New),
	// server
	fx.Provide(server.NewGolfServer),
)
