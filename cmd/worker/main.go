package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/infrastructure/queue"
	"github.com/jhoicas/stock-engine/pkg/config"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-worker",
	})
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Logger:      asynqLogger{zl: log.Component("asynq")},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeLowStock, queue.NewLowStockProcessor(log.Component("low-stock")).ProcessLowStock)

	if err := srv.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("iniciar worker")
	}
	log.Info().Int("concurrency", cfg.Queue.Concurrency).Msg("worker de alertas iniciado")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando worker...")
	srv.Shutdown()
	log.Info().Msg("worker detenido")
}

// asynqLogger redirige los logs internos de asynq a zerolog.
type asynqLogger struct {
	zl zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.zl.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.zl.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.zl.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.zl.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.zl.Fatal().Msg(fmt.Sprint(args...)) }
