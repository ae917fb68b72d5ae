// Package scheduler corre tareas periódicas del servicio con gocron.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Task tarea periódica. Un error se registra y la tarea vuelve a correr en el siguiente intervalo.
type Task func(ctx context.Context) error

// Run programa task cada interval (la primera ejecución es inmediata) y bloquea hasta que ctx
// se cancele. Si una ejecución se demora más que el intervalo, la siguiente se salta.
func Run(ctx context.Context, name string, interval time.Duration, task Task, log zerolog.Logger) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			if err := task(ctx); err != nil {
				log.Error().Err(err).Str("job", name).Msg("falló la tarea programada")
				return
			}
			log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("tarea programada completada")
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return err
	}

	log.Info().Str("job", name).Dur("interval", interval).Msg("tarea programada iniciada")
	s.Start()

	<-ctx.Done()
	return s.Shutdown()
}
