package chess

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/worldlink"
)

// EventSource delivers world events, typically a *worldlink.Stream.
type EventSource interface {
	OnEvent(cb worldlink.EventCallback) int
	RemoveEventCallback(id int)
}

// Serve handles events from src on a fixed worker pool until ctx ends.
// Events arriving while the queue is full are dropped.
func (s *Service) Serve(ctx context.Context, src EventSource) error {
	if s == nil {
		return ErrServiceNotReady
	}
	queue := make(chan worldlink.Event, s.cfg.EventQueue)
	id := src.OnEvent(func(e *worldlink.Event) {
		if e == nil {
			return
		}
		select {
		case queue <- *e:
		default:
			s.logger.Warn("world_event_dropped", zap.String("event_id", e.ID), zap.String("kind", string(e.Kind)))
		}
	})
	defer src.RemoveEventCallback(id)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.EventWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-queue:
					s.handle(ctx, ev)
				}
			}
		}()
	}
	s.logger.Info("event_loop_started", zap.Int("workers", s.cfg.EventWorkers), zap.Int("queue", s.cfg.EventQueue))
	<-ctx.Done()
	wg.Wait()
	s.logger.Info("event_loop_stopped")
	return nil
}

func (s *Service) handle(ctx context.Context, ev worldlink.Event) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EventTimeout)
	defer cancel()
	res, err := s.HandleEvent(ctx, ev)
	if err != nil {
		de := ToDomainError(err)
		s.logger.Warn("world_event_failed",
			zap.String("event_id", ev.ID),
			zap.String("kind", string(ev.Kind)),
			zap.String("player", ev.Player),
			zap.String("code", de.Code),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("world_event_handled",
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.String("save_id", res.SaveID),
		zap.Bool("handled", res.Handled),
	)
}
