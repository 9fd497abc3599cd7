package gameserver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
)

// ProgressSaver persists player progress. *postgres.PlayerRepository
// implements it.
type ProgressSaver interface {
	SaveAll(ctx context.Context, progress []combat.Progress) error
}

// ProgressWriter drains progress records off the tick goroutine and saves
// them in batches. Multiple records for one player within a batch collapse
// to the latest.
type ProgressWriter struct {
	in       <-chan combat.Progress
	saver    ProgressSaver
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProgressWriter creates a writer flushing every interval.
//
// Precondition: in, saver and logger must be non-nil; interval > 0.
func NewProgressWriter(in <-chan combat.Progress, saver ProgressSaver, interval time.Duration, logger *zap.Logger) *ProgressWriter {
	return &ProgressWriter{
		in:       in,
		saver:    saver,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Run collects records until ctx is cancelled or in is closed, then performs
// a final flush.
//
// Postcondition: every record received before return has been handed to the saver.
func (w *ProgressWriter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	batch := make(map[uuid.UUID]combat.Progress)
	var order []uuid.UUID
	flush := func() {
		if len(order) == 0 {
			return
		}
		records := make([]combat.Progress, 0, len(order))
		for _, id := range order {
			records = append(records, batch[id])
		}
		clear(batch)
		order = order[:0]

		saveCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		if err := w.saver.SaveAll(saveCtx, records); err != nil {
			w.logger.Error("saving player progress", zap.Int("records", len(records)), zap.Error(err))
			return
		}
		w.logger.Debug("saved player progress", zap.Int("records", len(records)))
	}

	for {
		select {
		case <-ctx.Done():
			w.drain(batch, &order)
			flush()
			return nil
		case p, ok := <-w.in:
			if !ok {
				flush()
				return nil
			}
			add(batch, &order, p)
		case <-ticker.C:
			flush()
		}
	}
}

func (w *ProgressWriter) drain(batch map[uuid.UUID]combat.Progress, order *[]uuid.UUID) {
	for {
		select {
		case p, ok := <-w.in:
			if !ok {
				return
			}
			add(batch, order, p)
		default:
			return
		}
	}
}

func add(batch map[uuid.UUID]combat.Progress, order *[]uuid.UUID, p combat.Progress) {
	if _, seen := batch[p.PlayerID]; !seen {
		*order = append(*order, p.PlayerID)
	}
	batch[p.PlayerID] = p
}
