package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
)

// ErrPlayerNotFound is returned when a player has no stored progress.
var ErrPlayerNotFound = errors.New("player not found")

const upsertProgress = `
	INSERT INTO player_progress (player_id, player_name, exp, gold, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (player_id) DO UPDATE
	SET player_name = EXCLUDED.player_name,
	    exp         = EXCLUDED.exp,
	    gold        = EXCLUDED.gold,
	    updated_at  = NOW()`

// PlayerRepository persists the experience and gold of players.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// SaveProgress upserts p.
//
// Precondition: p.PlayerID must not be uuid.Nil.
// Postcondition: the stored row for p.PlayerID equals p.
func (r *PlayerRepository) SaveProgress(ctx context.Context, p combat.Progress) error {
	if p.PlayerID == uuid.Nil {
		return fmt.Errorf("saving progress: player id must not be nil")
	}
	if _, err := r.db.Exec(ctx, upsertProgress, p.PlayerID, p.PlayerName, int64(p.Exp), int64(p.Gold)); err != nil {
		return fmt.Errorf("saving progress for %s: %w", p.PlayerID, err)
	}
	return nil
}

// SaveAll upserts every record in one batch round trip. Later records for
// the same player overwrite earlier ones.
//
// Postcondition: Returns nil iff every upsert succeeded.
func (r *PlayerRepository) SaveAll(ctx context.Context, progress []combat.Progress) error {
	if len(progress) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range progress {
		if p.PlayerID == uuid.Nil {
			return fmt.Errorf("saving progress: player id must not be nil")
		}
		batch.Queue(upsertProgress, p.PlayerID, p.PlayerName, int64(p.Exp), int64(p.Gold))
	}
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for _, p := range progress {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("saving progress for %s: %w", p.PlayerID, err)
		}
	}
	return nil
}

// LoadProgress returns the stored progress of a player.
//
// Postcondition: Returns ErrPlayerNotFound if no row exists.
func (r *PlayerRepository) LoadProgress(ctx context.Context, id uuid.UUID) (combat.Progress, error) {
	var (
		p         combat.Progress
		exp, gold int64
	)
	err := r.db.QueryRow(ctx,
		`SELECT player_id, player_name, exp, gold FROM player_progress WHERE player_id = $1`,
		id,
	).Scan(&p.PlayerID, &p.PlayerName, &exp, &gold)
	if errors.Is(err, pgx.ErrNoRows) {
		return combat.Progress{}, ErrPlayerNotFound
	}
	if err != nil {
		return combat.Progress{}, fmt.Errorf("loading progress for %s: %w", id, err)
	}
	p.Exp = uint32(exp)
	p.Gold = uint32(gold)
	return p, nil
}
