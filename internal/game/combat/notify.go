package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/transport"
)

// Notifier enqueues combat results on the outbound transport channel.
// Sends never block; a full channel drops the update.
type Notifier struct {
	out    chan<- transport.Envelope
	logger *zap.Logger
}

// NewNotifier creates a Notifier writing to out. A nil out discards updates.
//
// Precondition: logger must be non-nil.
func NewNotifier(out chan<- transport.Envelope, logger *zap.Logger) *Notifier {
	return &Notifier{out: out, logger: logger}
}

// Notify encodes u and enqueues it for the online players in p.
//
// Postcondition: at most one Envelope is enqueued.
func (n *Notifier) Notify(p Party, u transport.CombatUpdate) {
	if n == nil || n.out == nil {
		return
	}
	payload, err := transport.EncodeCombatUpdate(u)
	if err != nil {
		n.logger.Error("encoding combat update", zap.Error(err))
		return
	}
	env := transport.Envelope{
		Recipients: recipients(p),
		Kind:       transport.KindCombatUpdate,
		Payload:    payload,
	}
	select {
	case n.out <- env:
	default:
		n.logger.Warn("outbound channel full, dropping combat update",
			zap.String("attacker_id", u.AttackerID.String()),
			zap.String("defender_id", u.DefenderID.String()),
		)
	}
}

func recipients(p Party) []string {
	var out []string
	if p.Attacker.Kind == ecs.KindPlayer && p.Attacker.Online && p.Attacker.ClientAddr != "" {
		out = append(out, p.Attacker.ClientAddr)
	}
	if p.Defender.Kind == ecs.KindPlayer && p.Defender.Online && p.Defender.ClientAddr != "" {
		out = append(out, p.Defender.ClientAddr)
	}
	return out
}
