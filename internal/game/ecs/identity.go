package ecs

import (
	"github.com/google/uuid"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// Kind tags an Identity as a player or a monster.
type Kind int

const (
	KindPlayer Kind = iota
	KindMonster
)

// String returns "player" or "monster".
func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "monster"
}

// Identity is the shared identity of a player or monster. Exactly one Kind
// applies; monsters have an empty ClientAddr and are always online.
type Identity struct {
	Kind       Kind
	ID         uuid.UUID
	Name       string
	ClientAddr string
	Online     bool
}

// IsPlayer reports whether the identity belongs to a player.
func (i Identity) IsPlayer() bool { return i.Kind == KindPlayer }

// IsMonster reports whether the identity belongs to a monster.
func (i Identity) IsMonster() bool { return i.Kind == KindMonster }

// PlayerIdentity builds the identity of a player.
func PlayerIdentity(p PlayerDetails) Identity {
	return Identity{
		Kind:       KindPlayer,
		ID:         p.ID,
		Name:       p.PlayerName,
		ClientAddr: p.ClientAddr,
		Online:     p.CurrentlyOnline,
	}
}

// MonsterIdentity builds the identity of a monster.
func MonsterIdentity(m MonsterDetails) Identity {
	return Identity{
		Kind:   KindMonster,
		ID:     m.ID,
		Name:   m.MonsterType,
		Online: true,
	}
}

// IdentityOf returns the identity of the entity behind entry. Player details
// take precedence over monster details.
//
// Postcondition: Returns (identity, true) iff entry carries PlayerDetails or
// MonsterDetails.
func IdentityOf(entry *donburi.Entry) (Identity, bool) {
	if entry.HasComponent(PlayerComponent) {
		return PlayerIdentity(*PlayerComponent.Get(entry)), true
	}
	if entry.HasComponent(MonsterComponent) {
		return MonsterIdentity(*MonsterComponent.Get(entry)), true
	}
	return Identity{}, false
}

// PlayerOrMonster matches entities that are either a player or a monster.
func PlayerOrMonster() filter.LayoutFilter {
	return filter.Or(
		filter.Contains(PlayerComponent),
		filter.Contains(MonsterComponent),
	)
}

// CombatantFilter matches entities that can take part in combat resolution.
func CombatantFilter() filter.LayoutFilter {
	return filter.And(
		filter.Contains(StatsComponent, InventoryComponent),
		PlayerOrMonster(),
	)
}

// MovingCombatantFilter matches entities that can start combat by moving.
func MovingCombatantFilter() filter.LayoutFilter {
	return filter.And(
		filter.Contains(PositionComponent, StatsComponent, InventoryComponent),
		PlayerOrMonster(),
	)
}
