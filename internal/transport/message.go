// Package transport delivers combat notifications to connected clients over
// websockets. The tick systems only ever enqueue Envelopes; all network I/O
// happens in the Hub's worker.
package transport

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// KindCombatUpdate tags an Envelope carrying an encoded CombatUpdate.
const KindCombatUpdate = "combat_update"

// Envelope is one outbound message and the client addresses it is for.
type Envelope struct {
	Recipients []string
	Kind       string
	Payload    []byte
}

// CombatUpdate is the result of one resolved attacker/defender pairing.
type CombatUpdate struct {
	DefenderID   uuid.UUID `msgpack:"defender_id"`
	DefenderName string    `msgpack:"defender_name"`
	AttackerID   uuid.UUID `msgpack:"attacker_id"`
	AttackerName string    `msgpack:"attacker_name"`
	Damage       float32   `msgpack:"damage"`
	DefenderHP   float32   `msgpack:"defender_hp"`
	Exp          uint32    `msgpack:"exp"`
	Gold         uint32    `msgpack:"gold"`
}

// EncodeCombatUpdate serialises u with msgpack.
//
// Postcondition: Returns a non-empty payload or a non-nil error.
func EncodeCombatUpdate(u CombatUpdate) ([]byte, error) {
	data, err := msgpack.Marshal(&u)
	if err != nil {
		return nil, fmt.Errorf("encoding combat update: %w", err)
	}
	return data, nil
}

// DecodeCombatUpdate parses a payload produced by EncodeCombatUpdate.
func DecodeCombatUpdate(data []byte) (CombatUpdate, error) {
	var u CombatUpdate
	if err := msgpack.Unmarshal(data, &u); err != nil {
		return CombatUpdate{}, fmt.Errorf("decoding combat update: %w", err)
	}
	return u, nil
}
