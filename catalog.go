package mcrelay

import "fmt"

// catalog assigns ids to packets in registration order, bucketed by
// (Side, State), mirroring how the reference protocol crate numbers packets
// per direction per connection phase. There is no code generator here: the
// catalog is hand-maintained alongside the packet definitions themselves,
// each of which calls Register from its own init().
var catalog = struct {
	next map[[2]uint8]int32
	byID map[[3]any]*PacketID
}{
	next: make(map[[2]uint8]int32),
	byID: make(map[[3]any]*PacketID),
}

// Register assigns the next free id for (side, state) to name and returns
// the catalog entry. It must be called exactly once per packet type, from
// that type's package init().
func Register(side Side, state State, name string) *PacketID {
	key := [2]uint8{uint8(side), uint8(state)}
	id := catalog.next[key]
	catalog.next[key] = id + 1

	pid := &PacketID{
		ID:    id,
		Name:  name,
		Side:  side,
		State: state,
	}
	pid.WireLen = PutVarInt(pid.Wire[:], id)

	lookupKey := [3]any{side, state, id}
	if existing, ok := catalog.byID[lookupKey]; ok {
		panic(fmt.Sprintf("mcrelay: duplicate packet id %d registered for %s/%s: %s and %s",
			id, side, state, existing.Name, name))
	}
	catalog.byID[lookupKey] = pid
	return pid
}

// Lookup returns the catalog entry for (side, state, id), or nil if no
// packet was registered there.
func Lookup(side Side, state State, id int32) *PacketID {
	return catalog.byID[[3]any{side, state, id}]
}
