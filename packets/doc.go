// Package packets holds every packet type known to the relay: handshake,
// status, login, client-information, and the tunnel data-transfer envelope.
// Each type registers itself against the root mcrelay catalog from its own
// init(), and implements mcrelay.Packet by encoding/decoding its body in
// declaration order per the field rules in the root package.
package packets
