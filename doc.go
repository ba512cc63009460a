// Package mcrelay implements the framed, optionally-compressed,
// optionally-encrypted packet transport used by a Minecraft-protocol-compatible
// relay: a VarInt and primitive wire codec, a packet catalog, and the frame
// encoder/decoder pair that drive a connection through handshake, status or
// login, and into a tunneled data-transfer phase.
package mcrelay
