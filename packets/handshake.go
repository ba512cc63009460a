package packets

import (
	"github.com/suprohub/mcrelay"
)

// NextState is the requested connection phase carried by SIntention,
// VarInt-encoded like any other enum not suffixed Byte.
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// maxServerAddressChars bounds SIntention's server_address field; the source
// leaves the bound a free type parameter, so this follows the vanilla
// protocol's own limit.
const maxServerAddressChars = 255

var sIntentionCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Handshake, "intention")

// SIntention is the first packet on every connection: it declares the
// client's protocol version, the address it dialed, and whether it intends
// to query status or log in.
type SIntention struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

func (p *SIntention) Catalog() *mcrelay.PacketID { return sIntentionCat }

func (p *SIntention) EncodeBody(w *mcrelay.Writer) error {
	w.WriteVarInt(p.ProtocolVersion)
	w.WriteString(p.ServerAddress)
	w.WriteU16(p.ServerPort)
	w.WriteVarInt(int32(p.NextState))
	return nil
}

func (p *SIntention) DecodeBody(r *mcrelay.Reader) error {
	v, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	addr, err := r.ReadString(maxServerAddressChars)
	if err != nil {
		return err
	}
	port, err := r.ReadU16()
	if err != nil {
		return err
	}
	next, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if next != int32(NextStateStatus) && next != int32(NextStateLogin) {
		return mcrelay.ErrProtocol
	}
	p.ProtocolVersion = v
	p.ServerAddress = addr
	p.ServerPort = port
	p.NextState = NextState(next)
	return nil
}
