package packets

import (
	"net"

	"github.com/suprohub/mcrelay"
)

// SDataTypeByte is the serverbound tunnel envelope discriminant. Its name
// ends in Byte, so per §4.2 it is tagged with a single u8, not a VarInt.
type SDataTypeByte uint8

const (
	SDataConnect  SDataTypeByte = 0
	SDataProcess  SDataTypeByte = 1
	SDataShutdown SDataTypeByte = 2
)

// CDataTypeByte is the clientbound counterpart; clientbound has no Shutdown
// variant since only the client-side tunnel owner requests teardown.
type CDataTypeByte uint8

const (
	CDataConnect CDataTypeByte = 0
	CDataProcess CDataTypeByte = 1
)

var sDataCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Play, "data")

// SData is the client's tunnel control/data envelope, one variant of which
// is active per value depending on Type.
type SData struct {
	Type SDataTypeByte

	// Connect
	IP    net.IP
	Port  uint16
	IsUDP bool

	// Process / Shutdown
	ConnectionID uint16

	// Process
	Data []byte
}

func (p *SData) Catalog() *mcrelay.PacketID { return sDataCat }

func (p *SData) EncodeBody(w *mcrelay.Writer) error {
	w.WriteU8(uint8(p.Type))
	switch p.Type {
	case SDataConnect:
		w.WriteIPAddr(p.IP)
		w.WriteU16(p.Port)
		w.WriteBool(p.IsUDP)
	case SDataProcess:
		w.WriteU16(p.ConnectionID)
		w.WriteByteArray(p.Data)
	case SDataShutdown:
		w.WriteU16(p.ConnectionID)
	default:
		return mcrelay.ErrProtocol
	}
	return nil
}

func (p *SData) DecodeBody(r *mcrelay.Reader) error {
	tag, err := r.ReadU8()
	if err != nil {
		return err
	}
	switch SDataTypeByte(tag) {
	case SDataConnect:
		ip, err := r.ReadIPAddr()
		if err != nil {
			return err
		}
		port, err := r.ReadU16()
		if err != nil {
			return err
		}
		isUDP, err := r.ReadBool()
		if err != nil {
			return err
		}
		p.Type = SDataConnect
		p.IP = ip
		p.Port = port
		p.IsUDP = isUDP
	case SDataProcess:
		cid, err := r.ReadU16()
		if err != nil {
			return err
		}
		data, err := r.ReadByteArray(0)
		if err != nil {
			return err
		}
		p.Type = SDataProcess
		p.ConnectionID = cid
		p.Data = data
	case SDataShutdown:
		cid, err := r.ReadU16()
		if err != nil {
			return err
		}
		p.Type = SDataShutdown
		p.ConnectionID = cid
	default:
		return mcrelay.ErrProtocol
	}
	return nil
}

var cDataCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Play, "data")

// CData is the server's tunnel acknowledgement/data envelope mirroring
// SData, minus the Shutdown variant.
type CData struct {
	Type CDataTypeByte

	// Connect
	IP           net.IP
	Port         uint16
	IsUDP        bool
	ConnectionID uint16

	// Process
	Data []byte
}

func (p *CData) Catalog() *mcrelay.PacketID { return cDataCat }

func (p *CData) EncodeBody(w *mcrelay.Writer) error {
	w.WriteU8(uint8(p.Type))
	switch p.Type {
	case CDataConnect:
		w.WriteIPAddr(p.IP)
		w.WriteU16(p.Port)
		w.WriteBool(p.IsUDP)
		w.WriteU16(p.ConnectionID)
	case CDataProcess:
		w.WriteU16(p.ConnectionID)
		w.WriteByteArray(p.Data)
	default:
		return mcrelay.ErrProtocol
	}
	return nil
}

func (p *CData) DecodeBody(r *mcrelay.Reader) error {
	tag, err := r.ReadU8()
	if err != nil {
		return err
	}
	switch CDataTypeByte(tag) {
	case CDataConnect:
		ip, err := r.ReadIPAddr()
		if err != nil {
			return err
		}
		port, err := r.ReadU16()
		if err != nil {
			return err
		}
		isUDP, err := r.ReadBool()
		if err != nil {
			return err
		}
		cid, err := r.ReadU16()
		if err != nil {
			return err
		}
		p.Type = CDataConnect
		p.IP = ip
		p.Port = port
		p.IsUDP = isUDP
		p.ConnectionID = cid
	case CDataProcess:
		cid, err := r.ReadU16()
		if err != nil {
			return err
		}
		data, err := r.ReadByteArray(0)
		if err != nil {
			return err
		}
		p.Type = CDataProcess
		p.ConnectionID = cid
		p.Data = data
	default:
		return mcrelay.ErrProtocol
	}
	return nil
}
