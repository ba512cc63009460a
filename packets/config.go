package packets

import (
	"github.com/google/uuid"
	"github.com/suprohub/mcrelay"
)

const maxLocaleChars = 16

// ChatMode is a VarInt-discriminant enum (no Byte suffix).
type ChatMode int32

const (
	ChatModeEnabled      ChatMode = 0
	ChatModeCommandsOnly ChatMode = 1
	ChatModeHidden       ChatMode = 2
)

// MainHand is a VarInt-discriminant enum.
type MainHand int32

const (
	MainHandLeft  MainHand = 0
	MainHandRight MainHand = 1
)

// ParticleStatus is a VarInt-discriminant enum.
type ParticleStatus int32

const (
	ParticleStatusAll       ParticleStatus = 0
	ParticleStatusDecreased ParticleStatus = 1
	ParticleStatusMinimal   ParticleStatus = 2
)

// DisplayedSkinParts is a bitfield packed into a single u8, per §4.2's rule
// that fixed-width bit layouts are not themselves an "enum" and so carry no
// discriminant of their own.
type DisplayedSkinParts struct {
	Cape          bool
	Jacket        bool
	LeftSleeve    bool
	RightSleeve   bool
	LeftPantsLeg  bool
	RightPantsLeg bool
	Hat           bool
}

const (
	skinPartCape = 1 << iota
	skinPartJacket
	skinPartLeftSleeve
	skinPartRightSleeve
	skinPartLeftPantsLeg
	skinPartRightPantsLeg
	skinPartHat
)

func (d DisplayedSkinParts) pack() uint8 {
	var b uint8
	if d.Cape {
		b |= skinPartCape
	}
	if d.Jacket {
		b |= skinPartJacket
	}
	if d.LeftSleeve {
		b |= skinPartLeftSleeve
	}
	if d.RightSleeve {
		b |= skinPartRightSleeve
	}
	if d.LeftPantsLeg {
		b |= skinPartLeftPantsLeg
	}
	if d.RightPantsLeg {
		b |= skinPartRightPantsLeg
	}
	if d.Hat {
		b |= skinPartHat
	}
	return b
}

func unpackDisplayedSkinParts(b uint8) DisplayedSkinParts {
	return DisplayedSkinParts{
		Cape:          b&skinPartCape != 0,
		Jacket:        b&skinPartJacket != 0,
		LeftSleeve:    b&skinPartLeftSleeve != 0,
		RightSleeve:   b&skinPartRightSleeve != 0,
		LeftPantsLeg:  b&skinPartLeftPantsLeg != 0,
		RightPantsLeg: b&skinPartRightPantsLeg != 0,
		Hat:           b&skinPartHat != 0,
	}
}

var sClientInformationCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Config, "client_information")

// SClientInformation carries client display preferences plus, specific to
// this relay, a PrivateUUID the connection handler compares against the
// value resolved at SHello time — only reachable by a peer that actually
// holds the negotiated shared secret, which is what makes the comparison a
// meaningful MITM check rather than a cosmetic one.
type SClientInformation struct {
	Locale              string
	ViewDistance        int8
	ChatMode            ChatMode
	ChatColors          bool
	SkinParts           DisplayedSkinParts
	MainHand            MainHand
	EnableTextFiltering bool
	AllowServerListings bool
	ParticleStatus      ParticleStatus
	PrivateUUID         uuid.UUID
}

func (p *SClientInformation) Catalog() *mcrelay.PacketID { return sClientInformationCat }

func (p *SClientInformation) EncodeBody(w *mcrelay.Writer) error {
	w.WriteString(p.Locale)
	w.WriteI8(p.ViewDistance)
	w.WriteVarInt(int32(p.ChatMode))
	w.WriteBool(p.ChatColors)
	w.WriteU8(p.SkinParts.pack())
	w.WriteVarInt(int32(p.MainHand))
	w.WriteBool(p.EnableTextFiltering)
	w.WriteBool(p.AllowServerListings)
	w.WriteVarInt(int32(p.ParticleStatus))
	w.WriteUUID(p.PrivateUUID)
	return nil
}

func (p *SClientInformation) DecodeBody(r *mcrelay.Reader) error {
	locale, err := r.ReadString(maxLocaleChars)
	if err != nil {
		return err
	}
	viewDistance, err := r.ReadI8()
	if err != nil {
		return err
	}
	chatMode, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if chatMode < int32(ChatModeEnabled) || chatMode > int32(ChatModeHidden) {
		return mcrelay.ErrProtocol
	}
	chatColors, err := r.ReadBool()
	if err != nil {
		return err
	}
	skinParts, err := r.ReadU8()
	if err != nil {
		return err
	}
	mainHand, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if mainHand < int32(MainHandLeft) || mainHand > int32(MainHandRight) {
		return mcrelay.ErrProtocol
	}
	enableTextFiltering, err := r.ReadBool()
	if err != nil {
		return err
	}
	allowServerListings, err := r.ReadBool()
	if err != nil {
		return err
	}
	particleStatus, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if particleStatus < int32(ParticleStatusAll) || particleStatus > int32(ParticleStatusMinimal) {
		return mcrelay.ErrProtocol
	}
	privateUUID, err := r.ReadUUID()
	if err != nil {
		return err
	}

	p.Locale = locale
	p.ViewDistance = viewDistance
	p.ChatMode = ChatMode(chatMode)
	p.ChatColors = chatColors
	p.SkinParts = unpackDisplayedSkinParts(skinParts)
	p.MainHand = MainHand(mainHand)
	p.EnableTextFiltering = enableTextFiltering
	p.AllowServerListings = allowServerListings
	p.ParticleStatus = ParticleStatus(particleStatus)
	p.PrivateUUID = privateUUID
	return nil
}
