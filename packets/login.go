package packets

import (
	"github.com/google/uuid"
	"github.com/suprohub/mcrelay"
)

// maxUsernameChars bounds SHello and CLoginFinished's username field.
const maxUsernameChars = 16

// maxServerIDChars bounds CEncryptionRequest's legacy server_id field.
const maxServerIDChars = 20

var sHelloCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Login, "hello")

// SHello opens the login sequence: a claimed username and the uuid the
// client believes it owns.
type SHello struct {
	Username string
	UUID     uuid.UUID
}

func (p *SHello) Catalog() *mcrelay.PacketID { return sHelloCat }

func (p *SHello) EncodeBody(w *mcrelay.Writer) error {
	w.WriteString(p.Username)
	w.WriteUUID(p.UUID)
	return nil
}

func (p *SHello) DecodeBody(r *mcrelay.Reader) error {
	name, err := r.ReadString(maxUsernameChars)
	if err != nil {
		return err
	}
	id, err := r.ReadUUID()
	if err != nil {
		return err
	}
	p.Username = name
	p.UUID = id
	return nil
}

var cEncryptionRequestCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Login, "encryption_request")

// CEncryptionRequest starts the RSA key exchange: the server's DER-encoded
// public key and a random verify token the client must echo back encrypted.
type CEncryptionRequest struct {
	ServerID     string
	PublicKey    []byte
	VerifyToken  []byte
	ShouldVerify bool
}

func (p *CEncryptionRequest) Catalog() *mcrelay.PacketID { return cEncryptionRequestCat }

func (p *CEncryptionRequest) EncodeBody(w *mcrelay.Writer) error {
	w.WriteString(p.ServerID)
	w.WriteByteArray(p.PublicKey)
	w.WriteByteArray(p.VerifyToken)
	w.WriteBool(p.ShouldVerify)
	return nil
}

func (p *CEncryptionRequest) DecodeBody(r *mcrelay.Reader) error {
	serverID, err := r.ReadString(maxServerIDChars)
	if err != nil {
		return err
	}
	pub, err := r.ReadByteArray(0)
	if err != nil {
		return err
	}
	token, err := r.ReadByteArray(0)
	if err != nil {
		return err
	}
	verify, err := r.ReadBool()
	if err != nil {
		return err
	}
	p.ServerID = serverID
	p.PublicKey = pub
	p.VerifyToken = token
	p.ShouldVerify = verify
	return nil
}

var sEncryptionResponseCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Login, "encryption_response")

// SEncryptionResponse answers CEncryptionRequest: the RSA-PKCS1v15-wrapped
// shared secret and the RSA-wrapped verify token, both still encrypted when
// this struct is decoded — unwrapping them is the connection handler's job.
type SEncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (p *SEncryptionResponse) Catalog() *mcrelay.PacketID { return sEncryptionResponseCat }

func (p *SEncryptionResponse) EncodeBody(w *mcrelay.Writer) error {
	w.WriteByteArray(p.SharedSecret)
	w.WriteByteArray(p.VerifyToken)
	return nil
}

func (p *SEncryptionResponse) DecodeBody(r *mcrelay.Reader) error {
	secret, err := r.ReadByteArray(0)
	if err != nil {
		return err
	}
	token, err := r.ReadByteArray(0)
	if err != nil {
		return err
	}
	p.SharedSecret = secret
	p.VerifyToken = token
	return nil
}

var cLoginFinishedCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Login, "login_finished")

// CLoginFinished admits the client. The wire body always carries a trailing
// empty property-count VarInt even though no field models it — see the
// connection state machine's resolution of the two-variants design note.
type CLoginFinished struct {
	UUID     uuid.UUID
	Username string
}

func (p *CLoginFinished) Catalog() *mcrelay.PacketID { return cLoginFinishedCat }

func (p *CLoginFinished) EncodeBody(w *mcrelay.Writer) error {
	w.WriteUUID(p.UUID)
	w.WriteString(p.Username)
	w.WriteVarInt(0)
	return nil
}

func (p *CLoginFinished) DecodeBody(r *mcrelay.Reader) error {
	id, err := r.ReadUUID()
	if err != nil {
		return err
	}
	name, err := r.ReadString(maxUsernameChars)
	if err != nil {
		return err
	}
	propertyCount, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if propertyCount != 0 {
		return mcrelay.ErrProtocol
	}
	p.UUID = id
	p.Username = name
	return nil
}

var sLoginAcknowledgedCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Login, "login_acknowledged")

// SLoginAcknowledged has no fields; it advances the connection into the
// config/data-transfer phase.
type SLoginAcknowledged struct{}

func (p *SLoginAcknowledged) Catalog() *mcrelay.PacketID         { return sLoginAcknowledgedCat }
func (p *SLoginAcknowledged) EncodeBody(w *mcrelay.Writer) error { return nil }
func (p *SLoginAcknowledged) DecodeBody(r *mcrelay.Reader) error { return nil }

var cLoginDisconnectCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Login, "login_disconnect")

// CLoginDisconnect rejects the login attempt with a human-readable reason
// and ends the session.
type CLoginDisconnect struct {
	Reason string
}

func (p *CLoginDisconnect) Catalog() *mcrelay.PacketID { return cLoginDisconnectCat }

func (p *CLoginDisconnect) EncodeBody(w *mcrelay.Writer) error {
	w.WriteString(p.Reason)
	return nil
}

func (p *CLoginDisconnect) DecodeBody(r *mcrelay.Reader) error {
	reason, err := r.ReadString(0)
	if err != nil {
		return err
	}
	p.Reason = reason
	return nil
}

var cLoginCompressionCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Login, "login_compression")

// CLoginCompression announces the compression threshold the connection
// should adopt from this point forward.
type CLoginCompression struct {
	Threshold int32
}

func (p *CLoginCompression) Catalog() *mcrelay.PacketID { return cLoginCompressionCat }

func (p *CLoginCompression) EncodeBody(w *mcrelay.Writer) error {
	w.WriteVarInt(p.Threshold)
	return nil
}

func (p *CLoginCompression) DecodeBody(r *mcrelay.Reader) error {
	v, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	p.Threshold = v
	return nil
}
