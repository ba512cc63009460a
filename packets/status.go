package packets

import "github.com/suprohub/mcrelay"

var sStatusRequestCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Status, "status_request")

// SStatusRequest has no fields; its presence alone asks for CStatusResponse.
type SStatusRequest struct{}

func (p *SStatusRequest) Catalog() *mcrelay.PacketID         { return sStatusRequestCat }
func (p *SStatusRequest) EncodeBody(w *mcrelay.Writer) error { return nil }
func (p *SStatusRequest) DecodeBody(r *mcrelay.Reader) error { return nil }

var cStatusResponseCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Status, "status_response")

// CStatusResponse carries the server list ping descriptor as a JSON string;
// the JSON shape itself lives in the server package's Ping type.
type CStatusResponse struct {
	JSON string
}

func (p *CStatusResponse) Catalog() *mcrelay.PacketID { return cStatusResponseCat }

func (p *CStatusResponse) EncodeBody(w *mcrelay.Writer) error {
	w.WriteString(p.JSON)
	return nil
}

func (p *CStatusResponse) DecodeBody(r *mcrelay.Reader) error {
	s, err := r.ReadString(0)
	if err != nil {
		return err
	}
	p.JSON = s
	return nil
}

var sPingRequestCat = mcrelay.Register(mcrelay.Serverbound, mcrelay.Status, "ping_request")

// SPingRequest/CPongResponse form the latency round trip: whatever payload
// the client sends is echoed back unmodified.
type SPingRequest struct {
	Payload int64
}

func (p *SPingRequest) Catalog() *mcrelay.PacketID { return sPingRequestCat }

func (p *SPingRequest) EncodeBody(w *mcrelay.Writer) error {
	w.WriteI64(p.Payload)
	return nil
}

func (p *SPingRequest) DecodeBody(r *mcrelay.Reader) error {
	v, err := r.ReadI64()
	if err != nil {
		return err
	}
	p.Payload = v
	return nil
}

var cPongResponseCat = mcrelay.Register(mcrelay.Clientbound, mcrelay.Status, "pong_response")

type CPongResponse struct {
	Payload int64
}

func (p *CPongResponse) Catalog() *mcrelay.PacketID { return cPongResponseCat }

func (p *CPongResponse) EncodeBody(w *mcrelay.Writer) error {
	w.WriteI64(p.Payload)
	return nil
}

func (p *CPongResponse) DecodeBody(r *mcrelay.Reader) error {
	v, err := r.ReadI64()
	if err != nil {
		return err
	}
	p.Payload = v
	return nil
}
