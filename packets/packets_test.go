package packets

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/suprohub/mcrelay"
)

func roundTrip(t *testing.T, encode func(*mcrelay.Writer) error, decode func(*mcrelay.Reader) error) {
	t.Helper()
	w := mcrelay.NewWriter()
	if err := encode(w); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := decode(mcrelay.NewReader(w.Bytes())); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestSIntentionRoundTrip(t *testing.T) {
	want := &SIntention{
		ProtocolVersion: 770,
		ServerAddress:   "host",
		ServerPort:      25565,
		NextState:       NextStateLogin,
	}
	got := &SIntention{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSIntentionWireBytes(t *testing.T) {
	p := &SIntention{ProtocolVersion: 770, ServerAddress: "host", ServerPort: 25565, NextState: NextStateLogin}
	w := mcrelay.NewWriter()
	if err := p.EncodeBody(w); err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	want := []byte{0x82, 0x06, 0x04, 'h', 'o', 's', 't', 0x63, 0xdd, 0x02}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("wire bytes = % x, want % x", w.Bytes(), want)
	}
}

func TestSIntentionRejectsBadNextState(t *testing.T) {
	w := mcrelay.NewWriter()
	w.WriteVarInt(770)
	w.WriteString("host")
	w.WriteU16(25565)
	w.WriteVarInt(99)

	p := &SIntention{}
	if err := p.DecodeBody(mcrelay.NewReader(w.Bytes())); err == nil {
		t.Fatalf("expected error for out-of-range next_state")
	}
}

func TestStatusRoundTrip(t *testing.T) {
	wantResp := &CStatusResponse{JSON: `{"description":"hi"}`}
	gotResp := &CStatusResponse{}
	roundTrip(t, wantResp.EncodeBody, gotResp.DecodeBody)
	if gotResp.JSON != wantResp.JSON {
		t.Errorf("got %q, want %q", gotResp.JSON, wantResp.JSON)
	}

	wantPing := &SPingRequest{Payload: -12345}
	gotPing := &SPingRequest{}
	roundTrip(t, wantPing.EncodeBody, gotPing.DecodeBody)
	if gotPing.Payload != wantPing.Payload {
		t.Errorf("got %d, want %d", gotPing.Payload, wantPing.Payload)
	}
}

func TestSHelloRoundTrip(t *testing.T) {
	want := &SHello{Username: "steve", UUID: uuid.New()}
	got := &SHello{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if got.Username != want.Username || got.UUID != want.UUID {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCLoginFinishedAlwaysEmitsTrailingZero(t *testing.T) {
	p := &CLoginFinished{UUID: uuid.New(), Username: "steve"}
	w := mcrelay.NewWriter()
	if err := p.EncodeBody(w); err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	// last byte of the body must be the property-count VarInt(0) = 0x00
	if got := w.Bytes()[len(w.Bytes())-1]; got != 0x00 {
		t.Errorf("trailing byte = %#x, want 0x00", got)
	}

	got := &CLoginFinished{}
	if err := got.DecodeBody(mcrelay.NewReader(w.Bytes())); err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if got.Username != p.Username || got.UUID != p.UUID {
		t.Errorf("got %+v, want %+v", got, p)
	}
}

func TestCLoginFinishedRejectsNonZeroPropertyCount(t *testing.T) {
	w := mcrelay.NewWriter()
	w.WriteUUID(uuid.New())
	w.WriteString("steve")
	w.WriteVarInt(1)

	got := &CLoginFinished{}
	if err := got.DecodeBody(mcrelay.NewReader(w.Bytes())); err == nil {
		t.Fatalf("expected error for non-zero property count")
	}
}

func TestCEncryptionRequestRoundTrip(t *testing.T) {
	want := &CEncryptionRequest{
		ServerID:     "",
		PublicKey:    []byte{1, 2, 3, 4},
		VerifyToken:  []byte{5, 6, 7, 8},
		ShouldVerify: false,
	}
	got := &CEncryptionRequest{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSClientInformationRoundTrip(t *testing.T) {
	want := &SClientInformation{
		Locale:       "en_us",
		ViewDistance: 10,
		ChatMode:     ChatModeCommandsOnly,
		ChatColors:   true,
		SkinParts: DisplayedSkinParts{
			Cape: true, Jacket: false, LeftSleeve: true, RightSleeve: false,
			LeftPantsLeg: true, RightPantsLeg: false, Hat: true,
		},
		MainHand:            MainHandLeft,
		EnableTextFiltering: false,
		AllowServerListings: true,
		ParticleStatus:      ParticleStatusDecreased,
		PrivateUUID:         uuid.New(),
	}
	got := &SClientInformation{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSClientInformationRejectsBadEnum(t *testing.T) {
	w := mcrelay.NewWriter()
	w.WriteString("en_us")
	w.WriteI8(10)
	w.WriteVarInt(99) // invalid chat mode
	w.WriteBool(true)
	w.WriteU8(0)
	w.WriteVarInt(int32(MainHandLeft))
	w.WriteBool(false)
	w.WriteBool(true)
	w.WriteVarInt(int32(ParticleStatusAll))
	w.WriteUUID(uuid.New())

	got := &SClientInformation{}
	if err := got.DecodeBody(mcrelay.NewReader(w.Bytes())); err == nil {
		t.Fatalf("expected error for out-of-range chat mode")
	}
}

func TestSDataConnectRoundTrip(t *testing.T) {
	want := &SData{Type: SDataConnect, IP: net.ParseIP("192.168.1.1").To4(), Port: 25565, IsUDP: false}
	got := &SData{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if got.Type != want.Type || !got.IP.Equal(want.IP) || got.Port != want.Port || got.IsUDP != want.IsUDP {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSDataProcessRoundTrip(t *testing.T) {
	want := &SData{Type: SDataProcess, ConnectionID: 42, Data: []byte("payload")}
	got := &SData{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSDataShutdownRoundTrip(t *testing.T) {
	want := &SData{Type: SDataShutdown, ConnectionID: 7}
	got := &SData{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if got.Type != want.Type || got.ConnectionID != want.ConnectionID {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCDataConnectRoundTrip(t *testing.T) {
	v6 := net.ParseIP("::1")
	want := &CData{Type: CDataConnect, IP: v6, Port: 8080, IsUDP: true, ConnectionID: 99}
	got := &CData{}
	roundTrip(t, want.EncodeBody, got.DecodeBody)
	if got.Type != want.Type || !got.IP.Equal(want.IP) || got.Port != want.Port ||
		got.IsUDP != want.IsUDP || got.ConnectionID != want.ConnectionID {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
