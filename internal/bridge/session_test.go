package bridge

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lexiqai/voice-mechanics/internal/audio"
	"github.com/lexiqai/voice-mechanics/internal/config"
	"github.com/lexiqai/voice-mechanics/internal/reaction"
)

func testConfig() *config.Config {
	return &config.Config{
		TickRate:                   20,
		DispatchQueueSize:          64,
		AudioQueueSize:             16,
		FrameSamples:               960,
		AudioBufferFrames:          4,
		VADThresholdDB:             -70,
		VADSilenceFrames:           10,
		DetectEveryFrames:          1,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
	}
}

func startHost(t *testing.T, cfg *config.Config) (*httptest.Server, string) {
	t.Helper()
	settings := reaction.NewSettingsStore(reaction.DefaultSettings())
	srv := httptest.NewServer(HandleHostWS(cfg, settings))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// loudFrame is one 960-sample frame at about -20dB
func loudFrame() string {
	samples := make([]int16, 960)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 3277
		} else {
			samples[i] = -3277
		}
	}
	return base64.StdEncoding.EncodeToString(audio.PCMToBytes(samples))
}

func TestSession_VoiceTriggersDirective(t *testing.T) {
	_, url := startHost(t, testConfig())

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	player := uuid.New()
	messages := []HostMessage{
		{Event: EventConnected, Server: "test"},
		{Event: EventSnapshot, Snapshot: &SnapshotPayload{
			Tick: 1,
			Entities: []EntityPayload{
				{ID: 1, Species: "skeleton", Position: [3]float64{0, 64, 1}, Height: 1.99},
			},
			Players: []PlayerPayload{
				{ID: player.String(), Name: "alex", Position: [3]float64{0, 64, 0}, Eye: [3]float64{0, 65.62, 0},
					Look: [3]float64{1, 0, 0}, Mode: "survival", Online: true},
			},
		}},
		{Event: EventVoice, Voice: &VoicePayload{Player: player.String(), Codec: "pcm16", Payload: loudFrame()}},
	}
	for _, msg := range messages {
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("WriteJSON failed: %v", err)
		}
	}

	var gotTarget, gotVoice bool
	deadline := time.Now().Add(5 * time.Second)
	for !(gotTarget && gotVoice) {
		conn.SetReadDeadline(deadline)
		var msg ServiceMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON failed (target=%v voice=%v): %v", gotTarget, gotVoice, err)
		}
		switch msg.Event {
		case EventDirective:
			if msg.Directive.Action == "set_target" && msg.Directive.Entity == 1 {
				if msg.Directive.Player != player.String() {
					t.Errorf("Expected target %s, got %s", player, msg.Directive.Player)
				}
				gotTarget = true
			}
		case EventVoiceDetected:
			if msg.VoiceDetected.Player != player.String() {
				t.Errorf("Unexpected voice notification %+v", msg.VoiceDetected)
			}
			if msg.VoiceDetected.Decibels < -21 || msg.VoiceDetected.Decibels > -19 {
				t.Errorf("Expected about -20dB, got %.2f", msg.VoiceDetected.Decibels)
			}
			gotVoice = true
		}
	}

	if err := conn.WriteJSON(HostMessage{Event: EventStop}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

func TestHandleHostWS_RequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.HostToken = "secret"
	_, url := startHost(t, cfg)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected dial without token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %v", resp)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer secret")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Expected dial with token to succeed: %v", err)
	}
	conn.WriteJSON(HostMessage{Event: EventStop})
	conn.Close()
}

func TestAuthorized(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/streams/host", nil)
	if !authorized(r, "") {
		t.Error("Expected no token to allow every host")
	}
	if authorized(r, "secret") {
		t.Error("Expected missing header to be rejected")
	}
	r.Header.Set("Authorization", "Bearer wrong")
	if authorized(r, "secret") {
		t.Error("Expected wrong token to be rejected")
	}
}
