package relay

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interaction-router/pkg/dispatcher"
	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/registry"
	"github.com/morezero/interaction-router/pkg/session"
)

const relayTestPrefix = "relay:relay_test"

func startTestServer(t *testing.T, port int) *comms.Conn {
	t.Helper()

	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: port, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", relayTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server not ready", relayTestPrefix)
	}
	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", relayTestPrefix, err)
	}
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return nc
}

// fakeGateway answers outbound calls and records them.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []dispatcher.ResponseCall
	reject string
	got    chan dispatcher.ResponseCall
}

func newFakeGateway(t *testing.T, nc *comms.Conn, subject string) *fakeGateway {
	t.Helper()
	g := &fakeGateway{got: make(chan dispatcher.ResponseCall, 16)}
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var call dispatcher.ResponseCall
		if err := json.Unmarshal(msg.Data, &call); err != nil {
			t.Errorf("%s - gateway decode: %v", relayTestPrefix, err)
			return
		}
		g.mu.Lock()
		g.calls = append(g.calls, call)
		reject := g.reject
		g.mu.Unlock()

		resp := dispatcher.CallResponse{ID: call.ID, Ok: reject == ""}
		if reject != "" {
			resp.Error = &dispatcher.ErrorDetail{Code: reject, Message: "unknown interaction"}
		}
		data, _ := json.Marshal(resp)
		_ = msg.Respond(data)
		g.got <- call
	})
	if err != nil {
		t.Fatalf("%s - gateway subscribe: %v", relayTestPrefix, err)
	}
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	return g
}

func (g *fakeGateway) next(t *testing.T) dispatcher.ResponseCall {
	t.Helper()
	select {
	case c := <-g.got:
		return c
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timeout waiting for gateway call", relayTestPrefix)
		return dispatcher.ResponseCall{}
	}
}

func TestTransport_Calls(t *testing.T) {
	nc := startTestServer(t, 14240)
	gw := newFakeGateway(t, nc, "interactions.outbound.>")
	tr := NewTransport(NewTransportParams{Conn: nc, FollowUps: true})
	in := &interaction.Interaction{ID: "i-1", ApplicationID: "app", Token: "tok", Kind: interaction.KindCommand}
	ctx := context.Background()

	if err := tr.CreateInitialResponse(ctx, in, session.ResponseDeferredMessage, nil, session.FlagEphemeral); err != nil {
		t.Fatalf("%s - initial: %v", relayTestPrefix, err)
	}
	c := gw.next(t)
	if c.Call != session.CallInitial || c.ResponseType != "deferred_message" || c.Flags != uint64(session.FlagEphemeral) || c.Token != "tok" {
		t.Errorf("%s - initial call = %+v", relayTestPrefix, c)
	}

	if err := tr.EditInitialResponse(ctx, in, interaction.Text("done")); err != nil {
		t.Fatalf("%s - edit: %v", relayTestPrefix, err)
	}
	if c := gw.next(t); c.Call != session.CallEdit || c.Content != "done" {
		t.Errorf("%s - edit call = %+v", relayTestPrefix, c)
	}

	if err := tr.CreateFollowUp(ctx, in, interaction.Text("more"), 0); err != nil {
		t.Fatalf("%s - follow-up: %v", relayTestPrefix, err)
	}
	if c := gw.next(t); c.Call != session.CallFollowUp || c.Content != "more" {
		t.Errorf("%s - follow-up call = %+v", relayTestPrefix, c)
	}
}

func TestTransport_Rejected(t *testing.T) {
	nc := startTestServer(t, 14241)
	gw := newFakeGateway(t, nc, "interactions.outbound.>")
	gw.reject = "UNKNOWN_INTERACTION"
	tr := NewTransport(NewTransportParams{Conn: nc})

	err := tr.EditInitialResponse(context.Background(), &interaction.Interaction{ID: "i"}, interaction.Text("x"))
	if err == nil || !strings.Contains(err.Error(), "UNKNOWN_INTERACTION") {
		t.Errorf("%s - expected rejection error, got %v", relayTestPrefix, err)
	}
}

func TestTransport_NoGateway(t *testing.T) {
	nc := startTestServer(t, 14242)
	tr := NewTransport(NewTransportParams{Conn: nc, CallTimeout: 500 * time.Millisecond})

	err := tr.CreateFollowUp(context.Background(), &interaction.Interaction{ID: "i"}, interaction.Text("x"), 0)
	if err == nil {
		t.Errorf("%s - expected error without a gateway", relayTestPrefix)
	}
}

func TestTransport_WithoutFollowUps(t *testing.T) {
	tr := NewTransport(NewTransportParams{FollowUps: true})
	if !tr.SupportsFollowUp() || tr.WithoutFollowUps().SupportsFollowUp() {
		t.Errorf("%s - WithoutFollowUps should only affect the copy", relayTestPrefix)
	}
	if !tr.SupportsFollowUp() {
		t.Errorf("%s - original transport changed", relayTestPrefix)
	}
}

func newRelay(t *testing.T, nc *comms.Conn) *Listener {
	t.Helper()
	reg := registry.NewRegistry()
	reg.MustRegister(registry.RegisterParams{
		Kind: interaction.KindCommand, ID: "ping",
		Action: registry.Plain("ping", "", func(context.Context, *session.Context, interaction.Options) (*interaction.Message, error) {
			return interaction.Text("pong"), nil
		}),
	})
	reg.MustRegister(registry.RegisterParams{
		Kind: interaction.KindCommand, ID: "twice",
		Action: registry.Plain("twice", "", func(ctx context.Context, c *session.Context, _ interaction.Options) (*interaction.Message, error) {
			if err := c.Send(ctx, interaction.Text("one")); err != nil {
				return nil, err
			}
			return interaction.Text("two"), nil
		}),
	})

	tr := NewTransport(NewTransportParams{Conn: nc, FollowUps: true})
	l := NewListener(NewListenerParams{
		Conn:       nc,
		Dispatcher: dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{Registry: reg, Transport: tr}),
		Transport:  tr,
	})
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("%s - Start failed: %v", relayTestPrefix, err)
	}
	t.Cleanup(l.Stop)
	return l
}

func request(t *testing.T, nc *comms.Conn, req *dispatcher.InteractionRequest) dispatcher.CallResponse {
	t.Helper()
	data, _ := json.Marshal(req)
	msg, err := nc.Request("interactions.inbound", data, 5*time.Second)
	if err != nil {
		t.Fatalf("%s - inbound request failed: %v", relayTestPrefix, err)
	}
	var resp dispatcher.CallResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		t.Fatalf("%s - ack decode: %v", relayTestPrefix, err)
	}
	return resp
}

func TestListener_RoundTrip(t *testing.T) {
	nc := startTestServer(t, 14243)
	gw := newFakeGateway(t, nc, "interactions.outbound.>")
	newRelay(t, nc)

	ack := request(t, nc, &dispatcher.InteractionRequest{
		ID:          "req-1",
		Type:        dispatcher.RequestTypeInteraction,
		Interaction: &interaction.Interaction{ID: "i-1", Token: "tok", Kind: interaction.KindCommand, Identifier: "ping"},
	})
	if !ack.Ok || ack.ID != "req-1" {
		t.Fatalf("%s - ack = %+v", relayTestPrefix, ack)
	}

	c := gw.next(t)
	if c.Call != session.CallInitial || c.Content != "pong" || c.InteractionID != "i-1" {
		t.Errorf("%s - call = %+v", relayTestPrefix, c)
	}
}

func TestListener_GatewayWithoutFollowUps(t *testing.T) {
	nc := startTestServer(t, 14244)
	gw := newFakeGateway(t, nc, "interactions.outbound.>")
	newRelay(t, nc)

	no := false
	request(t, nc, &dispatcher.InteractionRequest{
		ID:          "req-2",
		Type:        dispatcher.RequestTypeInteraction,
		Interaction: &interaction.Interaction{ID: "i-2", Kind: interaction.KindCommand, Identifier: "twice"},
		Ctx:         &dispatcher.InvocationContext{FollowUps: &no},
	})

	if c := gw.next(t); c.Content != "one" {
		t.Errorf("%s - first call = %+v", relayTestPrefix, c)
	}
	select {
	case c := <-gw.got:
		t.Errorf("%s - unexpected second call %+v", relayTestPrefix, c)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestListener_InvalidRequests(t *testing.T) {
	nc := startTestServer(t, 14245)
	newRelay(t, nc)

	msg, err := nc.Request("interactions.inbound", []byte("{not json"), 5*time.Second)
	if err != nil {
		t.Fatalf("%s - request failed: %v", relayTestPrefix, err)
	}
	var resp dispatcher.CallResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		t.Fatalf("%s - decode: %v", relayTestPrefix, err)
	}
	if resp.Ok || resp.Error == nil || resp.Error.Code != "INVALID_REQUEST" {
		t.Errorf("%s - resp = %+v", relayTestPrefix, resp)
	}

	resp = request(t, nc, &dispatcher.InteractionRequest{ID: "req-3", Type: "ping"})
	if resp.Ok || resp.Error == nil || resp.Error.Code != "INVALID_REQUEST" {
		t.Errorf("%s - resp = %+v", relayTestPrefix, resp)
	}
}
