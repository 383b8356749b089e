package transport

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// runNATSServer starts an embedded NATS server on a random port
func runNATSServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server did not start")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

// serveEcho answers envelopes on subject with echoReply
func serveEcho(t *testing.T, nc *nats.Conn, subject string) {
	t.Helper()
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		req, err := message.NewEnvelopeFactory().ReadMessage(bytes.NewReader(m.Data))
		if err != nil {
			return
		}
		_ = m.Respond(echoReply(req))
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())
	t.Cleanup(func() { _ = sub.Unsubscribe() })
}

func TestNATSRequestReply(t *testing.T) {
	ns := runNATSServer(t)

	config := DefaultConfig(SenderTypeNATS)
	config.NATS.URL = ns.ClientURL()
	sender, err := DialNATSMessageSender(config)
	require.NoError(t, err)
	defer sender.Close()

	responder, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer responder.Close()
	serveEcho(t, responder, "orders.create")

	for _, dest := range []string{"nats:orders.create", "nats://cluster/orders.create"} {
		t.Run(dest, func(t *testing.T) {
			ctx := context.Background()
			conn, err := sender.CreateConnection(ctx, mustParse(t, dest))
			require.NoError(t, err)
			defer conn.Close()

			req := newRequest(t, "urn:orders:create", `{"id":1}`)
			require.NoError(t, conn.Send(ctx, req))
			require.True(t, conn.HasResponse())

			resp, err := conn.Receive(ctx, message.NewEnvelopeFactory())
			require.NoError(t, err)
			assert.JSONEq(t, `{"echo":{"id":1}}`, string(resp.Payload()))
			assert.Equal(t, req.ID(), resp.Header().Get(message.HeaderRelatesTo))
		})
	}
}

func TestNATSOneWay(t *testing.T) {
	ns := runNATSServer(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	received := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("audit.events", received)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, nc.Flush())

	sender := NewNATSMessageSender(nc, DefaultConfig(SenderTypeNATS))
	ctx := context.Background()
	conn, err := sender.CreateConnection(ctx, mustParse(t, "nats:audit.events?oneway=true"))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Send(ctx, newRequest(t, "urn:audit", `{"event":"login"}`)))
	assert.False(t, conn.HasResponse())

	select {
	case msg := <-received:
		assert.Equal(t, "urn:audit", msg.Header.Get(message.HeaderAction))
		got, err := message.NewEnvelopeFactory().ReadMessage(bytes.NewReader(msg.Data))
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"login"}`, string(got.Payload()))
	case <-time.After(2 * time.Second):
		t.Fatal("one-way message was not delivered")
	}

	// the sender does not own nc
	require.NoError(t, sender.Close())
	assert.False(t, nc.IsClosed())
}

func TestNATSNoResponders(t *testing.T) {
	ns := runNATSServer(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sender := NewNATSMessageSender(nc, DefaultConfig(SenderTypeNATS))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := sender.CreateConnection(ctx, mustParse(t, "nats:nobody.home"))
	require.NoError(t, err)
	defer conn.Close()

	err = conn.Send(ctx, newRequest(t, "urn:ping", `{}`))
	require.Error(t, err)
	assert.True(t, wserrors.IsTransportError(err))
	assert.False(t, conn.HasResponse())
}

func TestNATSDestinationErrors(t *testing.T) {
	ns := runNATSServer(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)

	sender := NewNATSMessageSender(nc, DefaultConfig(SenderTypeNATS))
	_, err = sender.CreateConnection(context.Background(), mustParse(t, "nats://cluster/"))
	assert.True(t, wserrors.IsCode(err, wserrors.CodeInvalidDestination), "got %v", err)

	nc.Close()
	_, err = sender.CreateConnection(context.Background(), mustParse(t, "nats:orders"))
	assert.True(t, wserrors.IsCode(err, wserrors.CodeConnectionLost), "got %v", err)
}

func TestDialNATSMessageSenderFailure(t *testing.T) {
	config := DefaultConfig(SenderTypeNATS)
	config.NATS.URL = "nats://127.0.0.1:1"
	config.Connection.Timeout = 200 * time.Millisecond

	_, err := DialNATSMessageSender(config)
	require.Error(t, err)
	assert.True(t, wserrors.IsCode(err, wserrors.CodeConnectionFailed))
}
