package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Kind: Started}))
}

func TestSubject(t *testing.T) {
	n := &NATS{prefix: "chess.sessions"}
	assert.Equal(t, "chess.sessions.started", n.Subject(Started))
	assert.Equal(t, "chess.sessions.finished", n.Subject(Finished))
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	n := &NATS{prefix: "chess.sessions"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Publish(ctx, Event{Kind: Started}), context.Canceled)
}

func runServer(t *testing.T) string {
	t.Helper()
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	srv := natstest.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func TestNATSRoundTrip(t *testing.T) {
	url := runServer(t)

	pub, err := Connect(url, "chess.test", zap.NewNop())
	require.NoError(t, err)
	defer pub.Close()

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	ch := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("chess.test.finished", ch)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	want := Event{Kind: Finished, Session: "abc", Result: "checkmate", Winner: "second-mover", Plies: 4,
		At: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, pub.Publish(context.Background(), want))

	select {
	case msg := <-ch:
		var got Event
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestConnectFailure(t *testing.T) {
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	srv := natstest.RunServer(&opts)
	url := srv.ClientURL()
	srv.Shutdown()

	_, err := Connect(url, "chess.test", zap.NewNop())
	require.Error(t, err)
}
