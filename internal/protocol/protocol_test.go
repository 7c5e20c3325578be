package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Inbound
		wantErr error
	}{
		{
			name: "ready without payload",
			raw:  `{"type":"init_game"}`,
			want: Inbound{Type: TypeInitGame},
		},
		{
			name: "ready ignores payload",
			raw:  `{"type":"init_game","payload":{"color":"white"}}`,
			want: Inbound{Type: TypeInitGame},
		},
		{
			name: "move",
			raw:  `{"type":"move","payload":{"from":"e2","to":"e4"}}`,
			want: Inbound{Type: TypeMove, Move: MoveRequest{From: "e2", To: "e4"}},
		},
		{
			name: "move is normalised",
			raw:  `{"type":"move","payload":{"from":" E7","to":"E8 ","promotion":"Q"}}`,
			want: Inbound{Type: TypeMove, Move: MoveRequest{From: "e7", To: "e8", Promotion: "q"}},
		},
		{name: "not json", raw: `hello`, wantErr: ErrMalformed},
		{name: "missing type", raw: `{"payload":{}}`, wantErr: ErrMalformed},
		{name: "unknown type", raw: `{"type":"resign"}`, wantErr: ErrUnknownType},
		{name: "move without payload", raw: `{"type":"move"}`, wantErr: ErrInvalidPayload},
		{name: "move with null payload", raw: `{"type":"move","payload":null}`, wantErr: ErrInvalidPayload},
		{name: "move missing from", raw: `{"type":"move","payload":{"to":"e4"}}`, wantErr: ErrInvalidPayload},
		{name: "move off board", raw: `{"type":"move","payload":{"from":"z9","to":"e4"}}`, wantErr: ErrInvalidPayload},
		{name: "move to same square", raw: `{"type":"move","payload":{"from":"e2","to":"e2"}}`, wantErr: ErrInvalidPayload},
		{name: "bad promotion", raw: `{"type":"move","payload":{"from":"e7","to":"e8","promotion":"k"}}`, wantErr: ErrInvalidPayload},
		{name: "payload of wrong shape", raw: `{"type":"move","payload":["e2","e4"]}`, wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutboundShapes(t *testing.T) {
	winner := RoleSecondMover
	msg := GameOver(GameOverPayload{Result: ResultCheckmate, Winner: &winner, Position: "fen"})
	assert.Equal(t, TypeGameOver, msg.Type)
	assert.JSONEq(t, `{"result":"checkmate","winner":"second-mover","position":"fen"}`, string(msg.Payload))

	msg = GameOver(GameOverPayload{Result: ResultStalemate, Position: "fen"})
	assert.JSONEq(t, `{"result":"stalemate","winner":null,"position":"fen"}`, string(msg.Payload))

	msg = OpponentLeft()
	assert.Equal(t, TypeGameOver, msg.Type)
	assert.JSONEq(t, `{"reason":"opponent_disconnected"}`, string(msg.Payload))

	msg = Init(InitPayload{Role: RoleFirstMover, Color: RoleFirstMover.Color(), Session: "abc"})
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"init_game","payload":{"role":"first-mover","color":"white","session":"abc"}}`, string(raw))
}
