package game

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Sanjana23-is/chess-multiplayer/internal/protocol"
)

//go:generate mockgen -destination=mock_conn_test.go -package=game . Conn

// Conn is the outbound side of a player's connection. Send must not block on
// network I/O: sessions call it while holding their lock.
type Conn interface {
	Send(msg protocol.Message) error
}

// Participant is the handle for one live connection. Handles are compared by
// pointer; the ID only labels log lines.
type Participant struct {
	id   string
	conn Conn
	gone atomic.Bool
}

func NewParticipant(conn Conn) *Participant {
	return &Participant{id: uuid.NewString(), conn: conn}
}

func (p *Participant) ID() string {
	return p.id
}

// Leave marks the participant as disconnected. Moves from a gone participant
// are discarded.
func (p *Participant) Leave() {
	p.gone.Store(true)
}

func (p *Participant) Gone() bool {
	return p.gone.Load()
}

func (p *Participant) send(msg protocol.Message) error {
	return p.conn.Send(msg)
}
