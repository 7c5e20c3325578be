// Package game holds the per-pair chess session: the two participants, the
// authoritative board, the ply counter and the outcome.
package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/Sanjana23-is/chess-multiplayer/internal/protocol"
	"github.com/Sanjana23-is/chess-multiplayer/internal/rules"
)

var (
	ErrNilParticipant  = errors.New("nil participant")
	ErrSameParticipant = errors.New("participant cannot be paired with itself")
	ErrNotInSession    = errors.New("participant not in session")
	ErrParticipantGone = errors.New("participant disconnected")
	ErrSessionOver     = errors.New("session is over")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrIllegalMove     = errors.New("illegal move")
)

// Board is the rules engine a session plays on. *rules.Board implements it.
type Board interface {
	Apply(from, to, promotion string) (rules.Move, error)
	Status() rules.Status
	FEN() string
}

// Result is the state of a session. Every result other than InProgress is
// final.
type Result int

const (
	InProgress Result = iota
	Checkmate
	Stalemate
	Draw
	// Abandoned ends a session whose participant disconnected.
	Abandoned
)

func (r Result) String() string {
	switch r {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	case Abandoned:
		return "abandoned"
	default:
		return "in_progress"
	}
}

// Outcome is a result plus the winning role, empty when there is none.
type Outcome struct {
	Result Result
	Winner protocol.Role
}

func (o Outcome) Terminal() bool {
	return o.Result != InProgress
}

// Session is one game between two participants. A moves first.
type Session struct {
	ID     string
	a, b   *Participant
	logger *zap.Logger

	mu      sync.Mutex
	board   Board
	plies   int
	outcome Outcome
}

func NewSession(a, b *Participant, board Board, logger *zap.Logger) (*Session, error) {
	if a == nil || b == nil {
		return nil, ErrNilParticipant
	}
	if a == b {
		return nil, ErrSameParticipant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := ksuid.New().String()
	return &Session{
		ID:     id,
		a:      a,
		b:      b,
		board:  board,
		logger: logger.With(zap.String("session", id)),
	}, nil
}

// Start sends each participant its role. It is called once, right after the
// session is created.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []*Participant{s.a, s.b} {
		role := s.roleOf(p)
		s.deliver(p, protocol.Init(protocol.InitPayload{
			Role:    role,
			Color:   role.Color(),
			Session: s.ID,
		}))
	}
	s.logger.Info("session started",
		zap.String("first", s.a.ID()),
		zap.String("second", s.b.ID()))
}

// ApplyMove validates and plays a move for p. A non-nil error is a rejection:
// nothing changed and nothing was sent to anyone.
func (s *Session) ApplyMove(p *Participant, req protocol.MoveRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Gone() {
		return s.outcome, ErrParticipantGone
	}
	if s.outcome.Terminal() {
		return s.outcome, ErrSessionOver
	}
	if p != s.a && p != s.b {
		return s.outcome, ErrNotInSession
	}
	if p != s.mover() {
		return s.outcome, ErrNotYourTurn
	}

	move, err := s.board.Apply(req.From, req.To, req.Promotion)
	switch {
	case errors.Is(err, rules.ErrDrawClaim):
		// the move stands; only the draw was not recorded
		s.logger.Error("claim draw", zap.String("participant", p.ID()), zap.Error(err))
	case err != nil:
		return s.outcome, fmt.Errorf("%w: %w", ErrIllegalMove, err)
	}
	role := s.roleOf(p)
	s.plies++

	status := s.board.Status()
	if !status.Terminal() {
		s.broadcast(protocol.Moved(protocol.MovePayload{
			Move: protocol.AppliedMove{
				From:      move.From,
				To:        move.To,
				Promotion: move.Promotion,
				SAN:       move.SAN,
			},
			Position: s.board.FEN(),
		}))
		return s.outcome, nil
	}

	payload := protocol.GameOverPayload{Position: s.board.FEN()}
	switch status.Kind {
	case rules.Checkmate:
		// the side left to move is mated, so the mover wins
		s.outcome = Outcome{Result: Checkmate, Winner: role}
		payload.Result = protocol.ResultCheckmate
		payload.Winner = &role
	case rules.Stalemate:
		s.outcome = Outcome{Result: Stalemate}
		payload.Result = protocol.ResultStalemate
	default:
		s.outcome = Outcome{Result: Draw}
		payload.Result = protocol.ResultDraw
	}
	s.broadcast(protocol.GameOver(payload))
	s.logger.Info("session over",
		zap.Stringer("result", s.outcome.Result),
		zap.String("method", status.Method),
		zap.String("winner", string(s.outcome.Winner)),
		zap.Int("plies", s.plies))
	return s.outcome, nil
}

// Abandon ends the session because gone disconnected and tells the other
// participant. It reports false if the session had already ended.
func (s *Session) Abandon(gone *Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome.Terminal() {
		return false
	}
	var survivor *Participant
	switch gone {
	case s.a:
		survivor = s.b
	case s.b:
		survivor = s.a
	default:
		return false
	}

	s.outcome = Outcome{Result: Abandoned}
	s.deliver(survivor, protocol.OpponentLeft())
	s.logger.Info("session abandoned",
		zap.String("participant", gone.ID()),
		zap.Int("plies", s.plies))
	return true
}

func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Session) Done() bool {
	return s.Outcome().Terminal()
}

func (s *Session) Plies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plies
}

// Position returns the board as FEN.
func (s *Session) Position() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.FEN()
}

// Participants returns the first and second mover.
func (s *Session) Participants() (*Participant, *Participant) {
	return s.a, s.b
}

func (s *Session) RoleOf(p *Participant) (protocol.Role, bool) {
	if p != s.a && p != s.b {
		return "", false
	}
	return s.roleOf(p), true
}

func (s *Session) roleOf(p *Participant) protocol.Role {
	if p == s.a {
		return protocol.RoleFirstMover
	}
	return protocol.RoleSecondMover
}

// mover is the participant whose turn it is. Parity of the ply count is the
// only source of turn order.
func (s *Session) mover() *Participant {
	if s.plies%2 == 0 {
		return s.a
	}
	return s.b
}

func (s *Session) broadcast(msg protocol.Message) {
	s.deliver(s.a, msg)
	s.deliver(s.b, msg)
}

// deliver sends to one participant. Failures are logged and never stop the
// caller from reaching the other participant.
func (s *Session) deliver(p *Participant, msg protocol.Message) {
	if err := p.send(msg); err != nil {
		s.logger.Warn("delivery failed",
			zap.String("participant", p.ID()),
			zap.String("type", msg.Type),
			zap.Error(err))
	}
}
