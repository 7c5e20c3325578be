// Package match pairs connected players into game sessions and routes their
// messages to the session that owns them.
package match

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Sanjana23-is/chess-multiplayer/internal/events"
	"github.com/Sanjana23-is/chess-multiplayer/internal/game"
	"github.com/Sanjana23-is/chess-multiplayer/internal/protocol"
	"github.com/Sanjana23-is/chess-multiplayer/internal/rules"
)

type Option func(*Matchmaker)

// WithPublisher announces session starts and ends on p.
func WithPublisher(p events.Publisher) Option {
	return func(m *Matchmaker) {
		m.publisher = p
	}
}

// WithBoards sets the factory for the board of each new session.
func WithBoards(f func() game.Board) Option {
	return func(m *Matchmaker) {
		m.newBoard = f
	}
}

// Matchmaker owns the waiting slot, the connected set and the
// participant→session index. All three are guarded by mu. Session locks are
// only ever taken inside mu by Start, never the other way round.
type Matchmaker struct {
	logger    *zap.Logger
	publisher events.Publisher
	newBoard  func() game.Board

	mu        sync.Mutex
	connected map[*game.Participant]struct{}
	waiting   *game.Participant
	sessions  map[*game.Participant]*game.Session
}

func New(logger *zap.Logger, opts ...Option) *Matchmaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Matchmaker{
		logger:    logger.Named("match"),
		publisher: events.Nop{},
		newBoard:  func() game.Board { return rules.NewBoard() },
		connected: make(map[*game.Participant]struct{}),
		sessions:  make(map[*game.Participant]*game.Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a freshly connected participant. It does not queue it.
func (m *Matchmaker) Register(p *game.Participant) {
	m.mu.Lock()
	m.connected[p] = struct{}{}
	m.mu.Unlock()

	m.logger.Debug("participant connected", zap.String("participant", p.ID()))
}

// Handle decodes one inbound frame and dispatches it. Frames that fail to
// decode are logged and dropped; they never reach a session.
func (m *Matchmaker) Handle(p *game.Participant, raw []byte) {
	in, err := protocol.Decode(raw)
	if err != nil {
		m.logger.Warn("discarding inbound message",
			zap.String("participant", p.ID()),
			zap.Error(err))
		return
	}

	switch in.Type {
	case protocol.TypeInitGame:
		m.OnReady(p)
	case protocol.TypeMove:
		m.OnMove(p, in.Move)
	}
}

// OnReady queues p, or pairs it with the waiting participant. The waiting
// participant moves first.
func (m *Matchmaker) OnReady(p *game.Participant) {
	m.mu.Lock()
	if _, ok := m.connected[p]; !ok || p.Gone() {
		m.mu.Unlock()
		m.logger.Debug("ready from unknown participant ignored", zap.String("participant", p.ID()))
		return
	}
	if _, playing := m.sessions[p]; playing {
		m.mu.Unlock()
		m.logger.Debug("ready while playing ignored", zap.String("participant", p.ID()))
		return
	}
	// a waiting participant that already left but whose disconnect is not yet
	// processed is replaced, never paired
	if m.waiting == nil || m.waiting.Gone() {
		m.waiting = p
		m.mu.Unlock()
		m.logger.Info("waiting for opponent", zap.String("participant", p.ID()))
		return
	}
	if m.waiting == p {
		m.mu.Unlock()
		m.logger.Debug("duplicate ready ignored", zap.String("participant", p.ID()))
		return
	}

	s, err := game.NewSession(m.waiting, p, m.newBoard(), m.logger.Named("session"))
	if err != nil {
		m.mu.Unlock()
		m.logger.Error("create session", zap.Error(err))
		return
	}
	m.sessions[m.waiting] = s
	m.sessions[p] = s
	m.waiting = nil
	// init notices go out before any move or disconnect can reach the session
	s.Start()
	m.mu.Unlock()

	m.announce(events.Event{Kind: events.Started, Session: s.ID, Position: s.Position()})
}

// OnMove routes a move to the session owning p. Moves from participants
// without a session are dropped.
func (m *Matchmaker) OnMove(p *game.Participant, req protocol.MoveRequest) {
	s, ok := m.SessionOf(p)
	if !ok {
		m.logger.Debug("move without session discarded",
			zap.String("participant", p.ID()),
			zap.Stringer("move", req))
		return
	}

	out, err := s.ApplyMove(p, req)
	if err != nil {
		m.logger.Debug("move rejected",
			zap.String("session", s.ID),
			zap.String("participant", p.ID()),
			zap.Stringer("move", req),
			zap.Error(err))
		return
	}
	if !out.Terminal() {
		return
	}

	m.release(s)
	m.announce(events.Event{
		Kind:     events.Finished,
		Session:  s.ID,
		Result:   out.Result.String(),
		Winner:   string(out.Winner),
		Position: s.Position(),
		Plies:    s.Plies(),
	})
}

// OnDisconnect forgets p. If p was playing, its session is unindexed first so
// no later move can reach it, then abandoned and the opponent notified.
func (m *Matchmaker) OnDisconnect(p *game.Participant) {
	p.Leave()

	m.mu.Lock()
	delete(m.connected, p)
	if m.waiting == p {
		m.waiting = nil
	}
	s, playing := m.sessions[p]
	if playing {
		a, b := s.Participants()
		delete(m.sessions, a)
		delete(m.sessions, b)
	}
	m.mu.Unlock()

	m.logger.Debug("participant disconnected", zap.String("participant", p.ID()))
	if !playing || !s.Abandon(p) {
		return
	}
	m.announce(events.Event{
		Kind:     events.Finished,
		Session:  s.ID,
		Result:   game.Abandoned.String(),
		Position: s.Position(),
		Plies:    s.Plies(),
	})
}

// SessionOf returns the active session p plays in.
func (m *Matchmaker) SessionOf(p *game.Participant) (*game.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[p]
	return s, ok
}

// Waiting returns the participant waiting for an opponent, if any.
func (m *Matchmaker) Waiting() *game.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting
}

type Stats struct {
	Connected int  `json:"connected"`
	Waiting   bool `json:"waiting"`
	Sessions  int  `json:"sessions"`
}

func (m *Matchmaker) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Connected: len(m.connected),
		Waiting:   m.waiting != nil,
		Sessions:  len(lo.Uniq(lo.Values(m.sessions))),
	}
}

// release drops a finished session from the index.
func (m *Matchmaker) release(s *game.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, b := s.Participants()
	for _, p := range []*game.Participant{a, b} {
		if m.sessions[p] == s {
			delete(m.sessions, p)
		}
	}
}

const announceTimeout = 2 * time.Second

func (m *Matchmaker) announce(e events.Event) {
	e.At = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
	defer cancel()
	if err := m.publisher.Publish(ctx, e); err != nil {
		m.logger.Warn("announce session event",
			zap.String("session", e.Session),
			zap.String("kind", string(e.Kind)),
			zap.Error(err))
	}
}
