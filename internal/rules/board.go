// Package rules adapts github.com/notnil/chess to the small surface the game
// sessions need: apply a from/to move, read the position, read the status.
package rules

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	// ErrDrawClaim means the move was played but a claimable draw could not
	// be recorded; the game goes on.
	ErrDrawClaim = errors.New("draw claim failed")
)

// Kind is the coarse state of a board.
type Kind int

const (
	Ongoing Kind = iota
	Checkmate
	Stalemate
	Draw
)

func (k Kind) String() string {
	switch k {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Status is the board state after the latest move. Method names the rule
// that ended the game, empty while ongoing.
type Status struct {
	Kind   Kind
	Method string
}

// Terminal reports whether the game is over.
func (s Status) Terminal() bool {
	return s.Kind != Ongoing
}

// Move is an applied move in coordinate and SAN form.
type Move struct {
	From      string
	To        string
	Promotion string
	SAN       string
}

// Board is one authoritative chess game.
type Board struct {
	game *chess.Game
}

// NewBoard returns a board at the standard starting position.
func NewBoard() *Board {
	return &Board{game: chess.NewGame()}
}

// FromFEN returns a board set up from a FEN record.
func FromFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &Board{game: chess.NewGame(opt)}, nil
}

var promotions = map[string]chess.PieceType{
	"":  chess.NoPieceType,
	"q": chess.Queen,
	"r": chess.Rook,
	"b": chess.Bishop,
	"n": chess.Knight,
}

// Apply plays from→to for the side to move. A pawn reaching the last rank
// without an explicit promotion becomes a queen.
func (b *Board) Apply(from, to, promotion string) (Move, error) {
	if b.Status().Terminal() {
		return Move{}, fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	promo, ok := promotions[promotion]
	if !ok {
		return Move{}, fmt.Errorf("%w: unknown promotion %q", ErrIllegalMove, promotion)
	}
	if promo == chess.NoPieceType {
		promo = chess.Queen
	}

	var found *chess.Move
	for _, m := range b.game.ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		if m.Promo() != chess.NoPieceType && m.Promo() != promo {
			continue
		}
		found = m
		break
	}
	if found == nil {
		return Move{}, fmt.Errorf("%w: %s%s%s", ErrIllegalMove, from, to, promotion)
	}

	san := chess.AlgebraicNotation{}.Encode(b.game.Position(), found)
	if err := b.game.Move(found); err != nil {
		return Move{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	applied := Move{From: from, To: to, SAN: san}
	if found.Promo() != chess.NoPieceType {
		applied.Promotion = pieceLetter(found.Promo())
	}
	if err := b.claimDraws(); err != nil {
		return applied, err
	}
	return applied, nil
}

// claimDraws ends the game on repetition or the fifty-move rule as soon as
// either becomes claimable; the library only applies the automatic variants.
func (b *Board) claimDraws() error {
	if b.game.Outcome() != chess.NoOutcome {
		return nil
	}
	for _, method := range b.game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			if err := b.game.Draw(method); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrDrawClaim, methodName(method), err)
			}
			return nil
		}
	}
	return nil
}

// Status reports whether the game has ended and how.
func (b *Board) Status() Status {
	if b.game.Outcome() == chess.NoOutcome {
		return Status{Kind: Ongoing}
	}
	switch m := b.game.Method(); m {
	case chess.Checkmate:
		return Status{Kind: Checkmate, Method: methodName(m)}
	case chess.Stalemate:
		return Status{Kind: Stalemate, Method: methodName(m)}
	default:
		return Status{Kind: Draw, Method: methodName(m)}
	}
}

// FEN returns the current position.
func (b *Board) FEN() string {
	return b.game.Position().String()
}

func pieceLetter(p chess.PieceType) string {
	switch p {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

func methodName(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "checkmate"
	case chess.Stalemate:
		return "stalemate"
	case chess.InsufficientMaterial:
		return "insufficient_material"
	case chess.ThreefoldRepetition:
		return "threefold_repetition"
	case chess.FivefoldRepetition:
		return "fivefold_repetition"
	case chess.FiftyMoveRule:
		return "fifty_move_rule"
	case chess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case chess.DrawOffer:
		return "draw_offer"
	case chess.Resignation:
		return "resignation"
	}
	return ""
}
