package protocol

// Role is the turn-order slot a player holds for the whole game.
type Role string

const (
	RoleFirstMover  Role = "first-mover"
	RoleSecondMover Role = "second-mover"
)

// Color is the display color matching a role.
func (r Role) Color() string {
	if r == RoleFirstMover {
		return "white"
	}
	return "black"
}

// Result is the terminal result kind reported in game_over.
type Result string

const (
	ResultCheckmate Result = "checkmate"
	ResultStalemate Result = "stalemate"
	ResultDraw      Result = "draw"
)

const ReasonOpponentDisconnected = "opponent_disconnected"

type InitPayload struct {
	Role    Role   `json:"role"`
	Color   string `json:"color"`
	Session string `json:"session"`
}

// AppliedMove echoes an accepted move back to both players.
type AppliedMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
}

type MovePayload struct {
	Move     AppliedMove `json:"move"`
	Position string      `json:"position"`
}

type GameOverPayload struct {
	Result   Result `json:"result"`
	Winner   *Role  `json:"winner"`
	Position string `json:"position"`
}

type DisconnectPayload struct {
	Reason string `json:"reason"`
}

// Init builds the role assignment sent once to each player when a game starts.
func Init(p InitPayload) Message {
	return newMessage(TypeInitGame, p)
}

// Moved builds the broadcast for an accepted, non-terminal move.
func Moved(p MovePayload) Message {
	return newMessage(TypeMove, p)
}

// GameOver builds the single broadcast for a game decided on the board.
func GameOver(p GameOverPayload) Message {
	return newMessage(TypeGameOver, p)
}

// OpponentLeft builds the notice sent to the remaining player after a disconnect.
func OpponentLeft() Message {
	return newMessage(TypeGameOver, DisconnectPayload{Reason: ReasonOpponentDisconnected})
}
