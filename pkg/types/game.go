package types

// Game types offered by the games page.
const (
	GameRockPaperScissors = "rps"
	GameDraw              = "draw"
	GameTruth             = "truth"
	GameDice              = "dice"
)

// Game records the outcome of one mini-game round.
type Game struct {
	ID       string `json:"id"`
	GameType string `json:"gameType"`
	Player   string `json:"player,omitempty"`
	Result   string `json:"result,omitempty"`
	Score    *int   `json:"score,omitempty"`
	PlayedAt string `json:"playedAt,omitempty"` // RFC 3339
}

func (g *Game) RecordID() string   { return g.ID }
func (g *Game) Collection() string { return CollectionGames }

func (g *Game) Validate() error {
	if err := requireField("id", g.ID); err != nil {
		return err
	}
	return requireField("gameType", g.GameType)
}
