package entity

const (
	StatusOngoing = "ongoing"
	StatusWin     = "win"
	StatusDraw    = "draw"
)

// Outcome is the classification of a board. Winner is set only for StatusWin.
type Outcome struct {
	Status string `json:"status"`
	Winner Mark   `json:"winner"`
}

func Ongoing() Outcome {
	return Outcome{Status: StatusOngoing}
}

func Win(mark Mark) Outcome {
	return Outcome{Status: StatusWin, Winner: mark}
}

func Draw() Outcome {
	return Outcome{Status: StatusDraw}
}

func (that Outcome) IsTerminal() bool {
	return that.IsWin() || that.IsDraw()
}

func (that Outcome) IsWin() bool {
	return that.Status == StatusWin
}

func (that Outcome) IsDraw() bool {
	return that.Status == StatusDraw
}

func (that Outcome) String() string {
	switch that.Status {
	case StatusWin:
		return that.Winner.String() + " wins!"
	case StatusDraw:
		return "It's a tie!"
	default:
		return "ongoing"
	}
}
