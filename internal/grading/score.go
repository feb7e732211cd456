package grading

const (
	BasePoints      = 100
	FloorPoints     = 50
	HintPenalty     = 10
	SecondsPerPoint = 10
)

// Breakdown itemises how a room score was reached.
type Breakdown struct {
	Base        int  `json:"base"`
	HintPenalty int  `json:"hint_penalty"`
	TimePenalty int  `json:"time_penalty"`
	Floored     bool `json:"floored"`
	Total       int  `json:"total"`
}

// Score is max(50, 100 - 10*hints - floor(seconds/10)). Negative inputs
// count as zero.
func Score(hintsUsed, timeTakenSec int) int {
	return Explain(hintsUsed, timeTakenSec).Total
}

func Explain(hintsUsed, timeTakenSec int) Breakdown {
	b := Breakdown{
		Base:        BasePoints,
		HintPenalty: max(0, hintsUsed) * HintPenalty,
		TimePenalty: max(0, timeTakenSec) / SecondsPerPoint,
	}
	raw := b.Base - b.HintPenalty - b.TimePenalty
	b.Total = max(FloorPoints, raw)
	b.Floored = raw < FloorPoints
	return b
}
