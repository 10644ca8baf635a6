package rating

import "math"

// Standard logistic Elo model. KFactor and the disconnect penalty are fixed
// product constants, not tunables.
const (
	KFactor           = 32
	DisconnectPenalty = 10
)

// Expected is the logistic expected score of a player rated a against an
// opponent rated b.
func Expected(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// Deltas holds the post-match rating adjustments for both sides. Loser is
// negative.
type Deltas struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

// MatchDeltas computes both adjustments from the two pre-match ratings. It
// is pure and order-independent: it reads nothing beyond its inputs.
func MatchDeltas(winnerRating, loserRating int) Deltas {
	return Deltas{
		Winner: int(math.Round(KFactor * (1 - Expected(winnerRating, loserRating)))),
		Loser:  int(math.Round(KFactor * (0 - Expected(loserRating, winnerRating)))),
	}
}

// WithDisconnectPenalty returns the deltas with the fixed forfeit penalty
// added onto the disconnecting (losing) side.
func (d Deltas) WithDisconnectPenalty() Deltas {
	d.Loser -= DisconnectPenalty
	return d
}

// Progress is the streak and record bookkeeping carried on a player's
// persisted rating row.
type Progress struct {
	Rating        int
	Wins          int
	Losses        int
	Games         int
	CurrentStreak int
	BestStreak    int
	HighestRating int
}

// ApplyWin applies a winner delta: rating up, streak extended, watermarks
// updated.
func (p *Progress) ApplyWin(delta int) {
	p.Rating += delta
	p.Wins++
	p.Games++
	p.CurrentStreak++
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}
	if p.Rating > p.HighestRating {
		p.HighestRating = p.Rating
	}
}

// ApplyLoss applies a loser delta (negative, possibly penalised) and resets
// the running streak.
func (p *Progress) ApplyLoss(delta int) {
	p.Rating += delta
	p.Losses++
	p.Games++
	p.CurrentStreak = 0
}
