package rating

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpectedSymmetry(t *testing.T) {
	require.InDelta(t, 0.5, Expected(1000, 1000), 1e-9)
	require.InDelta(t, 1.0, Expected(1200, 800)+Expected(800, 1200), 1e-9)
	require.Greater(t, Expected(1200, 1000), 0.5)
	require.Less(t, Expected(1000, 1200), 0.5)
}

func TestMatchDeltasEqualRatings(t *testing.T) {
	d := MatchDeltas(1000, 1000)
	require.Equal(t, 16, d.Winner)
	require.Equal(t, -16, d.Loser)
}

func TestMatchDeltasFavouriteWins(t *testing.T) {
	// The favourite gains little, the underdog loses little.
	d := MatchDeltas(1400, 1000)
	require.Less(t, d.Winner, 16)
	require.Greater(t, d.Loser, -16)
	require.Greater(t, d.Winner, 0)
	require.Less(t, d.Loser, 0)
}

func TestMatchDeltasUpsetWins(t *testing.T) {
	d := MatchDeltas(1000, 1400)
	require.Greater(t, d.Winner, 16)
	require.Less(t, d.Loser, -16)
}

func TestMatchDeltasZeroSum(t *testing.T) {
	// Expected scores are complementary, so the exchange is zero-sum
	// before any penalty.
	for _, pair := range [][2]int{{1000, 1000}, {1100, 900}, {900, 1100}, {1550, 1321}} {
		d := MatchDeltas(pair[0], pair[1])
		require.Equal(t, d.Winner, -d.Loser, "ratings %v", pair)
	}
}

func TestWithDisconnectPenalty(t *testing.T) {
	d := MatchDeltas(1000, 1000).WithDisconnectPenalty()
	require.Equal(t, 16, d.Winner)
	require.Equal(t, -26, d.Loser)
}

func TestProgressStreaks(t *testing.T) {
	p := Progress{Rating: 1000, HighestRating: 1000}

	p.ApplyWin(16)
	p.ApplyWin(15)
	require.Equal(t, 1031, p.Rating)
	require.Equal(t, 2, p.CurrentStreak)
	require.Equal(t, 2, p.BestStreak)
	require.Equal(t, 1031, p.HighestRating)

	p.ApplyLoss(-17)
	require.Equal(t, 1014, p.Rating)
	require.Equal(t, 0, p.CurrentStreak)
	require.Equal(t, 2, p.BestStreak, "best streak watermark survives a loss")
	require.Equal(t, 1031, p.HighestRating, "highest rating watermark survives a loss")

	p.ApplyWin(16)
	require.Equal(t, 1, p.CurrentStreak)
	require.Equal(t, 2, p.BestStreak)

	require.Equal(t, 3, p.Wins)
	require.Equal(t, 1, p.Losses)
	require.Equal(t, 4, p.Games)
}
