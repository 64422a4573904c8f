package ingest

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/vigia/internal/domain/types"
)

// ErrRankingOrder reports a ranking that breaks ordering rules.
var ErrRankingOrder = errors.New("ranking out of order")

// VerifyRanking checks that defined scores come first in descending order with
// ties broken by politician id, that dense ranks start at 1, and that
// insufficient-data entries trail with rank 0.
func VerifyRanking(entries []types.Entry) error {
	seenUndefined := false
	prevRank := 0
	var prevScore int64
	var prevID string

	for i, e := range entries {
		f, ok := e.Score.Value()
		if !ok {
			seenUndefined = true
			if e.Rank != 0 {
				return fmt.Errorf("%w: entry %d (%s) has no score but rank %d", ErrRankingOrder, i, e.PoliticianID, e.Rank)
			}
			continue
		}
		if seenUndefined {
			return fmt.Errorf("%w: scored entry %d (%s) after insufficient data", ErrRankingOrder, i, e.PoliticianID)
		}

		// scores equal to 12 decimal places tie
		v := int64(math.Round(f * 1e12))
		switch {
		case i == 0:
			if e.Rank != 1 {
				return fmt.Errorf("%w: first rank is %d", ErrRankingOrder, e.Rank)
			}
		case v > prevScore:
			return fmt.Errorf("%w: entry %d (%s) scores above its predecessor", ErrRankingOrder, i, e.PoliticianID)
		case v == prevScore:
			if e.Rank != prevRank {
				return fmt.Errorf("%w: tie at entry %d (%s) has rank %d, want %d", ErrRankingOrder, i, e.PoliticianID, e.Rank, prevRank)
			}
			if e.PoliticianID < prevID {
				return fmt.Errorf("%w: tie at entry %d not ordered by id", ErrRankingOrder, i)
			}
		default:
			if e.Rank != prevRank+1 {
				return fmt.Errorf("%w: entry %d (%s) has rank %d, want %d", ErrRankingOrder, i, e.PoliticianID, e.Rank, prevRank+1)
			}
		}
		prevRank, prevScore, prevID = e.Rank, v, e.PoliticianID
	}
	return nil
}
