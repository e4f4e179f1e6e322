package directory

import (
	"math"
	"sort"
)

const (
	// DefaultFee stands in for a doctor whose price has no amount.
	DefaultFee = 500.0

	heuristicLabel = "display-only"
	shortlistSize  = 3
)

type ScoredDoctor struct {
	Doctor     *Doctor `json:"doctor"`
	Fee        float64 `json:"fee"`
	ValueScore float64 `json:"valueScore"`
}

// Analytics is the best-value summary of a filtered directory. The score is
// rating squared over fee and is not normalised across fee scales.
type Analytics struct {
	BestValue     ScoredDoctor   `json:"bestValue"`
	Shortlist     []ScoredDoctor `json:"shortlist"`
	Ranked        []ScoredDoctor `json:"ranked"`
	AverageFee    int            `json:"averageFee"`
	AverageRating float64        `json:"averageRating"`
	Heuristic     string         `json:"heuristic"`
}

// EffectiveFee is the fee used for scoring, in whole currency units.
func EffectiveFee(d *Doctor) float64 {
	if d.Fee.Minor <= 0 {
		return DefaultFee
	}
	return d.Fee.Major()
}

func ValueScore(rating, fee float64) float64 {
	return rating * rating / fee * 100
}

// Rank scores doctors and orders them best value first. Ties keep input
// order. Returns nil for an empty set.
func Rank(doctors []*Doctor) *Analytics {
	if len(doctors) == 0 {
		return nil
	}

	ranked := make([]ScoredDoctor, len(doctors))
	var feeSum, ratingSum float64
	for i, d := range doctors {
		fee := EffectiveFee(d)
		ranked[i] = ScoredDoctor{Doctor: d, Fee: fee, ValueScore: ValueScore(d.Rating, fee)}
		feeSum += fee
		ratingSum += d.Rating
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ValueScore > ranked[j].ValueScore
	})

	n := float64(len(doctors))
	short := shortlistSize
	if len(ranked) < short {
		short = len(ranked)
	}
	return &Analytics{
		BestValue:     ranked[0],
		Shortlist:     ranked[:short],
		Ranked:        ranked,
		AverageFee:    int(math.Round(feeSum / n)),
		AverageRating: math.Round(ratingSum/n*10) / 10,
		Heuristic:     heuristicLabel,
	}
}
