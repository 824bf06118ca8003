package rum

// Recommendation suggests starting-point RUM parameters for an OD given
// the cost spread observed in its current restricted choice set.
type Recommendation struct {
	// Theta is the suggested scale parameter.
	Theta float64
	// Kappa is the suggested multiplicative reference-cost factor.
	Kappa float64
	// TooTight reports whether the current Kappa would exclude the
	// costliest observed path (its cost is above Kappa times the minimum).
	TooTight bool
}

// Recommend inspects minimumCost/maximumCost (the cheapest and costliest
// path currently in an OD's restricted choice set) and currentKappa, and
// suggests an adjustment when the spread would prune the costliest path.
func Recommend(minimumCost, maximumCost, currentKappa float64) Recommendation {
	if minimumCost <= 0 {
		return Recommendation{Theta: 1, Kappa: currentKappa}
	}

	spread := maximumCost / minimumCost
	rec := Recommendation{Kappa: currentKappa}

	if spread > currentKappa {
		rec.TooTight = true
		rec.Kappa = spread
	} else {
		rec.Kappa = currentKappa
	}

	// A wider cost spread calls for a smaller theta so the logit doesn't
	// collapse onto the cheapest path; a narrow spread tolerates a larger
	// theta while still spreading flow across the choice set.
	switch {
	case spread > 2:
		rec.Theta = 0.1
	case spread > 1.3:
		rec.Theta = 0.5
	default:
		rec.Theta = 1.0
	}

	return rec
}
