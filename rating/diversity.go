package rating

import "sort"

// diversityBucketScore is the Moody's-style diversity scoring table:
// it maps an industry's par concentration (as a fraction of the total
// par passed to DiversityScore) to that industry's diversity-score
// contribution. The pool's diversity score is the sum of each
// industry's bucketed score (§C.3).
var diversityBucketScore = []struct {
	maxShare float64
	score    float64
}{
	{0.02, 1.00},
	{0.04, 0.90},
	{0.06, 0.80},
	{0.08, 0.70},
	{0.10, 0.60},
	{0.15, 0.50},
	{0.20, 0.40},
	{1.00, 0.20},
}

func bucketScore(share float64) float64 {
	for _, b := range diversityBucketScore {
		if share <= b.maxShare {
			return b.score
		}
	}
	return diversityBucketScore[len(diversityBucketScore)-1].score
}

// DiversityScore computes the Moody's industry diversity score from a
// map of industry -> par amount: each industry's par share of the
// total contributes a bucketed score, summed across industries.
func DiversityScore(industryPar map[string]float64) float64 {
	total := 0.0
	for _, p := range industryPar {
		total += p
	}
	if total <= 0 {
		return 0
	}

	industries := make([]string, 0, len(industryPar))
	for k := range industryPar {
		industries = append(industries, k)
	}
	sort.Strings(industries) // deterministic iteration order

	score := 0.0
	for _, ind := range industries {
		share := industryPar[ind] / total
		score += bucketScore(share)
	}
	return score
}
