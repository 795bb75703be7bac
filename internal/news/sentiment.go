package news

import "strings"

// Headline scoring: a small valence lexicon over lower-cased tokens. Each
// headline scores (positive - negative) / matched in [-1, 1]; a headline with
// no matched terms is neutral.
var (
	positiveTerms = map[string]bool{
		"gain": true, "gains": true, "rally": true, "rallies": true,
		"surge": true, "surges": true, "soar": true, "soars": true,
		"rise": true, "rises": true, "jump": true, "jumps": true,
		"climb": true, "climbs": true, "boost": true, "boosts": true,
		"strong": true, "strength": true, "bullish": true, "record": true,
		"growth": true, "recovery": true, "rebound": true, "upbeat": true,
		"beat": true, "beats": true, "optimism": true, "high": true,
	}
	negativeTerms = map[string]bool{
		"loss": true, "losses": true, "fall": true, "falls": true,
		"drop": true, "drops": true, "plunge": true, "plunges": true,
		"slump": true, "slumps": true, "sink": true, "sinks": true,
		"crash": true, "crashes": true, "tumble": true, "tumbles": true,
		"weak": true, "weakness": true, "bearish": true, "fear": true,
		"fears": true, "recession": true, "crisis": true, "slowdown": true,
		"miss": true, "misses": true, "selloff": true, "low": true,
	}
)

func scoreHeadline(title string) float64 {
	var pos, neg int
	for _, tok := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if positiveTerms[tok] {
			pos++
		}
		if negativeTerms[tok] {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// scoreHeadlines averages per-headline scores and scales the result to the
// [-100, 100] range the predictor expects. No headlines means neutral.
func scoreHeadlines(titles []string) float64 {
	if len(titles) == 0 {
		return 0
	}
	var sum float64
	for _, t := range titles {
		sum += scoreHeadline(t)
	}
	return sum / float64(len(titles)) * 100
}
