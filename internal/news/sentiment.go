package news

import (
	"strings"
	"unicode"
)

// Label is a coarse sentiment bucket.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// neutralBand is the half-width around zero that still counts as neutral.
const neutralBand = 0.05

var lexicon = map[string]float64{
	"surge": 1, "surges": 1, "soar": 1, "soars": 1, "rally": 1, "rallies": 1,
	"gain": 0.6, "gains": 0.6, "rise": 0.6, "rises": 0.6, "jump": 0.8, "jumps": 0.8,
	"record": 0.5, "high": 0.3, "bull": 0.8, "bullish": 0.8, "approve": 0.7, "approves": 0.7,
	"approval": 0.7, "adopt": 0.5, "adoption": 0.5, "inflows": 0.6, "win": 0.6, "wins": 0.6,
	"boost": 0.7, "boosts": 0.7, "recover": 0.5, "recovers": 0.5, "growth": 0.5, "launch": 0.3,
	"plunge": -1, "plunges": -1, "crash": -1, "crashes": -1, "slump": -0.8, "slumps": -0.8,
	"fall": -0.6, "falls": -0.6, "drop": -0.6, "drops": -0.6, "bear": -0.8, "bearish": -0.8,
	"hack": -1, "hacked": -1, "exploit": -0.9, "scam": -1, "fraud": -1, "lawsuit": -0.7,
	"sues": -0.7, "ban": -0.8, "bans": -0.8, "outflows": -0.6, "loss": -0.6, "losses": -0.6,
	"liquidation": -0.7, "liquidations": -0.7, "fear": -0.6, "warn": -0.5, "warns": -0.5,
	"low": -0.3, "sell-off": -0.8, "selloff": -0.8, "probe": -0.5, "collapse": -1,
}

var negators = map[string]bool{"not": true, "no": true, "never": true, "without": true}

// Score averages lexicon weights over the matched words in text, in [-1, 1].
// A negator flips the next matched word.
func Score(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	var sum float64
	hits := 0
	negate := false
	for _, w := range words {
		if negators[w] {
			negate = true
			continue
		}
		v, ok := lexicon[w]
		if !ok {
			continue
		}
		if negate {
			v = -v
			negate = false
		}
		sum += v
		hits++
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}

func Classify(score float64) Label {
	switch {
	case score > neutralBand:
		return Positive
	case score < -neutralBand:
		return Negative
	}
	return Neutral
}

// Tally counts headlines per sentiment bucket.
type Tally struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func Summarize(items []Headline) Tally {
	var t Tally
	for _, h := range items {
		switch h.Sentiment {
		case Positive:
			t.Positive++
		case Negative:
			t.Negative++
		default:
			t.Neutral++
		}
	}
	return t
}
