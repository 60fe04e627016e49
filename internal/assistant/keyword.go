package assistant

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/example/ride-guardian/internal/observability"
)

var (
	distressWords = map[string]struct{}{
		"help": {}, "stop": {}, "wrong": {}, "scared": {}, "please": {}, "no": {}, "hurt": {},
	}
	concernWords = map[string]struct{}{
		"uncomfortable": {}, "weird": {}, "strange": {}, "lost": {}, "where": {},
	}
)

// KeywordClassifier counts distress and concern words in the transcript.
// Every occurrence counts, so "help help please" scores three.
type KeywordClassifier struct {
	safeWords [][]string
}

// NewKeywordClassifier takes discreet phrases that force DISTRESS when spoken.
func NewKeywordClassifier(safeWords []string) *KeywordClassifier {
	k := &KeywordClassifier{}
	for _, w := range safeWords {
		if toks := tokenize(w); len(toks) > 0 {
			k.safeWords = append(k.safeWords, toks)
		}
	}
	return k
}

func (k *KeywordClassifier) Classify(_ context.Context, text string, _ VoiceContext) Result {
	start := time.Now()
	defer func() {
		observability.ClassifierLatency.WithLabelValues("keyword").Observe(time.Since(start).Seconds())
	}()

	tokens := tokenize(text)
	if k.hasSafeWord(tokens) {
		return ResultFor(LevelDistress)
	}
	var distress, concern int
	for _, t := range tokens {
		if _, ok := distressWords[t]; ok {
			distress++
		}
		if _, ok := concernWords[t]; ok {
			concern++
		}
	}
	switch {
	case distress >= 2:
		return ResultFor(LevelDistress)
	case distress >= 1 || concern >= 2:
		return ResultFor(LevelConcern)
	default:
		return ResultFor(LevelNormal)
	}
}

func (k *KeywordClassifier) hasSafeWord(tokens []string) bool {
	for _, phrase := range k.safeWords {
		for i := 0; i+len(phrase) <= len(tokens); i++ {
			match := true
			for j, p := range phrase {
				if tokens[i+j] != p {
					match = false
					break
				}
			}
			if match {
				return true
			}
		}
	}
	return false
}

// ResultFor returns the canned response for a level.
func ResultFor(l Level) Result {
	switch l {
	case LevelDistress:
		return Result{
			Level:      LevelDistress,
			Confidence: 0.9,
			Response:   "I've detected you might be in distress. Would you like me to contact emergency services or your trusted contacts?",
			Actions:    []string{"contact_emergency", "share_location", "silent_alarm"},
		}
	case LevelConcern:
		return Result{
			Level:      LevelConcern,
			Confidence: 0.7,
			Response:   "Hi! Just checking in. Is everything okay with your ride?",
			Actions:    []string{"share_location", "call_support"},
		}
	default:
		return Result{
			Level:      LevelNormal,
			Confidence: 0.8,
			Response:   "Your ride is progressing smoothly. I'm here if you need anything!",
			Actions:    []string{},
		}
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
