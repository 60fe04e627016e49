package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/ride-guardian/internal/observability"
)

var (
	errEmptyCompletion = errors.New("completion has no choices")
	errInvalidAnswer   = errors.New("invalid classifier answer")
)

const (
	voiceSystemPrompt = "You are a safety AI analyzing passenger voice for distress. Be highly sensitive to any signs of discomfort or danger."
	defaultLLMReply   = "I'm here if you need anything. Everything okay?"
)

// LLMClassifier asks a chat model for a JSON verdict and falls back to the
// keyword heuristic on any transport, parse or validation failure.
type LLMClassifier struct {
	Client   ChatClient
	Model    string
	Timeout  time.Duration
	Fallback *KeywordClassifier
	Logger   *slog.Logger
}

type llmVerdict struct {
	DistressLevel       string   `json:"distress_level"`
	Confidence          *float64 `json:"confidence"`
	RecommendedResponse string   `json:"recommended_response"`
	SuggestedActions    []string `json:"suggested_actions"`
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, vc VoiceContext) Result {
	// discreet safe words never depend on the model
	if c.Fallback.hasSafeWord(tokenize(text)) {
		return ResultFor(LevelDistress)
	}

	start := time.Now()
	content, err := chatOnce(ctx, c.Client, c.Model, c.Timeout, voiceSystemPrompt, voicePrompt(text, vc), 0.3, true)
	observability.ClassifierLatency.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	if err != nil {
		return c.fallback(ctx, text, vc, "transport", err)
	}
	res, err := parseVerdict(content)
	if err != nil {
		reason := "parse"
		if errors.Is(err, errInvalidAnswer) {
			reason = "invalid"
		}
		return c.fallback(ctx, text, vc, reason, err)
	}
	return res
}

func (c *LLMClassifier) fallback(ctx context.Context, text string, vc VoiceContext, reason string, err error) Result {
	observability.ClassifierFallbacks.WithLabelValues(reason).Inc()
	if c.Logger != nil {
		c.Logger.Warn("llm classification failed, using keywords", "ride_id", vc.RideID, "reason", reason, "error", err)
	}
	return c.Fallback.Classify(ctx, text, vc)
}

func voicePrompt(text string, vc VoiceContext) string {
	location := vc.Location
	if location == "" {
		location = "Unknown"
	}
	return fmt.Sprintf(`Analyze this passenger voice transcript for safety concerns:

Transcript: %q
Current location: %s
Ride duration: %.1f minutes

Determine:
1. distress_level: NORMAL, CONCERN or DISTRESS
2. confidence between 0 and 1
3. recommended_response: one short sentence to say to the passenger
4. suggested_actions: any of contact_emergency, share_location, silent_alarm, call_support

Be sensitive to subtle signs of discomfort. Answer with a single JSON object using exactly those keys.`,
		text, location, vc.ElapsedMinutes)
}

// parseVerdict accepts a bare JSON object, optionally wrapped in a markdown fence.
func parseVerdict(content string) (Result, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v llmVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return Result{}, err
	}
	level := Level(strings.ToUpper(strings.TrimSpace(v.DistressLevel)))
	switch level {
	case LevelNormal, LevelConcern, LevelDistress:
	default:
		return Result{}, fmt.Errorf("%w: distress_level %q", errInvalidAnswer, v.DistressLevel)
	}
	conf := 0.8
	if v.Confidence != nil {
		conf = *v.Confidence
	}
	if conf < 0 || conf > 1 {
		return Result{}, fmt.Errorf("%w: confidence %v", errInvalidAnswer, conf)
	}
	reply := strings.TrimSpace(v.RecommendedResponse)
	if reply == "" {
		reply = defaultLLMReply
	}
	actions := v.SuggestedActions
	if actions == nil {
		actions = []string{}
	}
	return Result{Level: level, Confidence: conf, Response: reply, Actions: actions}, nil
}
