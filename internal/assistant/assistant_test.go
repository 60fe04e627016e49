package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/risk"
)

type fakeChat struct {
	reply string
	err   error
	reqs  []openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
	}}, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestKeywordClassifier(t *testing.T) {
	Convey("Given the keyword classifier", t, func() {
		k := NewKeywordClassifier([]string{"thai tea"})
		ctx := context.Background()

		Convey("repeated distress words each count", func() {
			r := k.Classify(ctx, "help help please", VoiceContext{})
			So(r.Level, ShouldEqual, LevelDistress)
			So(r.Confidence, ShouldEqual, 0.9)
			So(r.Actions, ShouldResemble, []string{"contact_emergency", "share_location", "silent_alarm"})
		})

		Convey("a single distress word is a concern", func() {
			r := k.Classify(ctx, "Can you STOP here?", VoiceContext{})
			So(r.Level, ShouldEqual, LevelConcern)
			So(r.Confidence, ShouldEqual, 0.7)
		})

		Convey("two concern words are a concern", func() {
			So(k.Classify(ctx, "this is weird, where are we", VoiceContext{}).Level, ShouldEqual, LevelConcern)
		})

		Convey("words are matched whole", func() {
			So(k.Classify(ctx, "nothing unusual, know the stopover", VoiceContext{}).Level, ShouldEqual, LevelNormal)
		})

		Convey("ordinary chatter is normal", func() {
			r := k.Classify(ctx, "the traffic is fine today", VoiceContext{})
			So(r.Level, ShouldEqual, LevelNormal)
			So(r.Confidence, ShouldEqual, 0.8)
			So(r.Actions, ShouldBeEmpty)
		})

		Convey("a safe word forces distress", func() {
			So(k.Classify(ctx, "I could really use a Thai  Tea right now", VoiceContext{}).Level, ShouldEqual, LevelDistress)
		})
	})
}

func TestLLMClassifier(t *testing.T) {
	Convey("Given an LLM-backed assistant", t, func() {
		ctx := context.Background()

		Convey("a valid JSON verdict is used as-is", func() {
			chat := &fakeChat{reply: "```json\n{\"distress_level\":\"concern\",\"confidence\":0.66,\"recommended_response\":\"Are you okay?\",\"suggested_actions\":[\"share_location\"]}\n```"}
			a := New(Options{Chat: chat, Logger: quietLogger()})
			r := a.Classify(ctx, "the driver is quiet", VoiceContext{RideID: "R1"})
			So(r.Level, ShouldEqual, LevelConcern)
			So(r.Confidence, ShouldEqual, 0.66)
			So(r.Response, ShouldEqual, "Are you okay?")
			So(r.Actions, ShouldResemble, []string{"share_location"})
			So(chat.reqs, ShouldHaveLength, 1)
			So(chat.reqs[0].Model, ShouldEqual, "qwen-plus")
			So(chat.reqs[0].ResponseFormat, ShouldNotBeNil)
		})

		Convey("missing optional fields get defaults", func() {
			a := New(Options{Chat: &fakeChat{reply: `{"distress_level":"NORMAL"}`}, Logger: quietLogger()})
			r := a.Classify(ctx, "fine", VoiceContext{})
			So(r.Confidence, ShouldEqual, 0.8)
			So(r.Response, ShouldEqual, defaultLLMReply)
			So(r.Actions, ShouldBeEmpty)
		})

		Convey("malformed JSON falls back to keywords", func() {
			a := New(Options{Chat: &fakeChat{reply: "I think they are fine"}, Logger: quietLogger()})
			r := a.Classify(ctx, "help help please", VoiceContext{})
			So(r.Level, ShouldEqual, LevelDistress)
			So(r.Confidence, ShouldEqual, 0.9)
		})

		Convey("an unknown level falls back to keywords", func() {
			a := New(Options{Chat: &fakeChat{reply: `{"distress_level":"PANIC","confidence":0.99}`}, Logger: quietLogger()})
			So(a.Classify(ctx, "nice weather", VoiceContext{}).Level, ShouldEqual, LevelNormal)
		})

		Convey("a transport error falls back to keywords", func() {
			a := New(Options{Chat: &fakeChat{err: errors.New("timeout")}, Logger: quietLogger()})
			So(a.Classify(ctx, "I'm scared, please stop", VoiceContext{}).Level, ShouldEqual, LevelDistress)
		})

		Convey("safe words short-circuit the model", func() {
			chat := &fakeChat{reply: `{"distress_level":"NORMAL"}`}
			a := New(Options{Chat: chat, SafeWords: []string{"hackathon"}, Logger: quietLogger()})
			So(a.Classify(ctx, "how was the hackathon", VoiceContext{}).Level, ShouldEqual, LevelDistress)
			So(chat.reqs, ShouldBeEmpty)
		})
	})
}

func TestCheckIn(t *testing.T) {
	Convey("Given a check-in request", t, func() {
		ctx := context.Background()
		cc := CheckInContext{RideID: "R1", Progress: 40, Hour: 23}

		Convey("without a model a canned message is rotated", func() {
			a := New(Options{Logger: quietLogger()})
			a.intn = func(n int) int { return n - 1 }
			So(a.CheckIn(ctx, cc), ShouldEqual, "Hope you're having a comfortable ride. Let me know if you need help!")
		})

		Convey("with a model its message is used", func() {
			chat := &fakeChat{reply: "  All good back there? Almost halfway!  "}
			a := New(Options{Chat: chat, Logger: quietLogger()})
			So(a.CheckIn(ctx, cc), ShouldEqual, "All good back there? Almost halfway!")
			So(chat.reqs[0].Messages[1].Content, ShouldContainSubstring, "night")
		})

		Convey("a failing model falls back", func() {
			a := New(Options{Chat: &fakeChat{err: errors.New("down")}, Logger: quietLogger()})
			a.intn = func(int) int { return 0 }
			So(a.CheckIn(ctx, cc), ShouldEqual, "Hi! Just checking in. How's your ride going?")
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given a finished ride report", t, func() {
		ctx := context.Background()
		r := models.Report{
			RideID:       "R1",
			OverallScore: 0.8,
			Incidents:    2,
			Duration:     "22 minutes",
			DriverRating: 4.8,
			RouteType:    models.RouteStandard,
			Events: []models.SafetyEvent{
				{Type: models.EventRouteDeviation},
				{Type: models.EventEmergencyAction},
			},
		}

		Convey("highlights and recommendations are derived locally", func() {
			s := New(Options{Logger: quietLogger()}).Summarize(ctx, r)
			So(s.Highlights, ShouldContain, "2 safety event(s) handled by GoGuard")
			So(s.Highlights, ShouldContain, "Driver maintained professional conduct")
			So(s.Recommendations, ShouldResemble, []string{
				"Consider Safe Route mode for future trips",
				"Share your trip with a trusted contact on future rides",
			})
			So(s.Narrative, ShouldBeEmpty)
		})

		Convey("a quiet ride gets the default recommendation", func() {
			quiet := r
			quiet.Incidents = 0
			quiet.Events = nil
			s := New(Options{Logger: quietLogger()}).Summarize(ctx, quiet)
			So(s.Highlights, ShouldContain, "No safety incidents reported")
			So(s.Recommendations, ShouldResemble, []string{"Continue using GoGuard for all rides"})
		})

		Convey("a model adds a narrative", func() {
			chat := &fakeChat{reply: "Overall Safety Score 80%. Two events were handled."}
			s := New(Options{Chat: chat, Logger: quietLogger()}).Summarize(ctx, r)
			So(s.Narrative, ShouldStartWith, "Overall Safety Score 80%")
			So(strings.Contains(chat.reqs[0].Messages[1].Content, "Overall Safety Score 80%"), ShouldBeTrue)
		})
	})
}

func TestAssessRide(t *testing.T) {
	Convey("Given a ride being quoted", t, func() {
		ctx := context.Background()
		rc := RideContext{DriverName: "Ahmad Rizki", DriverRating: 4.8, DriverRides: 1523, Hour: 14, Pickup: "Home", Dropoff: "Office"}

		Convey("without a model there is no assessment", func() {
			_, ok := New(Options{Logger: quietLogger()}).AssessRide(ctx, rc)
			So(ok, ShouldBeFalse)
		})

		Convey("a fenced JSON answer is parsed", func() {
			chat := &fakeChat{reply: "```json\n{\"safety_score\":0.91,\"risk_level\":\"low\",\"factors\":[\"Experienced driver\"],\"recommendations\":[\"Enjoy the ride\"]}\n```"}
			res, ok := New(Options{Chat: chat, Logger: quietLogger()}).AssessRide(ctx, rc)
			So(ok, ShouldBeTrue)
			So(res.Fallback, ShouldBeFalse)
			So(res.SafetyScore, ShouldEqual, 0.91)
			So(res.RiskLevel, ShouldEqual, risk.LevelLow)
			So(res.Factors, ShouldResemble, []string{"Experienced driver"})
			So(chat.reqs[0].Messages[1].Content, ShouldContainSubstring, "Ahmad Rizki")
		})

		Convey("a missing level is derived from the score", func() {
			chat := &fakeChat{reply: `{"safety_score":0.6}`}
			res, _ := New(Options{Chat: chat, Logger: quietLogger()}).AssessRide(ctx, rc)
			So(res.RiskLevel, ShouldEqual, risk.LevelHigh)
			So(res.Recommendations, ShouldBeEmpty)
		})

		Convey("free text falls back", func() {
			res, ok := New(Options{Chat: &fakeChat{reply: "Looks safe to me"}, Logger: quietLogger()}).AssessRide(ctx, rc)
			So(ok, ShouldBeTrue)
			So(res, ShouldResemble, FallbackAssessment(14))
		})

		Convey("an out of range score falls back", func() {
			res, _ := New(Options{Chat: &fakeChat{reply: `{"safety_score":85,"risk_level":"LOW"}`}, Logger: quietLogger()}).AssessRide(ctx, rc)
			So(res.Fallback, ShouldBeTrue)
		})

		Convey("a transport error at night gets the late-night fallback", func() {
			night := rc
			night.Hour = 23
			res, ok := New(Options{Chat: &fakeChat{err: errors.New("down")}, Logger: quietLogger()}).AssessRide(ctx, night)
			So(ok, ShouldBeTrue)
			So(res.Fallback, ShouldBeTrue)
			So(res.SafetyScore, ShouldEqual, 0.70)
			So(res.RiskLevel, ShouldEqual, risk.LevelMedium)
		})

		Convey("daytime fallback is LOW", func() {
			So(FallbackAssessment(10).RiskLevel, ShouldEqual, risk.LevelLow)
			So(FallbackAssessment(5).SafetyScore, ShouldEqual, 0.70)
		})
	})
}
