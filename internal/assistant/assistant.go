// Package assistant is the guardian's conversational side: it classifies
// rider voice transcripts, writes check-in messages and summarizes
// finished rides. Every call works without an LLM; when one is configured
// its failures fall back to the local behaviour and are never returned.
package assistant

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Level string

const (
	LevelNormal   Level = "NORMAL"
	LevelConcern  Level = "CONCERN"
	LevelDistress Level = "DISTRESS"
)

// Result is the outcome of one voice classification.
type Result struct {
	Level      Level
	Confidence float64
	Response   string
	Actions    []string
}

// VoiceContext is the ride state handed to the classifier with a transcript.
type VoiceContext struct {
	RideID         string
	ElapsedMinutes float64
	Location       string
}

type Classifier interface {
	Classify(ctx context.Context, text string, vc VoiceContext) Result
}

// ChatClient is the subset of the go-openai client the assistant needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Options struct {
	Chat      ChatClient // nil keeps everything local
	Model     string
	Timeout   time.Duration
	SafeWords []string
	Logger    *slog.Logger
}

type Assistant struct {
	classifier Classifier
	chat       ChatClient
	model      string
	timeout    time.Duration
	logger     *slog.Logger
	intn       func(n int) int
}

func New(opts Options) *Assistant {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Model == "" {
		opts.Model = "qwen-plus"
	}
	kw := NewKeywordClassifier(opts.SafeWords)
	var c Classifier = kw
	if opts.Chat != nil {
		c = &LLMClassifier{
			Client:   opts.Chat,
			Model:    opts.Model,
			Timeout:  opts.Timeout,
			Fallback: kw,
			Logger:   opts.Logger,
		}
	}
	return &Assistant{
		classifier: c,
		chat:       opts.Chat,
		model:      opts.Model,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		intn:       rand.Intn,
	}
}

// NewOpenAIClient builds a chat client for any OpenAI-compatible endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (a *Assistant) Classify(ctx context.Context, text string, vc VoiceContext) Result {
	return a.classifier.Classify(ctx, text, vc)
}

// complete sends one system+user exchange and returns the first choice.
func (a *Assistant) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	return chatOnce(ctx, a.chat, a.model, a.timeout, system, user, temperature, false)
}

func chatOnce(ctx context.Context, c ChatClient, model string, timeout time.Duration, system, user string, temperature float32, jsonOut bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
	}
	if jsonOut {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
