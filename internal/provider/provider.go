// Package provider wraps the OpenAI-compatible API used for both
// speech-to-text and text generation. The rest of the pipeline talks to the
// Client interface so tests can substitute fakes and an unconfigured
// provider is represented by a nil Client.
package provider

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/errors"
)

// Client is the surface the pipeline needs from a generative provider.
type Client interface {
	// Complete sends one system+user prompt pair and returns the raw model text.
	Complete(ctx context.Context, system, user string) (string, error)
	// Transcribe converts audio bytes into text.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// OpenAIClient implements Client against an OpenAI-compatible endpoint.
type OpenAIClient struct {
	client    openaigo.Client
	chatModel string
	sttModel  string
}

// NewOpenAI builds a client from provider settings. Returns nil when no API
// key is configured; callers treat a nil Client as "no provider available".
func NewOpenAI(settings *conf.ProviderSettings, httpClient *http.Client) *OpenAIClient {
	if !settings.Configured() {
		return nil
	}

	baseURL := strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(settings.APIKey)),
		option.WithMaxRetries(settings.MaxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if settings.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(settings.Timeout))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIClient{
		client:    openaigo.NewClient(opts...),
		chatModel: settings.Model,
		sttModel:  settings.TranscriptionModel,
	}
}

// Complete sends a chat completion request and returns the first choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(c.chatModel),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(system),
			openaigo.UserMessage(user),
		},
	})
	if err != nil {
		return "", wrapProviderError(err, "chat_completion")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.Newf("model returned no choices").
			Component("provider").
			Category(errors.CategoryProvider).
			Build()
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe sends audio to the speech-to-text endpoint.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", errors.Newf("no audio data").
			Component("provider").
			Category(errors.CategoryValidation).
			Build()
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, openaigo.AudioTranscriptionNewParams{
		Model: openaigo.AudioModel(c.sttModel),
		File:  openaigo.File(bytes.NewReader(audio), filename, contentTypeFor(filename)),
	})
	if err != nil {
		return "", wrapProviderError(err, "transcription")
	}
	return resp.Text, nil
}

// wrapProviderError maps transport errors onto the error taxonomy. Rate
// limits get their own category so the synthesis path can surface them.
func wrapProviderError(err error, operation string) error {
	category := errors.CategoryProvider

	var apiErr *openaigo.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			category = errors.CategoryProviderQuota
		case apiErr.StatusCode == http.StatusPaymentRequired:
			category = errors.CategoryProviderQuota
		case apiErr.StatusCode >= 500:
			category = errors.CategoryProvider
		case apiErr.StatusCode == http.StatusRequestTimeout:
			category = errors.CategoryTimeout
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		category = errors.CategoryTimeout
	}

	return errors.New(err).
		Component("provider").
		Category(category).
		Context("provider_operation", operation).
		Build()
}

// IsQuotaExhausted reports whether err indicates rate-limit or credit exhaustion.
func IsQuotaExhausted(err error) bool {
	return errors.IsCategory(err, errors.CategoryProviderQuota)
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(filename, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(filename, ".ogg"):
		return "audio/ogg"
	case strings.HasSuffix(filename, ".m4a"):
		return "audio/mp4"
	default:
		return "audio/webm"
	}
}
