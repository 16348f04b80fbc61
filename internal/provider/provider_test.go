package provider

import (
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/errors"
)

func testSettings() *conf.ProviderSettings {
	return &conf.ProviderSettings{
		APIKey:             "sk-test",
		BaseURL:            "https://api.openai.com/v1",
		Model:              "gpt-4o-mini",
		TranscriptionModel: "whisper-1",
		Timeout:            10 * time.Second,
	}
}

func newMockedClient(t *testing.T) *OpenAIClient {
	t.Helper()

	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	client := NewOpenAI(testSettings(), httpClient)
	require.NotNil(t, client)
	return client
}

func TestNewOpenAIUnconfigured(t *testing.T) {
	assert.Nil(t, NewOpenAI(&conf.ProviderSettings{}, nil))
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://api.openai.com/v1/chat/completions",
		httpmock.NewStringResponder(200, `{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}]
		}`).HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))

	got, err := client.Complete(t.Context(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)
}

func TestCompleteEmptyChoices(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://api.openai.com/v1/chat/completions",
		httpmock.NewStringResponder(200, `{"id": "chatcmpl-123", "object": "chat.completion", "choices": []}`))

	_, err := client.Complete(t.Context(), "system", "user")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryProvider))
}

func TestCompleteRateLimited(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://api.openai.com/v1/chat/completions",
		httpmock.NewStringResponder(429, `{"error": {"message": "rate limit exceeded", "type": "requests"}}`))

	_, err := client.Complete(t.Context(), "system", "user")
	require.Error(t, err)
	assert.True(t, IsQuotaExhausted(err))
}

func TestCompleteServerError(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://api.openai.com/v1/chat/completions",
		httpmock.NewStringResponder(500, `{"error": {"message": "internal"}}`))

	_, err := client.Complete(t.Context(), "system", "user")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryProvider))
	assert.False(t, IsQuotaExhausted(err))
}

func TestTranscribe(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://api.openai.com/v1/audio/transcriptions",
		httpmock.NewStringResponder(200, `{"text": "the team shipped on time"}`).
			HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))

	got, err := client.Transcribe(t.Context(), []byte("fake-audio"), "recording.wav")
	require.NoError(t, err)
	assert.Equal(t, "the team shipped on time", got)
}

func TestTranscribeEmptyAudio(t *testing.T) {
	client := newMockedClient(t)

	_, err := client.Transcribe(t.Context(), nil, "recording.wav")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, httpmock.GetTotalCallCount(), "no request should be made for empty audio")
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "audio/wav", contentTypeFor("a.wav"))
	assert.Equal(t, "audio/mpeg", contentTypeFor("a.mp3"))
	assert.Equal(t, "audio/webm", contentTypeFor("blob"))
}
