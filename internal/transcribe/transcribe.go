// Package transcribe converts session audio into a transcript. It never
// fails the pipeline: when audio is missing, no provider is configured, or
// the provider call errors, it returns a deterministic templated transcript
// marked as degraded. A single attempt is made per recording, no retries.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/provider"
)

// FallbackTranscript is the deterministic transcript substituted when no
// usable speech-to-text output can be produced.
const FallbackTranscript = "[Automatic transcription unavailable] The manager recorded spoken feedback for this session, but no transcript could be produced. Please review the audio recording directly or enter session notes manually."

// QuestionRecording is one recorded answer in per-question mode, kept in the
// order the questions were asked.
type QuestionRecording struct {
	Question string
	Audio    []byte
	Filename string
}

// Result is the transcription outcome. Degraded distinguishes genuine
// provider output from fallback text.
type Result struct {
	Text     string
	Degraded bool
	Reason   string
}

// Adapter turns audio into text via the configured provider.
type Adapter struct {
	client provider.Client
	log    *slog.Logger
}

// New creates a transcription adapter. A nil client means every call
// degrades to the fallback transcript.
func New(client provider.Client) *Adapter {
	return &Adapter{
		client: client,
		log:    logging.ForService("transcribe"),
	}
}

// Transcribe produces a transcript for the given recording. In full mode the
// whole recording is transcribed in one call. In per-question mode each
// answer is transcribed independently and concatenated in original order;
// an individual question's failure is skipped rather than aborting the batch.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, filename, mode string, questions []QuestionRecording) Result {
	if mode == datastore.RecordingModePerQuestion {
		return a.transcribePerQuestion(ctx, questions)
	}
	return a.transcribeFull(ctx, audio, filename)
}

func (a *Adapter) transcribeFull(ctx context.Context, audio []byte, filename string) Result {
	if len(audio) == 0 {
		return degraded("no audio provided")
	}
	if a.client == nil {
		return degraded("no transcription provider configured")
	}

	text, err := a.client.Transcribe(ctx, audio, filename)
	if err != nil {
		a.log.Warn("transcription failed, using fallback transcript", "error", err)
		return degraded(fmt.Sprintf("transcription failed: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return degraded("provider returned empty transcript")
	}
	return Result{Text: text}
}

func (a *Adapter) transcribePerQuestion(ctx context.Context, questions []QuestionRecording) Result {
	if len(questions) == 0 {
		return degraded("no question recordings provided")
	}
	if a.client == nil {
		return degraded("no transcription provider configured")
	}

	var sb strings.Builder
	transcribed := 0
	skipped := 0

	for i, q := range questions {
		if len(q.Audio) == 0 {
			skipped++
			continue
		}
		text, err := a.client.Transcribe(ctx, q.Audio, q.Filename)
		if err != nil {
			a.log.Warn("question transcription failed, skipping",
				"question_index", i, "error", err)
			skipped++
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Question %d: %s\nAnswer: %s", i+1, q.Question, text)
		transcribed++
	}

	if transcribed == 0 {
		return degraded("all question transcriptions failed")
	}
	if skipped > 0 {
		return Result{
			Text:     sb.String(),
			Degraded: true,
			Reason:   fmt.Sprintf("%d of %d question transcriptions skipped", skipped, len(questions)),
		}
	}
	return Result{Text: sb.String()}
}

func degraded(reason string) Result {
	return Result{Text: FallbackTranscript, Degraded: true, Reason: reason}
}
