// Package orchestrator executes one conversational turn end-to-end:
// transcription, reply generation against the session history, history
// commit, and speech synthesis.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yilmaz/voxa/internal/observability"
	"github.com/yilmaz/voxa/internal/tracing"
	"github.com/yilmaz/voxa/pkg/reply"
	"github.com/yilmaz/voxa/pkg/session"
	"github.com/yilmaz/voxa/pkg/stt"
	"github.com/yilmaz/voxa/pkg/tts"
)

// Synthesizer converts reply text into a hosted audio asset.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*tts.Result, error)

	// Provider returns the provider name
	Provider() string
}

// EventFunc receives turn lifecycle events. May be nil.
type EventFunc func(event string, data map[string]interface{})

// Turn lifecycle event names.
const (
	EventTurnStarted     = "turn.started"
	EventTurnTranscribed = "turn.transcribed"
	EventTurnGenerated   = "turn.generated"
	EventTurnCompleted   = "turn.completed"
	EventTurnFailed      = "turn.failed"
)

// TurnResult is the outcome of one successful turn.
type TurnResult struct {
	TurnID     string
	Transcript string
	ReplyText  string
	AudioURL   string
}

// Config holds orchestrator dependencies.
type Config struct {
	Transcriber stt.Transcriber
	Generator   reply.Generator
	Synthesizer Synthesizer
	Sessions    *session.Store
	Voice       string
	Events      EventFunc
	Logger      zerolog.Logger
}

// Orchestrator sequences the three provider clients and the session store
// into single conversational turns.
type Orchestrator struct {
	transcriber stt.Transcriber
	generator   reply.Generator
	synthesizer Synthesizer
	sessions    *session.Store
	voice       string
	events      EventFunc
	logger      zerolog.Logger
}

// New creates a turn orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	return &Orchestrator{
		transcriber: cfg.Transcriber,
		generator:   cfg.Generator,
		synthesizer: cfg.Synthesizer,
		sessions:    cfg.Sessions,
		voice:       cfg.Voice,
		events:      cfg.Events,
		logger:      cfg.Logger.With().Str("component", "orchestrator").Logger(),
	}, nil
}

// RunTurn executes one conversational turn for the given session and audio
// input. Any stage failure aborts the turn immediately; session history is
// committed only after a successful generation step and is retained even
// when a later synthesis failure fails the whole turn.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID string, audio []byte) (*TurnResult, error) {
	turnID := tracing.NewTurnID()
	ctx = tracing.WithSessionID(ctx, sessionID)
	ctx = tracing.WithTurnID(ctx, turnID)

	ctx, span := tracing.StartSpan(
		ctx,
		"voxa.orchestrator",
		"turn.run",
		attribute.String("session_id", sessionID),
		attribute.String("turn_id", turnID),
	)
	defer span.End()

	logger := o.logger.With().
		Str("session_id", sessionID).
		Str("turn_id", turnID).
		Logger()

	start := time.Now()
	logger.Info().Int("audio_bytes", len(audio)).Msg("Turn started")
	o.emit(EventTurnStarted, map[string]interface{}{
		"session_id": sessionID,
		"turn_id":    turnID,
	})

	fail := func(stage Stage, err error) (*TurnResult, error) {
		terr := &TurnError{Stage: stage, Err: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		observability.RecordStageError(string(stage))
		observability.RecordTurn("failure", time.Since(start))
		logger.Error().Err(err).Str("stage", string(stage)).Msg("Turn failed")
		o.emit(EventTurnFailed, map[string]interface{}{
			"session_id": sessionID,
			"turn_id":    turnID,
			"stage":      string(stage),
		})
		return nil, terr
	}

	// Stage 1: speech to text. Aborts before the session is touched.
	transcript, err := o.transcribe(ctx, audio)
	if err != nil {
		return fail(StageTranscription, err)
	}
	logger.Info().Str("transcript", previewText(transcript.Text)).Msg("Audio transcribed")
	o.emit(EventTurnTranscribed, map[string]interface{}{
		"session_id": sessionID,
		"turn_id":    turnID,
		"transcript": transcript.Text,
	})

	// Stage 2: session lookup, created lazily on first reference.
	sess := o.sessions.GetOrCreate(sessionID)

	// Stage 3: reply generation with the session's current history. A
	// failed call produces no history update.
	generated, updatedHistory, err := o.generate(ctx, transcript.Text, sess.History)
	if err != nil {
		return fail(StageGeneration, err)
	}

	// Stage 4: commit the provider's updated history. This is the only
	// history write; it is not rolled back if synthesis fails below.
	o.sessions.UpdateHistory(sessionID, updatedHistory)
	logger.Info().
		Str("reply", previewText(generated.Text)).
		Int("history", len(updatedHistory)).
		Msg("Reply generated")
	o.emit(EventTurnGenerated, map[string]interface{}{
		"session_id": sessionID,
		"turn_id":    turnID,
		"reply":      generated.Text,
	})

	// Stage 5: speech synthesis.
	synthesized, err := o.synthesize(ctx, generated.Text)
	if err != nil {
		return fail(StageSynthesis, err)
	}

	observability.RecordTurn("success", time.Since(start))
	logger.Info().
		Str("audio_url", synthesized.AudioURL).
		Dur("duration", time.Since(start)).
		Msg("Turn completed")
	o.emit(EventTurnCompleted, map[string]interface{}{
		"session_id": sessionID,
		"turn_id":    turnID,
		"audio_url":  synthesized.AudioURL,
	})

	return &TurnResult{
		TurnID:     turnID,
		Transcript: transcript.Text,
		ReplyText:  generated.Text,
		AudioURL:   synthesized.AudioURL,
	}, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, audio []byte) (*stt.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "voxa.orchestrator", "turn.transcribe")
	defer span.End()

	start := time.Now()
	result, err := o.transcriber.Transcribe(ctx, audio)
	observability.RecordStage(string(StageTranscription), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, userText string, history []session.Message) (*reply.Reply, []session.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "voxa.orchestrator", "turn.generate")
	defer span.End()

	start := time.Now()
	generated, updated, err := o.generator.Generate(ctx, userText, history)
	observability.RecordStage(string(StageGeneration), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	return generated, updated, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) (*tts.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "voxa.orchestrator", "turn.synthesize")
	defer span.End()

	start := time.Now()
	result, err := o.synthesizer.Synthesize(ctx, text, o.voice)
	observability.RecordStage(string(StageSynthesis), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) emit(event string, data map[string]interface{}) {
	if o.events != nil {
		o.events(event, data)
	}
}

func previewText(text string) string {
	const max = 100
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
