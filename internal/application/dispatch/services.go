package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-review/internal/application"
	"github.com/bryanwahyu/automaton-review/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-review/internal/infra/ai/prompt"
)

// Version reported by the status path.
const Version = "1.0.0"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	previewLimit  = 500
	previewMarker = "..."

	// Output keys embed the dispatch start time in UTC.
	timestampLayout = "20060102_150405"
)

// Service implements the request dispatcher: it classifies one invocation,
// runs the matching handler, and always hands back a well-formed envelope.
// Safe for concurrent use; invocations share no mutable state.
type Service struct {
	Store  analysis.ObjectStore
	AI     analysis.Client
	Clock  application.Clock
	Logger *slog.Logger
}

// FileInput echoes the analyzed source object.
type FileInput struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// FileOutput describes where the report went. Bucket and Key stay null when
// the request carried no output bucket.
type FileOutput struct {
	Bucket         *string `json:"bucket"`
	Key            *string `json:"key"`
	AnalysisLength int     `json:"analysis_length"`
}

// Envelope is the uniform response for every invocation. Status is the sole
// success/failure signal; the variant fields are set per request path.
type Envelope struct {
	Status                string      `json:"status"`
	Message               string      `json:"message"`
	RequestID             string      `json:"request_id"`
	ProcessingTimeSeconds float64     `json:"processing_time_seconds"`
	Version               string      `json:"version,omitempty"`
	Analysis              string      `json:"analysis,omitempty"`
	InputPrompt           *string     `json:"input_prompt,omitempty"`
	Input                 *FileInput  `json:"input,omitempty"`
	Output                *FileOutput `json:"output,omitempty"`
	AnalysisPreview       string      `json:"analysis_preview,omitempty"`
}

// Dispatch classifies the request and runs the matching handler. It never
// returns an error and never lets a panic escape; every failure becomes an
// error envelope carrying the request id.
func (s *Service) Dispatch(ctx context.Context, req analysis.Request, requestID string) (env Envelope) {
	start := s.Clock.Now()
	logger := s.logger().With("request_id", requestID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch panicked", "panic", r)
			env = s.errorEnvelope(requestID, start, fmt.Sprintf("internal server error: %v", r))
		}
	}()

	logger.Info("processing analysis request", "kind", string(req.Kind()))

	switch req.Kind() {
	case analysis.KindFileAnalysis:
		env = s.handleFileAnalysis(ctx, logger, req, requestID, start)
	case analysis.KindPromptAnalysis:
		env = s.handlePromptAnalysis(ctx, logger, req, requestID, start)
	default:
		env = Envelope{
			Status:                StatusSuccess,
			Message:               "code analysis agent invoked, no action taken",
			RequestID:             requestID,
			ProcessingTimeSeconds: s.elapsed(start),
			Version:               Version,
		}
	}

	logger.Info("dispatch finished", "status", env.Status, "processing_time_seconds", env.ProcessingTimeSeconds)
	return env
}

// handleFileAnalysis runs the event-sourced path: fetch the source object,
// analyze it, store the report (best-effort), build the envelope.
func (s *Service) handleFileAnalysis(ctx context.Context, logger *slog.Logger, req analysis.Request, requestID string, start time.Time) Envelope {
	if req.Bucket == "" || req.Key == "" {
		err := fmt.Errorf("%w: missing bucket name or object key", analysis.ErrValidation)
		logger.Error("rejected file analysis request", "error", err)
		return s.errorEnvelope(requestID, start, err.Error())
	}

	logger.Info("analyzing file", "bucket", req.Bucket, "key", req.Key)

	src, err := s.Store.Get(ctx, req.Bucket, req.Key)
	if err != nil {
		err = fmt.Errorf("%w: %v", analysis.ErrFetch, err)
		logger.Error("source object fetch failed", "bucket", req.Bucket, "key", req.Key, "error", err)
		return s.errorEnvelope(requestID, start, err.Error())
	}
	logger.Info("source object read", "key", src.Key, "size_bytes", src.SizeBytes, "file_type", src.FileType)

	text, err := s.AI.Analyze(ctx, prompt.BuildFilePrompt(src))
	if err != nil {
		err = fmt.Errorf("%w: %v", analysis.ErrAnalysis, err)
		logger.Error("agent analysis failed", "key", src.Key, "error", err)
		return s.errorEnvelope(requestID, start, err.Error())
	}

	ts := start.UTC().Format(timestampLayout)
	outputKey := "analysis/" + strings.ReplaceAll(src.Key, "/", "_") + "_" + ts + "_analysis.md"

	out := &FileOutput{AnalysisLength: len(text)}
	if req.OutputBucket != "" {
		obj := &analysis.OutputObject{
			Bucket:      req.OutputBucket,
			Key:         outputKey,
			Body:        text,
			ContentType: "text/markdown",
			Metadata: map[string]string{
				"source-bucket":      src.Bucket,
				"source-key":         src.Key,
				"analysis-timestamp": ts,
				"file-type":          src.FileType,
				"request-id":         requestID,
			},
		}
		// Best-effort persistence: a failed report write never fails the invocation.
		if err := s.Store.Put(ctx, obj); err != nil {
			logger.Warn("failed to store analysis report", "bucket", req.OutputBucket, "key", outputKey, "error", err)
		} else {
			logger.Info("analysis report stored", "bucket", req.OutputBucket, "key", outputKey)
		}
		out.Bucket = &req.OutputBucket
		out.Key = &outputKey
	}

	return Envelope{
		Status:    StatusSuccess,
		Message:   "file analysis completed",
		RequestID: requestID,
		Input: &FileInput{
			Bucket:   src.Bucket,
			Key:      src.Key,
			FileSize: src.SizeBytes,
			FileType: src.FileType,
		},
		Output:                out,
		AnalysisPreview:       preview(text),
		ProcessingTimeSeconds: s.elapsed(start),
	}
}

// handlePromptAnalysis submits the prompt verbatim. An empty prompt is
// accepted and passed through as-is.
func (s *Service) handlePromptAnalysis(ctx context.Context, logger *slog.Logger, req analysis.Request, requestID string, start time.Time) Envelope {
	var p string
	if req.Prompt != nil {
		p = *req.Prompt
	}

	text, err := s.AI.Analyze(ctx, p)
	if err != nil {
		err = fmt.Errorf("%w: %v", analysis.ErrAnalysis, err)
		logger.Error("agent analysis failed", "error", err)
		return s.errorEnvelope(requestID, start, err.Error())
	}

	return Envelope{
		Status:                StatusSuccess,
		Message:               "code analysis completed",
		RequestID:             requestID,
		Analysis:              text,
		InputPrompt:           &p,
		ProcessingTimeSeconds: s.elapsed(start),
	}
}

func (s *Service) errorEnvelope(requestID string, start time.Time, msg string) Envelope {
	return Envelope{
		Status:                StatusError,
		Message:               msg,
		RequestID:             requestID,
		ProcessingTimeSeconds: s.elapsed(start),
	}
}

// elapsed is the wall-clock dispatch time in seconds, millisecond precision.
func (s *Service) elapsed(start time.Time) float64 {
	secs := s.Clock.Now().Sub(start).Seconds()
	return math.Round(secs*1000) / 1000
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// preview keeps the first 500 bytes of the analysis, marking truncation.
func preview(text string) string {
	if len(text) > previewLimit {
		return text[:previewLimit] + previewMarker
	}
	return text
}
