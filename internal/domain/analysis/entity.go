package analysis

import "strings"

// Kind of a classified invocation request.
type Kind string

const (
	KindFileAnalysis   Kind = "file_analysis"
	KindPromptAnalysis Kind = "prompt_analysis"
	KindStatus         Kind = "status"
)

// SourceEventBridge is the marker value for event-sourced invocations.
const SourceEventBridge = "eventbridge"

// Request is a single invocation payload. The same body shape carries all
// three request variants; Kind() tells them apart. Prompt is a pointer so a
// present-but-empty prompt field still routes to the prompt path.
type Request struct {
	Source       string  `json:"source,omitempty"`
	Bucket       string  `json:"bucket,omitempty"`
	Key          string  `json:"key,omitempty"`
	OutputBucket string  `json:"outputBucket,omitempty"`
	Prompt       *string `json:"prompt,omitempty"`
}

// Kind classifies the request. Priority order, first match wins:
// event-sourced, then direct prompt, else status.
func (r Request) Kind() Kind {
	switch {
	case r.Source == SourceEventBridge:
		return KindFileAnalysis
	case r.Prompt != nil:
		return KindPromptAnalysis
	default:
		return KindStatus
	}
}

// SourceObject is a source file fetched from the object store. Immutable
// once fetched; owned by the invocation that fetched it.
type SourceObject struct {
	Bucket    string
	Key       string
	Content   string
	SizeBytes int64
	FileType  string
}

// OutputObject is an analysis report destined for the output bucket.
type OutputObject struct {
	Bucket      string
	Key         string
	Body        string
	ContentType string
	Metadata    map[string]string
}

// FileTypeFromKey derives the file type from the portion of the key after
// the last dot, lowercased. Keys without a dot map to "unknown".
func FileTypeFromKey(key string) string {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "unknown"
	}
	return strings.ToLower(key[i+1:])
}
