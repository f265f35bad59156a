package jobs

import (
	"fmt"
	"strings"

	"soundconverter/internal/filterchain"
	"soundconverter/internal/services"
)

// Operation names a batch operation.
type Operation string

const (
	OpConvert Operation = "convert"
	OpTrim    Operation = "trim"
	OpModify  Operation = "modify"
	OpMaster  Operation = "master"
	OpAnalyze Operation = "analyze"
)

// Operations lists every supported operation.
var Operations = []Operation{OpConvert, OpTrim, OpModify, OpMaster, OpAnalyze}

// ParseOperation resolves name; empty selects OpConvert.
func ParseOperation(name string) (Operation, error) {
	normalized := Operation(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "" {
		return OpConvert, nil
	}
	for _, op := range Operations {
		if op == normalized {
			return op, nil
		}
	}
	return "", services.New(services.ErrValidation, services.CodeInvalidOperation,
		fmt.Sprintf("unknown operation: %s", name), nil).
		With("operation", name)
}

// verb is used in multi-file result messages.
func (o Operation) verb() string {
	switch o {
	case OpTrim:
		return "Trimmed"
	case OpModify:
		return "Modified"
	case OpMaster:
		return "Mastered"
	case OpAnalyze:
		return "Analyzed"
	default:
		return "Converted"
	}
}

// Request is an immutable batch description.
type Request struct {
	ID        string
	Operation Operation
	Inputs    []string
	OutputDir string
	Overwrite bool
	// FFmpegPath overrides encoder discovery for this request.
	FFmpegPath string

	// convert
	Format  string
	Bitrate string

	// modify
	Speed    float64
	Pitch    int
	CutStart float64
	CutEnd   float64

	// master
	Preset    string
	Mastering filterchain.MasteringParams

	// trim
	Trim filterchain.TrimParams
}

// WithDefaults fills the operation and cut window when unset. Speed is not
// defaulted here: the decoder supplies 1 when the field is absent, so an
// explicit 0 still reaches validation.
func (r Request) WithDefaults() Request {
	if r.Operation == "" {
		r.Operation = OpConvert
	}
	if r.CutEnd == 0 && r.CutStart == 0 {
		r.CutEnd = 100
	}
	r.Inputs = append([]string(nil), r.Inputs...)
	return r
}

// WorkItem pairs a source with its allocated destination. Index is 0-based.
type WorkItem struct {
	Index       int
	Source      string
	Destination string
}

// ItemStatus is the final state of one work item.
type ItemStatus string

const (
	ItemCompleted ItemStatus = "completed"
	ItemFailed    ItemStatus = "failed"
	ItemSkipped   ItemStatus = "skipped"
)

// ItemResult records what happened to one work item.
type ItemResult struct {
	WorkItem
	Status ItemStatus
	Error  string
}

// Result is the aggregate outcome of a batch.
type Result struct {
	Operation Operation
	Success   bool
	Message   string
	Outputs   []string
	Data      any
	Items     []ItemResult
}

// ProgressStatus is the per-item progress phase.
type ProgressStatus string

const (
	StatusProcessing ProgressStatus = "processing"
	StatusCompleted  ProgressStatus = "completed"
)

// Progress is a per-item progress notification. Index is 1-based.
type Progress struct {
	Operation   Operation
	Status      ProgressStatus
	Index       int
	Total       int
	File        string
	Destination string
}

// Sink receives progress notifications. Implementations must be safe for
// concurrent use when the batch runs with more than one worker.
type Sink interface {
	Progress(Progress)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Progress)

// Progress implements Sink.
func (f SinkFunc) Progress(p Progress) {
	if f != nil {
		f(p)
	}
}

type discardSink struct{}

func (discardSink) Progress(Progress) {}
