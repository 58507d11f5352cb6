package domain

// DiagnosticKind classifies a non-record finding raised while decoding a file.
type DiagnosticKind string

const (
	DiagIncompleteMessage DiagnosticKind = "incomplete_message"
	DiagMalformedSentence DiagnosticKind = "malformed_sentence"
	DiagNotSentence       DiagnosticKind = "not_a_sentence"
	DiagDecodeFailed      DiagnosticKind = "decode_failed"
	DiagNoPosition        DiagnosticKind = "no_position"
	DiagDegradedFormat    DiagnosticKind = "degraded_format"
)

// Diagnostic is one decode-level finding. Line is the 1-based source line it
// refers to, or 0 when it applies to the whole file.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Line   int            `json:"line"`
	Detail string         `json:"detail"`
}

// CountDiagnostics tallies diagnostics by kind.
func CountDiagnostics(diags []Diagnostic) map[DiagnosticKind]int {
	out := make(map[DiagnosticKind]int, len(diags))
	for _, d := range diags {
		out[d.Kind]++
	}
	return out
}

// Batch is the decoded content of one input file: the emitted records, the
// resolved decode path and any decode-level diagnostics.
type Batch[T any] struct {
	Path        string
	Format      SourceFormat
	Degraded    bool
	Records     []T
	Diagnostics []Diagnostic
}

// Diagnose appends a diagnostic to the batch.
func (b *Batch[T]) Diagnose(kind DiagnosticKind, line int, detail string) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Kind: kind, Line: line, Detail: detail})
}
