package models

// SourceKind identifies where a transcript came from
type SourceKind string

const (
	SourceCaption SourceKind = "caption"
	SourceASR     SourceKind = "asr"
)

// Valid reports whether k is a known source kind
func (k SourceKind) Valid() bool {
	return k == SourceCaption || k == SourceASR
}

// ProcessingMode selects the document layout
type ProcessingMode string

const (
	ModeStandard  ProcessingMode = "standard"
	ModeKnowledge ProcessingMode = "knowledge"
)

func (m ProcessingMode) Valid() bool {
	return m == ModeStandard || m == ModeKnowledge
}

// TimedFragment is one caption cue or ASR segment. Start and End are seconds.
type TimedFragment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Paragraph is a run of fragment texts joined by line breaks
type Paragraph string

// Transcript is the output of source selection
type Transcript struct {
	Fragments []TimedFragment
	Kind      SourceKind
}

// Duration returns the end time of the last fragment
func (t Transcript) Duration() float64 {
	if len(t.Fragments) == 0 {
		return 0
	}
	return t.Fragments[len(t.Fragments)-1].End
}
