package models

// Chapter is one section of a restructured transcript.
// Body is emitted by the model under the "content" key.
type Chapter struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Body    string `json:"content"`
}

// StructuredResult is the knowledge-mode restructuring of a transcript
type StructuredResult struct {
	OverallSummary string    `json:"overall_summary"`
	Chapters       []Chapter `json:"chapters"`

	// Coverage is the share of source characters found in chapter bodies
	Coverage float64  `json:"-"`
	Warnings []string `json:"-"`
}

// DocumentMetadata is assembled once per run and not modified afterwards
type DocumentMetadata struct {
	Title            string
	URL              string
	UploadDate       string
	Duration         float64
	SourceKind       SourceKind
	Mode             ProcessingMode
	Verified         bool
	VerificationNote string
}

// VideoInfo is what the retrieval service knows about a video
type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`
	URL         string  `json:"url"`
}
