package verifier

import (
	"context"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// Mode is the enhancement a Verifier applies
type Mode string

const (
	ModeOff       Mode = "off"
	ModeClean     Mode = "clean"
	ModeProofread Mode = "proofread"
	ModeKnowledge Mode = "knowledge"
)

// Verifier improves a transcript with a language model. Every method is
// best-effort: failures come back as an absent Outcome, never as an error.
type Verifier interface {
	Mode() Mode
	// Restructure splits text into titled, summarized chapters
	Restructure(ctx context.Context, text, title, description string) models.Outcome[models.StructuredResult]
	// Proofread fixes typos and punctuation without changing content
	Proofread(ctx context.Context, text, title string) models.Outcome[string]
}
