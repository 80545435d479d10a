package verifier

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

const fence = "```"

var reTaggedFence = regexp.MustCompile("(?i)" + fence + "json")

// ResponseParser attempts to read a StructuredResult out of raw model output
type ResponseParser interface {
	Parse(raw string) (models.StructuredResult, bool)
}

// TaggedFence reads a ```json fenced block
type TaggedFence struct{}

// BareFence reads the first fenced block, ignoring any non-JSON language tag
type BareFence struct{}

// RawPayload reads the whole text, then the span from the first "{" to the
// last "}"
type RawPayload struct{}

// DefaultParsers is the order responses are tried in
var DefaultParsers = []ResponseParser{TaggedFence{}, BareFence{}, RawPayload{}}

// ParseStructured returns the result of the first parser that succeeds
func ParseStructured(raw string, parsers ...ResponseParser) (models.StructuredResult, bool) {
	if len(parsers) == 0 {
		parsers = DefaultParsers
	}
	for _, p := range parsers {
		if res, ok := p.Parse(raw); ok {
			return res, true
		}
	}
	return models.StructuredResult{}, false
}

func (TaggedFence) Parse(raw string) (models.StructuredResult, bool) {
	loc := reTaggedFence.FindStringIndex(raw)
	if loc == nil {
		return models.StructuredResult{}, false
	}
	return decodePayload(untilFence(raw[loc[1]:]))
}

func (BareFence) Parse(raw string) (models.StructuredResult, bool) {
	start := strings.Index(raw, fence)
	if start < 0 {
		return models.StructuredResult{}, false
	}
	body := raw[start+len(fence):]

	// Drop a language tag on the opening line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	}
	return decodePayload(untilFence(body))
}

func (RawPayload) Parse(raw string) (models.StructuredResult, bool) {
	if res, ok := decodePayload(raw); ok {
		return res, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.StructuredResult{}, false
	}
	return decodePayload(raw[start : end+1])
}

func untilFence(body string) string {
	if end := strings.Index(body, fence); end >= 0 {
		return body[:end]
	}
	return body
}

// decodePayload accepts an object with at least one chapter
func decodePayload(s string) (models.StructuredResult, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.StructuredResult{}, false
	}

	var res models.StructuredResult
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return models.StructuredResult{}, false
	}
	if len(res.Chapters) == 0 {
		return models.StructuredResult{}, false
	}
	return res, true
}

// stripFence unwraps text the model returned inside a single fenced block
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, fence) || !strings.HasSuffix(s, fence) || len(s) < 2*len(fence) {
		return s
	}
	inner := s[len(fence) : len(s)-len(fence)]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && isLangTag(inner[:nl]) {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}

func isLangTag(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) > 20 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}
