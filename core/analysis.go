package core

import (
	"strings"
	"unicode/utf8"
)

// Stage names, in pipeline order. Stages are data-dependent: each stage after
// the first reads a digest of earlier stage outputs, so the order is fixed.
const (
	StageCoreMetadata       = "core_metadata"
	StageClassification     = "classification"
	StageEntityExtraction   = "entity_extraction"
	StageTextExtraction     = "text_extraction"
	StageDesignElements     = "design_elements"
	StageTaxonomyKeywords   = "taxonomy_keywords"
	StageCommunicationFocus = "communication_focus"
)

// StageNames lists all pipeline stages in execution order.
var StageNames = []string{
	StageCoreMetadata,
	StageClassification,
	StageEntityExtraction,
	StageTextExtraction,
	StageDesignElements,
	StageTaxonomyKeywords,
	StageCommunicationFocus,
}

// CoreMetadata is the output of the core_metadata stage.
type CoreMetadata struct {
	Title        string
	Summary      string
	DocumentType string // e.g. "flyer", "mailer", "yard sign", "digital ad"
	ElectionYear string
	Language     string
}

// Classification is the output of the classification stage.
type Classification struct {
	Category       string
	Tone           string // e.g. "positive", "negative", "contrast"
	Purpose        string
	TargetAudience string
}

// EntityExtraction is the output of the entity_extraction stage.
type EntityExtraction struct {
	Candidates    []string
	Parties       []string
	Organizations []string
	Locations     []string
	Dates         []string
}

// TextExtraction is the output of the text_extraction stage.
type TextExtraction struct {
	FullText string
	Quotes   []string
}

// DesignElements is the output of the design_elements stage.
type DesignElements struct {
	Colors     []string
	Imagery    []string
	Layout     string
	Typography string
}

// KeywordMapping links a verbatim extracted term to its resolution.
// The taxonomy_keywords stage fills Verbatim, Category, and Relevance; the
// normalizer fills Canonical and may replace Category with the canonical
// term's primary category.
type KeywordMapping struct {
	Verbatim  string
	Canonical string
	Category  string
	Relevance float64
}

// KeywordAnalysis is the output of the taxonomy_keywords stage.
type KeywordAnalysis struct {
	Mappings []KeywordMapping
}

// CommunicationFocus is the output of the communication_focus stage.
type CommunicationFocus struct {
	PrimaryIssue      string
	SecondaryIssues   []string
	MessagingStrategy string
}

// AnalysisRecord holds the validated output of every completed stage.
// It is append-only per stage: later stages read earlier outputs through
// Digest but never mutate them. A nil field means the stage has not run.
type AnalysisRecord struct {
	CoreMetadata       *CoreMetadata
	Classification     *Classification
	Entities           *EntityExtraction
	Text               *TextExtraction
	DesignElements     *DesignElements
	TaxonomyKeywords   *KeywordAnalysis
	CommunicationFocus *CommunicationFocus
}

// StageDone reports whether the named stage has a recorded output.
func (r *AnalysisRecord) StageDone(name string) bool {
	switch name {
	case StageCoreMetadata:
		return r.CoreMetadata != nil
	case StageClassification:
		return r.Classification != nil
	case StageEntityExtraction:
		return r.Entities != nil
	case StageTextExtraction:
		return r.Text != nil
	case StageDesignElements:
		return r.DesignElements != nil
	case StageTaxonomyKeywords:
		return r.TaxonomyKeywords != nil
	case StageCommunicationFocus:
		return r.CommunicationFocus != nil
	default:
		return false
	}
}

// CompletedStages returns the names of stages with recorded output, in
// pipeline order.
func (r *AnalysisRecord) CompletedStages() []string {
	done := make([]string, 0, len(StageNames))
	for _, name := range StageNames {
		if r.StageDone(name) {
			done = append(done, name)
		}
	}
	return done
}

// StageContext is the read-only digest of prior stage outputs that later
// stages receive as prompt context.
type StageContext struct {
	DocumentType string
	ElectionYear string
	Tone         string
}

// Digest returns the accumulated cross-stage context.
func (r *AnalysisRecord) Digest() StageContext {
	var sc StageContext
	if r.CoreMetadata != nil {
		sc.DocumentType = r.CoreMetadata.DocumentType
		sc.ElectionYear = r.CoreMetadata.ElectionYear
	}
	if r.Classification != nil {
		sc.Tone = r.Classification.Tone
	}
	return sc
}

// searchTextLimit caps how much raw document text flows into the digest.
const searchTextLimit = 2000

// BuildSearchText assembles the searchable-content digest for a document from
// its analysis. Recomputed whenever the pipeline completes.
func BuildSearchText(doc *Document) string {
	var parts []string
	if md := doc.Analysis.CoreMetadata; md != nil {
		parts = append(parts, md.Title, md.Summary)
	}
	if ent := doc.Analysis.Entities; ent != nil {
		parts = append(parts, strings.Join(ent.Candidates, " "))
		parts = append(parts, strings.Join(ent.Organizations, " "))
		parts = append(parts, strings.Join(ent.Locations, " "))
	}
	if cf := doc.Analysis.CommunicationFocus; cf != nil {
		parts = append(parts, cf.PrimaryIssue)
		parts = append(parts, strings.Join(cf.SecondaryIssues, " "))
	}
	parts = append(parts, strings.Join(doc.Keywords, " "))
	text := doc.Text
	if doc.Analysis.Text != nil && doc.Analysis.Text.FullText != "" {
		text = doc.Analysis.Text.FullText
	}
	parts = append(parts, TruncateText(text, searchTextLimit))

	joined := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			joined = append(joined, p)
		}
	}
	return strings.Join(joined, "\n")
}

// TruncateText shortens s to at most limit bytes, backing up so a multi-byte
// rune is never split.
func TruncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
