package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/hustings/canvass/core"
)

// stage describes one analysis step: its system prompt, how to build the
// per-document user prompt, and how to parse and record the model's output.
// parse must validate required fields and assign to the record only on
// success, so a failed stage leaves the record untouched.
type stage struct {
	name   string
	system string
	user   func(doc *core.Document, sctx core.StageContext) string
	parse  func(raw []byte, rec *core.AnalysisRecord) error
}

// stages lists every pipeline stage in execution order. The order matches
// core.StageNames and is fixed: later stages consume the context digest
// produced by earlier ones.
var stages = []stage{
	{
		name:   core.StageCoreMetadata,
		system: coreMetadataSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseCoreMetadata,
	},
	{
		name:   core.StageClassification,
		system: classificationSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseClassification,
	},
	{
		name:   core.StageEntityExtraction,
		system: entityExtractionSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseEntityExtraction,
	},
	{
		name:   core.StageTextExtraction,
		system: textExtractionSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseTextExtraction,
	},
	{
		name:   core.StageDesignElements,
		system: designElementsSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseDesignElements,
	},
	{
		name:   core.StageTaxonomyKeywords,
		system: taxonomyKeywordsSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseTaxonomyKeywords,
	},
	{
		name:   core.StageCommunicationFocus,
		system: communicationFocusSystemPrompt,
		user:   buildUserPrompt,
		parse:  parseCommunicationFocus,
	},
}

type coreMetadataWire struct {
	Title        string  `json:"title"`
	Summary      *string `json:"summary"`
	DocumentType *string `json:"document_type"`
	ElectionYear string  `json:"election_year"`
	Language     string  `json:"language"`
}

func parseCoreMetadata(raw []byte, rec *core.AnalysisRecord) error {
	var w coreMetadataWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if w.Summary == nil || *w.Summary == "" {
		return fmt.Errorf("%w: missing required field summary", ErrValidation)
	}
	if w.DocumentType == nil || *w.DocumentType == "" {
		return fmt.Errorf("%w: missing required field document_type", ErrValidation)
	}
	rec.CoreMetadata = &core.CoreMetadata{
		Title:        w.Title,
		Summary:      *w.Summary,
		DocumentType: *w.DocumentType,
		ElectionYear: w.ElectionYear,
		Language:     w.Language,
	}
	return nil
}

type classificationWire struct {
	Category       *string `json:"category"`
	Tone           *string `json:"tone"`
	Purpose        string  `json:"purpose"`
	TargetAudience string  `json:"target_audience"`
}

func parseClassification(raw []byte, rec *core.AnalysisRecord) error {
	var w classificationWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if w.Category == nil || *w.Category == "" {
		return fmt.Errorf("%w: missing required field category", ErrValidation)
	}
	if w.Tone == nil || *w.Tone == "" {
		return fmt.Errorf("%w: missing required field tone", ErrValidation)
	}
	rec.Classification = &core.Classification{
		Category:       *w.Category,
		Tone:           *w.Tone,
		Purpose:        w.Purpose,
		TargetAudience: w.TargetAudience,
	}
	return nil
}

type entityExtractionWire struct {
	Candidates    []string `json:"candidates"`
	Parties       []string `json:"parties"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
}

func parseEntityExtraction(raw []byte, rec *core.AnalysisRecord) error {
	var w entityExtractionWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	rec.Entities = &core.EntityExtraction{
		Candidates:    w.Candidates,
		Parties:       w.Parties,
		Organizations: w.Organizations,
		Locations:     w.Locations,
		Dates:         w.Dates,
	}
	return nil
}

type textExtractionWire struct {
	FullText *string  `json:"full_text"`
	Quotes   []string `json:"quotes"`
}

func parseTextExtraction(raw []byte, rec *core.AnalysisRecord) error {
	var w textExtractionWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if w.FullText == nil {
		return fmt.Errorf("%w: missing required field full_text", ErrValidation)
	}
	rec.Text = &core.TextExtraction{
		FullText: *w.FullText,
		Quotes:   w.Quotes,
	}
	return nil
}

type designElementsWire struct {
	Colors     []string `json:"colors"`
	Imagery    []string `json:"imagery"`
	Layout     string   `json:"layout"`
	Typography string   `json:"typography"`
}

func parseDesignElements(raw []byte, rec *core.AnalysisRecord) error {
	var w designElementsWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	rec.DesignElements = &core.DesignElements{
		Colors:     w.Colors,
		Imagery:    w.Imagery,
		Layout:     w.Layout,
		Typography: w.Typography,
	}
	return nil
}

type keywordWire struct {
	Term      *string `json:"term"`
	Category  string  `json:"category"`
	Relevance float64 `json:"relevance"`
}

type taxonomyKeywordsWire struct {
	Keywords []keywordWire `json:"keywords"`
}

func parseTaxonomyKeywords(raw []byte, rec *core.AnalysisRecord) error {
	var w taxonomyKeywordsWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	mappings := make([]core.KeywordMapping, 0, len(w.Keywords))
	for i, kw := range w.Keywords {
		if kw.Term == nil || *kw.Term == "" {
			return fmt.Errorf("%w: keyword %d missing required field term", ErrValidation, i)
		}
		if kw.Relevance < 0 || kw.Relevance > 1 {
			return fmt.Errorf("%w: keyword %q relevance %v out of range", ErrValidation, *kw.Term, kw.Relevance)
		}
		mappings = append(mappings, core.KeywordMapping{
			Verbatim:  *kw.Term,
			Category:  kw.Category,
			Relevance: kw.Relevance,
		})
	}
	rec.TaxonomyKeywords = &core.KeywordAnalysis{Mappings: mappings}
	return nil
}

type communicationFocusWire struct {
	PrimaryIssue      *string  `json:"primary_issue"`
	SecondaryIssues   []string `json:"secondary_issues"`
	MessagingStrategy string   `json:"messaging_strategy"`
}

func parseCommunicationFocus(raw []byte, rec *core.AnalysisRecord) error {
	var w communicationFocusWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if w.PrimaryIssue == nil || *w.PrimaryIssue == "" {
		return fmt.Errorf("%w: missing required field primary_issue", ErrValidation)
	}
	rec.CommunicationFocus = &core.CommunicationFocus{
		PrimaryIssue:      *w.PrimaryIssue,
		SecondaryIssues:   w.SecondaryIssues,
		MessagingStrategy: w.MessagingStrategy,
	}
	return nil
}
