package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for AnalysisRecord and the per-stage output structs.
// Optional stage outputs are encoded as a presence flag followed by the value.

type analysisRecordMUS struct{}

func (analysisRecordMUS) Marshal(r AnalysisRecord, bs []byte) (n int) {
	n = marshalOpt(r.CoreMetadata, coreMetadataMUS{}, bs)
	n += marshalOpt(r.Classification, classificationMUS{}, bs[n:])
	n += marshalOpt(r.Entities, entityExtractionMUS{}, bs[n:])
	n += marshalOpt(r.Text, textExtractionMUS{}, bs[n:])
	n += marshalOpt(r.DesignElements, designElementsMUS{}, bs[n:])
	n += marshalOpt(r.TaxonomyKeywords, keywordAnalysisMUS{}, bs[n:])
	n += marshalOpt(r.CommunicationFocus, communicationFocusMUS{}, bs[n:])
	return n
}

func (analysisRecordMUS) Unmarshal(bs []byte) (r AnalysisRecord, n int, err error) {
	var n1 int
	if r.CoreMetadata, n, err = unmarshalOpt(coreMetadataMUS{}, bs); err != nil {
		return
	}
	if r.Classification, n1, err = unmarshalOpt(classificationMUS{}, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Entities, n1, err = unmarshalOpt(entityExtractionMUS{}, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Text, n1, err = unmarshalOpt(textExtractionMUS{}, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.DesignElements, n1, err = unmarshalOpt(designElementsMUS{}, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.TaxonomyKeywords, n1, err = unmarshalOpt(keywordAnalysisMUS{}, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.CommunicationFocus, n1, err = unmarshalOpt(communicationFocusMUS{}, bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (analysisRecordMUS) Size(r AnalysisRecord) (size int) {
	size = sizeOpt(r.CoreMetadata, coreMetadataMUS{})
	size += sizeOpt(r.Classification, classificationMUS{})
	size += sizeOpt(r.Entities, entityExtractionMUS{})
	size += sizeOpt(r.Text, textExtractionMUS{})
	size += sizeOpt(r.DesignElements, designElementsMUS{})
	size += sizeOpt(r.TaxonomyKeywords, keywordAnalysisMUS{})
	size += sizeOpt(r.CommunicationFocus, communicationFocusMUS{})
	return size
}

// valueMUS is the common shape of the hand-written serializers, used by the
// optional-value helpers.
type valueMUS[T any] interface {
	Marshal(v T, bs []byte) int
	Unmarshal(bs []byte) (T, int, error)
	Size(v T) int
}

func marshalOpt[T any](v *T, ser valueMUS[T], bs []byte) (n int) {
	n = ord.Bool.Marshal(v != nil, bs)
	if v != nil {
		n += ser.Marshal(*v, bs[n:])
	}
	return n
}

func unmarshalOpt[T any](ser valueMUS[T], bs []byte) (v *T, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return nil, n, err
	}
	value, n1, err := ser.Unmarshal(bs[n:])
	if err != nil {
		return nil, n + n1, err
	}
	return &value, n + n1, nil
}

func sizeOpt[T any](v *T, ser valueMUS[T]) (size int) {
	size = ord.Bool.Size(v != nil)
	if v != nil {
		size += ser.Size(*v)
	}
	return size
}

type coreMetadataMUS struct{}

func (coreMetadataMUS) Marshal(m CoreMetadata, bs []byte) (n int) {
	n = ord.String.Marshal(m.Title, bs)
	n += ord.String.Marshal(m.Summary, bs[n:])
	n += ord.String.Marshal(m.DocumentType, bs[n:])
	n += ord.String.Marshal(m.ElectionYear, bs[n:])
	n += ord.String.Marshal(m.Language, bs[n:])
	return n
}

func (coreMetadataMUS) Unmarshal(bs []byte) (m CoreMetadata, n int, err error) {
	fields := []*string{&m.Title, &m.Summary, &m.DocumentType, &m.ElectionYear, &m.Language}
	n, err = unmarshalStringFields(fields, bs)
	return m, n, err
}

func (coreMetadataMUS) Size(m CoreMetadata) int {
	return ord.String.Size(m.Title) + ord.String.Size(m.Summary) +
		ord.String.Size(m.DocumentType) + ord.String.Size(m.ElectionYear) +
		ord.String.Size(m.Language)
}

type classificationMUS struct{}

func (classificationMUS) Marshal(c Classification, bs []byte) (n int) {
	n = ord.String.Marshal(c.Category, bs)
	n += ord.String.Marshal(c.Tone, bs[n:])
	n += ord.String.Marshal(c.Purpose, bs[n:])
	n += ord.String.Marshal(c.TargetAudience, bs[n:])
	return n
}

func (classificationMUS) Unmarshal(bs []byte) (c Classification, n int, err error) {
	fields := []*string{&c.Category, &c.Tone, &c.Purpose, &c.TargetAudience}
	n, err = unmarshalStringFields(fields, bs)
	return c, n, err
}

func (classificationMUS) Size(c Classification) int {
	return ord.String.Size(c.Category) + ord.String.Size(c.Tone) +
		ord.String.Size(c.Purpose) + ord.String.Size(c.TargetAudience)
}

type entityExtractionMUS struct{}

func (entityExtractionMUS) Marshal(e EntityExtraction, bs []byte) (n int) {
	n = marshalStrings(e.Candidates, bs)
	n += marshalStrings(e.Parties, bs[n:])
	n += marshalStrings(e.Organizations, bs[n:])
	n += marshalStrings(e.Locations, bs[n:])
	n += marshalStrings(e.Dates, bs[n:])
	return n
}

func (entityExtractionMUS) Unmarshal(bs []byte) (e EntityExtraction, n int, err error) {
	fields := []*[]string{&e.Candidates, &e.Parties, &e.Organizations, &e.Locations, &e.Dates}
	for _, f := range fields {
		var n1 int
		*f, n1, err = unmarshalStrings(bs[n:])
		n += n1
		if err != nil {
			return e, n, err
		}
	}
	return e, n, nil
}

func (entityExtractionMUS) Size(e EntityExtraction) int {
	return sizeStrings(e.Candidates) + sizeStrings(e.Parties) +
		sizeStrings(e.Organizations) + sizeStrings(e.Locations) + sizeStrings(e.Dates)
}

type textExtractionMUS struct{}

func (textExtractionMUS) Marshal(t TextExtraction, bs []byte) (n int) {
	n = ord.String.Marshal(t.FullText, bs)
	n += marshalStrings(t.Quotes, bs[n:])
	return n
}

func (textExtractionMUS) Unmarshal(bs []byte) (t TextExtraction, n int, err error) {
	var n1 int
	if t.FullText, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if t.Quotes, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	return t, n, nil
}

func (textExtractionMUS) Size(t TextExtraction) int {
	return ord.String.Size(t.FullText) + sizeStrings(t.Quotes)
}

type designElementsMUS struct{}

func (designElementsMUS) Marshal(d DesignElements, bs []byte) (n int) {
	n = marshalStrings(d.Colors, bs)
	n += marshalStrings(d.Imagery, bs[n:])
	n += ord.String.Marshal(d.Layout, bs[n:])
	n += ord.String.Marshal(d.Typography, bs[n:])
	return n
}

func (designElementsMUS) Unmarshal(bs []byte) (d DesignElements, n int, err error) {
	var n1 int
	if d.Colors, n, err = unmarshalStrings(bs); err != nil {
		return
	}
	if d.Imagery, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Layout, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Typography, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return d, n, nil
}

func (designElementsMUS) Size(d DesignElements) int {
	return sizeStrings(d.Colors) + sizeStrings(d.Imagery) +
		ord.String.Size(d.Layout) + ord.String.Size(d.Typography)
}

type keywordMappingMUS struct{}

func (keywordMappingMUS) Marshal(m KeywordMapping, bs []byte) (n int) {
	n = ord.String.Marshal(m.Verbatim, bs)
	n += ord.String.Marshal(m.Canonical, bs[n:])
	n += ord.String.Marshal(m.Category, bs[n:])
	n += varint.Float64.Marshal(m.Relevance, bs[n:])
	return n
}

func (keywordMappingMUS) Unmarshal(bs []byte) (m KeywordMapping, n int, err error) {
	var n1 int
	if m.Verbatim, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if m.Canonical, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Relevance, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	return m, n, nil
}

func (keywordMappingMUS) Size(m KeywordMapping) int {
	return ord.String.Size(m.Verbatim) + ord.String.Size(m.Canonical) +
		ord.String.Size(m.Category) + varint.Float64.Size(m.Relevance)
}

type keywordAnalysisMUS struct{}

func (keywordAnalysisMUS) Marshal(k KeywordAnalysis, bs []byte) (n int) {
	n = varint.Int.Marshal(len(k.Mappings), bs)
	for _, m := range k.Mappings {
		n += keywordMappingMUS{}.Marshal(m, bs[n:])
	}
	return n
}

func (keywordAnalysisMUS) Unmarshal(bs []byte) (k KeywordAnalysis, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return k, n, err
	}
	k.Mappings = make([]KeywordMapping, length)
	for i := 0; i < length; i++ {
		var n1 int
		k.Mappings[i], n1, err = keywordMappingMUS{}.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return k, n, err
		}
	}
	return k, n, nil
}

func (keywordAnalysisMUS) Size(k KeywordAnalysis) (size int) {
	size = varint.Int.Size(len(k.Mappings))
	for _, m := range k.Mappings {
		size += keywordMappingMUS{}.Size(m)
	}
	return size
}

type communicationFocusMUS struct{}

func (communicationFocusMUS) Marshal(c CommunicationFocus, bs []byte) (n int) {
	n = ord.String.Marshal(c.PrimaryIssue, bs)
	n += marshalStrings(c.SecondaryIssues, bs[n:])
	n += ord.String.Marshal(c.MessagingStrategy, bs[n:])
	return n
}

func (communicationFocusMUS) Unmarshal(bs []byte) (c CommunicationFocus, n int, err error) {
	var n1 int
	if c.PrimaryIssue, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if c.SecondaryIssues, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.MessagingStrategy, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (communicationFocusMUS) Size(c CommunicationFocus) int {
	return ord.String.Size(c.PrimaryIssue) + sizeStrings(c.SecondaryIssues) +
		ord.String.Size(c.MessagingStrategy)
}

func unmarshalStringFields(fields []*string, bs []byte) (n int, err error) {
	for _, f := range fields {
		var n1 int
		*f, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
