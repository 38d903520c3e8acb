package storage

import (
	"github.com/hustings/canvass/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalTerm serializes a TaxonomyTerm to bytes.
func MarshalTerm(term *core.TaxonomyTerm) []byte {
	buf := make([]byte, core.TaxonomyTermMUS.Size(*term))
	core.TaxonomyTermMUS.Marshal(*term, buf)
	return buf
}

// UnmarshalTerm deserializes a TaxonomyTerm from bytes.
func UnmarshalTerm(data []byte) (*core.TaxonomyTerm, error) {
	term, _, err := core.TaxonomyTermMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &term, nil
}

// MarshalSynonym serializes a TaxonomySynonym to bytes.
func MarshalSynonym(syn *core.TaxonomySynonym) []byte {
	buf := make([]byte, core.TaxonomySynonymMUS.Size(*syn))
	core.TaxonomySynonymMUS.Marshal(*syn, buf)
	return buf
}

// UnmarshalSynonym deserializes a TaxonomySynonym from bytes.
func UnmarshalSynonym(data []byte) (*core.TaxonomySynonym, error) {
	syn, _, err := core.TaxonomySynonymMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &syn, nil
}
