package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustings/canvass/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		Id:         core.DocumentIDFromFilename("rivera-mailer.pdf"),
		Filename:   "rivera-mailer.pdf",
		StorageRef: "/archive/rivera-mailer.pdf",
		Status:     core.StatusCompleted,
		Progress:   100,
		Text:       "Maria Rivera for City Council.",
		Keywords:   []string{"public safety", "education funding"},
		Categories: []string{"Crime", "Education"},
		Vector:     []float32{0.25, -0.5, 0.125},
		SearchText: "Rivera for Council\nMaria Rivera",
		CreatedAt:  now.Add(-time.Hour),
		UpdatedAt:  now,
		ProcessedAt: now,
	}
	doc.Analysis.CoreMetadata = &core.CoreMetadata{
		Title:        "Rivera for Council",
		Summary:      "A mailer promoting Maria Rivera.",
		DocumentType: "mailer",
		ElectionYear: "2024",
		Language:     "en",
	}
	doc.Analysis.Classification = &core.Classification{
		Category: "candidate promotion",
		Tone:     "positive",
	}
	doc.Analysis.TaxonomyKeywords = &core.KeywordAnalysis{
		Mappings: []core.KeywordMapping{
			{Verbatim: "safer streets", Canonical: "public safety", Category: "Crime", Relevance: 0.9},
		},
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalDocumentMinimal(t *testing.T) {
	// A freshly ingested document: no analysis, no vector, zero times
	doc := &core.Document{
		Id:       core.DocumentIDFromFilename("new.pdf"),
		Filename: "new.pdf",
		Status:   core.StatusPending,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
	assert.Nil(t, decoded.Analysis.CoreMetadata)
	assert.True(t, decoded.CreatedAt.IsZero())
}

func TestMarshalUnmarshalTerm(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	term := &core.TaxonomyTerm{
		Id:              core.TermIDFromName("public safety"),
		Term:            "public safety",
		PrimaryCategory: "Crime",
		Subcategory:     "policing",
		ParentId:        core.TermIDFromName("safety"),
		InsertedAt:      now,
		UpdatedAt:       now,
	}

	decoded, err := UnmarshalTerm(MarshalTerm(term))
	require.NoError(t, err)
	assert.Equal(t, term, decoded)
}

func TestMarshalUnmarshalSynonym(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	syn := &core.TaxonomySynonym{
		Id:         core.SynonymIDFromName("safer streets"),
		Synonym:    "safer streets",
		TermId:     core.TermIDFromName("public safety"),
		InsertedAt: now,
	}

	decoded, err := UnmarshalSynonym(MarshalSynonym(syn))
	require.NoError(t, err)
	assert.Equal(t, syn, decoded)
}

func TestUnmarshalDocument_Corrupt(t *testing.T) {
	_, err := UnmarshalDocument([]byte{0xff, 0x01})
	assert.Error(t, err)
}
