package core

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAnalysisRecordStageTracking(t *testing.T) {
	var rec AnalysisRecord

	if rec.StageDone(StageCoreMetadata) {
		t.Fatal("Expected no stages done on empty record")
	}
	if len(rec.CompletedStages()) != 0 {
		t.Fatal("Expected empty completed list")
	}

	rec.CoreMetadata = &CoreMetadata{Summary: "a mailer", DocumentType: "mailer"}
	rec.Classification = &Classification{Category: "candidate promotion", Tone: "positive"}

	if !rec.StageDone(StageCoreMetadata) || !rec.StageDone(StageClassification) {
		t.Fatal("Expected first two stages done")
	}
	if rec.StageDone(StageEntityExtraction) {
		t.Fatal("Expected entity extraction not done")
	}

	done := rec.CompletedStages()
	if len(done) != 2 || done[0] != StageCoreMetadata || done[1] != StageClassification {
		t.Fatalf("Expected pipeline-ordered completed list, got %v", done)
	}
}

func TestAnalysisRecordDigest(t *testing.T) {
	var rec AnalysisRecord

	sc := rec.Digest()
	if sc.DocumentType != "" || sc.Tone != "" {
		t.Fatal("Expected empty digest for empty record")
	}

	rec.CoreMetadata = &CoreMetadata{DocumentType: "flyer", ElectionYear: "2024"}
	rec.Classification = &Classification{Tone: "contrast"}

	sc = rec.Digest()
	if sc.DocumentType != "flyer" || sc.ElectionYear != "2024" || sc.Tone != "contrast" {
		t.Fatalf("Unexpected digest %+v", sc)
	}
}

func TestBuildSearchText(t *testing.T) {
	doc := &Document{
		Filename: "rivera-mailer.pdf",
		Text:     "original extracted text",
		Keywords: []string{"public safety", "education funding"},
	}
	doc.Analysis.CoreMetadata = &CoreMetadata{
		Title:   "Rivera for Council",
		Summary: "A mailer promoting Maria Rivera.",
	}
	doc.Analysis.Entities = &EntityExtraction{
		Candidates: []string{"Maria Rivera"},
		Locations:  []string{"4th district"},
	}
	doc.Analysis.Text = &TextExtraction{FullText: "cleaned transcription"}

	got := BuildSearchText(doc)

	for _, want := range []string{
		"Rivera for Council",
		"Maria Rivera",
		"4th district",
		"public safety",
		"cleaned transcription",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected search text to contain %q", want)
		}
	}

	// The stage transcription replaces the raw text
	if strings.Contains(got, "original extracted text") {
		t.Error("Expected raw text to be superseded by the stage transcription")
	}
}

func TestBuildSearchTextTruncatesLongText(t *testing.T) {
	doc := &Document{Text: strings.Repeat("x", searchTextLimit*2)}
	got := BuildSearchText(doc)
	if len(got) > searchTextLimit {
		t.Fatalf("Expected text capped at %d, got %d", searchTextLimit, len(got))
	}
}

func TestBuildSearchTextTruncatesOnRuneBoundary(t *testing.T) {
	// Every rune is 3 bytes, so the byte limit falls inside a rune
	doc := &Document{Text: strings.Repeat("候", searchTextLimit)}
	got := BuildSearchText(doc)
	if len(got) > searchTextLimit {
		t.Fatalf("Expected text capped at %d, got %d", searchTextLimit, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("Expected truncated search text to be valid UTF-8")
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 100); got != "short" {
		t.Fatalf("Expected text under the limit unchanged, got %q", got)
	}
	if got := TruncateText("abcdef", 3); got != "abc" {
		t.Fatalf("Expected %q, got %q", "abc", got)
	}

	// "é" is 2 bytes; a limit of 3 lands mid-rune and must back up
	if got := TruncateText("aéé", 3); got != "aé" {
		t.Fatalf("Expected %q, got %q", "aé", got)
	}
	if got := TruncateText("候補者", 4); got != "候" {
		t.Fatalf("Expected %q, got %q", "候", got)
	}
	if got := TruncateText("候補者", 0); got != "" {
		t.Fatalf("Expected empty string at limit 0, got %q", got)
	}
}
