package core

import "testing"

func TestIDFromContentDeterministic(t *testing.T) {
	a := IDFromContent("test content")
	b := IDFromContent("test content")
	if a != b {
		t.Fatalf("Expected identical IDs for identical content, got %d and %d", a, b)
	}

	c := IDFromContent("different content")
	if a == c {
		t.Fatal("Expected different IDs for different content")
	}

	if a == 0 {
		t.Fatal("Expected non-zero ID")
	}
}

func TestDocumentIDFromFilename(t *testing.T) {
	a := DocumentIDFromFilename("mailer-2024.pdf")
	b := DocumentIDFromFilename("mailer-2024.pdf")
	if a != b {
		t.Fatal("Expected identical IDs for identical filenames")
	}

	// Filenames are case-sensitive identifiers
	c := DocumentIDFromFilename("Mailer-2024.pdf")
	if a == c {
		t.Fatal("Expected different IDs for different filenames")
	}
}

func TestTermIDCaseInsensitive(t *testing.T) {
	a := TermIDFromName("Public Safety")
	b := TermIDFromName("public safety")
	if a != b {
		t.Fatal("Expected identical IDs regardless of term case")
	}

	s1 := SynonymIDFromName("Safer Streets")
	s2 := SynonymIDFromName("safer streets")
	if s1 != s2 {
		t.Fatal("Expected identical IDs regardless of synonym case")
	}

	// Term and synonym namespaces must not collide
	if TermIDFromName("safety") == SynonymIDFromName("safety") {
		t.Fatal("Expected term and synonym IDs to differ for the same text")
	}
}

func TestDocumentStatusString(t *testing.T) {
	cases := map[DocumentStatus]string{
		StatusPending:     "pending",
		StatusProcessing:  "processing",
		StatusCompleted:   "completed",
		StatusFailed:      "failed",
		DocumentStatus(0): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status %d: expected %q, got %q", status, want, got)
		}
	}
}
