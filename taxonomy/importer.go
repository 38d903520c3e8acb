package taxonomy

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
)

// ImportStats summarizes one bulk import run.
type ImportStats struct {
	TermsAdded    int
	TermsSkipped  int // exact duplicates
	Conflicts     int // same term, different category; existing record kept
	SynonymsAdded int
	RowsRejected  int
}

// Importer bulk-loads taxonomy terms from a tabular source.
//
// Expected CSV columns: primary_category, subcategory, term, and an optional
// fourth column of semicolon-separated synonyms. A header row containing
// "primary_category" is skipped. Importing the same file twice is a no-op.
type Importer struct {
	terms  storage.TaxonomyRepository
	logger *slog.Logger
}

// NewImporter creates a new taxonomy importer.
func NewImporter(terms storage.TaxonomyRepository, logger *slog.Logger) (*Importer, error) {
	if terms == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		terms:  terms,
		logger: logger,
	}, nil
}

// ImportCSV reads (primary_category, subcategory, term[, synonyms]) rows and
// loads them into the taxonomy store. Exact duplicates are skipped; rows
// whose term exists under a different category keep the existing record and
// are counted as conflicts.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // synonyms column is optional
	reader.TrimLeadingSpace = true

	stats := &ImportStats{}
	row := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("%w: row %d: %w", ErrImportFailed, row, err)
		}
		row++

		if row == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "primary_category") {
			continue
		}

		if len(record) < 3 {
			im.logger.Warn("rejecting malformed taxonomy row", "row", row, "fields", len(record))
			stats.RowsRejected++
			continue
		}

		primary := strings.TrimSpace(record[0])
		sub := strings.TrimSpace(record[1])
		name := strings.TrimSpace(record[2])
		if primary == "" || name == "" {
			im.logger.Warn("rejecting taxonomy row with empty fields", "row", row)
			stats.RowsRejected++
			continue
		}

		if err := im.importTerm(ctx, primary, sub, name, stats); err != nil {
			return stats, err
		}

		if len(record) > 3 {
			if err := im.importSynonyms(ctx, name, record[3], stats); err != nil {
				return stats, err
			}
		}
	}

	im.logger.Info("taxonomy import finished",
		"added", stats.TermsAdded,
		"skipped", stats.TermsSkipped,
		"conflicts", stats.Conflicts,
		"synonyms", stats.SynonymsAdded,
		"rejected", stats.RowsRejected)

	return stats, nil
}

func (im *Importer) importTerm(ctx context.Context, primary, sub, name string, stats *ImportStats) error {
	existing, err := im.terms.FindTermByName(ctx, name)
	if err == nil {
		if existing.PrimaryCategory == primary && existing.Subcategory == sub {
			stats.TermsSkipped++
		} else {
			// Existing record wins; the import never rewrites categories
			im.logger.Warn("taxonomy term conflict, keeping existing record",
				"term", name,
				"existingCategory", existing.PrimaryCategory,
				"importCategory", primary)
			stats.Conflicts++
		}
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if _, err := im.terms.AddTerms(ctx, &core.TaxonomyTerm{
		Term:            name,
		PrimaryCategory: primary,
		Subcategory:     sub,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			stats.TermsSkipped++
			return nil
		}
		return err
	}
	stats.TermsAdded++
	return nil
}

func (im *Importer) importSynonyms(ctx context.Context, termName, field string, stats *ImportStats) error {
	term, err := im.terms.FindTermByName(ctx, termName)
	if err != nil {
		return err
	}

	for _, raw := range strings.Split(field, ";") {
		synonym := strings.TrimSpace(raw)
		if synonym == "" {
			continue
		}
		if err := im.terms.AddSynonyms(ctx, &core.TaxonomySynonym{
			Synonym: synonym,
			TermId:  term.Id,
		}); err != nil {
			return err
		}
		stats.SynonymsAdded++
	}
	return nil
}
