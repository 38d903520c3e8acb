package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hustings/canvass"
	"github.com/hustings/canvass/ai/mock"
	"github.com/hustings/canvass/core"
)

// sampleDocuments are small synthetic campaign materials for exercising the
// pipeline and search locally.
var sampleDocuments = []struct {
	filename string
	text     string
}{
	{
		"rivera-mailer-2024.txt",
		"Maria Rivera for City Council. Safer streets, stronger schools. " +
			"Maria has spent 15 years fighting for working families in the 4th district. " +
			"Vote November 5th. Paid for by Rivera for Council.",
	},
	{
		"okafor-flyer-economy.txt",
		"Jobs first. David Okafor's plan brings manufacturing back to our county: " +
			"tax credits for small business, apprenticeships for young workers, and an end " +
			"to wasteful spending downtown. Okafor for County Executive.",
	},
	{
		"prop-12-doorhanger.txt",
		"Yes on Proposition 12. Our schools are overcrowded and underfunded. " +
			"Prop 12 funds three new elementary schools without raising property taxes. " +
			"Endorsed by the Teachers Association and the Chamber of Commerce.",
	},
	{
		"chen-attack-mailer.txt",
		"Sarah Chen voted to cut police funding three times. Crime is up 20 percent. " +
			"We can't afford Sarah Chen. On election day, vote for change.",
	},
	{
		"gotv-postcard.txt",
		"Your vote is your voice. Polls are open Tuesday, November 5th, from 7am to 8pm. " +
			"Find your polling place at vote.example.gov. Every election is decided by " +
			"those who show up.",
	},
	{
		"healthcare-town-hall-poster.txt",
		"Town hall on healthcare costs. Join State Senator James Park to discuss " +
			"prescription drug prices and rural hospital closures. Thursday 7pm, " +
			"Community Center, 400 Main Street.",
	},
}

// sampleTerms is a starter vocabulary so early keyword extraction resolves
// against something.
var sampleTerms = []struct {
	term     string
	primary  string
	sub      string
	synonyms []string
}{
	{"public safety", "Crime", "policing", []string{"crime prevention", "safer streets"}},
	{"education funding", "Education", "schools", []string{"school funding"}},
	{"job creation", "Economy", "employment", []string{"jobs", "bringing jobs back"}},
	{"small business", "Economy", "employment", nil},
	{"healthcare costs", "Healthcare", "affordability", []string{"prescription drug prices"}},
	{"voter turnout", "Elections", "participation", []string{"get out the vote"}},
	{"property taxes", "Economy", "taxation", nil},
}

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	dbPath := flag.String("db", "./canvass_db", "path to BadgerDB database directory")
	flag.Parse()

	// The seeder only writes documents and terms, so a mock provider keeps
	// it runnable without a model server.
	archive, err := canvass.NewArchive(*dbPath, canvass.WithProvider(mock.NewMockProvider()))
	if err != nil {
		panic(err)
	}
	defer archive.Close()

	ctx := context.Background()

	for _, st := range sampleTerms {
		term, err := archive.TaxonomyRepository().GetOrCreateTerm(ctx, st.term, st.primary, st.sub)
		if err != nil {
			panic(err)
		}
		for _, syn := range st.synonyms {
			s := &core.TaxonomySynonym{Synonym: syn, TermId: term.Id}
			if err := archive.TaxonomyRepository().AddSynonyms(ctx, s); err != nil {
				panic(err)
			}
		}
	}
	fmt.Printf("seeded %d taxonomy terms\n", len(sampleTerms))

	seeded := 0
	for _, sd := range sampleDocuments {
		doc := &core.Document{
			Filename: sd.filename,
			Text:     sd.text,
			Status:   core.StatusPending,
		}
		if _, err := archive.Ingest(ctx, doc); err != nil {
			slog.Warn("skipping document", "filename", sd.filename, "err", err)
			continue
		}
		seeded++
	}
	fmt.Printf("seeded %d documents, pending analysis\n", seeded)
}
