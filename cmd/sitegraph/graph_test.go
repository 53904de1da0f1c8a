package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/persist"
)

const testRoot = "https://example.com/"

// writeRawGraph writes a small cyclic graph and returns its path.
func writeRawGraph(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "raw.json")
	graph := linkgraph.Graph{
		testRoot:                  {"https://example.com/a", "https://example.com/b"},
		"https://example.com/a":   {testRoot, "https://example.com/a/1"},
		"https://example.com/b":   {"https://example.com/a", "https://other.test/x"},
		"https://example.com/a/1": {},
	}
	if err := persist.NewGraphStore(path).Save(linkgraph.Checkpoint{Depth: 3, Links: graph}); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGraphCommands(t *testing.T) {
	t.Parallel()

	t.Run("clean writes a forest", func(t *testing.T) {
		t.Parallel()

		raw := writeRawGraph(t)
		output := filepath.Join(t.TempDir(), "clean.json")
		out, err := execute(t, "graph", "clean", raw, "https://EXAMPLE.com", "-o", output)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, output) {
			t.Errorf("expected summary for %s, got %q", output, out)
		}

		cp, err := persist.NewGraphStore(output).Load()
		if err != nil {
			t.Fatal(err)
		}
		seen := map[string]int{}
		for _, links := range cp.Links {
			for _, l := range links {
				seen[l]++
			}
		}
		for u, n := range seen {
			if n > 1 {
				t.Errorf("%s appears %d times in the cleaned graph", u, n)
			}
		}
		if seen[testRoot] != 0 {
			t.Error("testRoot must not appear as a link")
		}
	})

	t.Run("depth prints a number", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "graph", "depth", writeRawGraph(t), testRoot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) == "" || strings.TrimSpace(out) == "0" {
			t.Errorf("unexpected depth output %q", out)
		}
	})

	t.Run("tree prints each page once", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "graph", "tree", writeRawGraph(t), testRoot)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if lines[0] != testRoot {
			t.Errorf("first line = %q, want testRoot", lines[0])
		}
		if strings.Count(out, "https://example.com/a\n") != 1 {
			t.Errorf("expected /a once, got %q", out)
		}
	})

	t.Run("search lists matching URLs", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "graph", "search", writeRawGraph(t), "other")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) != "https://other.test/x" {
			t.Errorf("search output = %q", out)
		}
	})

	t.Run("filter writes a link list", func(t *testing.T) {
		t.Parallel()

		output := filepath.Join(t.TempDir(), "links.json")
		if _, err := execute(t, "graph", "filter", writeRawGraph(t), "-p", "https://example.com/a", "-o", output); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		urls, err := persist.ReadURLList(output)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"https://example.com/a", "https://example.com/a/1"}
		if strings.Join(urls, ",") != strings.Join(want, ",") {
			t.Errorf("urls = %v, want %v", urls, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := execute(t, "graph", "depth", filepath.Join(t.TempDir(), "missing.json"), testRoot); err != nil {
			t.Errorf("a missing graph loads as empty, got %v", err)
		}
	})
}

func TestMergeCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	if err := persist.WriteContents(first, []model.Record{{URL: "https://a.test/"}}); err != nil {
		t.Fatal(err)
	}
	if err := persist.WriteContents(second, []model.Record{{URL: "https://b.test/"}, {URL: "https://a.test/"}}); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "all.json")
	out, err := execute(t, "merge", "-o", output, first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "3 records from 2 file(s)") {
		t.Errorf("unexpected output %q", out)
	}

	records, err := persist.ReadContents(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0].URL != "https://a.test/" || records[1].URL != "https://b.test/" {
		t.Errorf("records = %+v", records)
	}
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("export needs a site", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "history", "--db-dir", t.TempDir(), "--export", "graph.json")
		if err == nil || !strings.Contains(err.Error(), "needs a site") {
			t.Errorf("expected needs a site error, got %v", err)
		}
	})

	t.Run("lists and exports stored runs", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedHistory(t, dbDir)

		out, err := execute(t, "history", testRoot, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, testRoot) {
			t.Errorf("expected the site in the history, got %q", out)
		}

		output := filepath.Join(t.TempDir(), "graph.json")
		if _, err := execute(t, "history", testRoot, "--db-dir", dbDir, "--export", output); err != nil {
			t.Fatalf("unexpected export error: %v", err)
		}
		cp, err := persist.NewGraphStore(output).Load()
		if err != nil {
			t.Fatal(err)
		}
		if len(cp.Links[testRoot]) == 0 {
			t.Errorf("expected testRoot links in export, got %v", cp.Links)
		}

		out, err = execute(t, "history", "--db-dir", dbDir, "--content", "https://example.com/a")
		if err != nil {
			t.Fatalf("unexpected content error: %v", err)
		}
		if !strings.Contains(out, "About us") {
			t.Errorf("expected stored body, got %q", out)
		}

		if _, err := execute(t, "history", "--db-dir", dbDir, "--content", "https://example.com/missing"); err == nil {
			t.Error("expected an error for a URL without content")
		}
	})
}

func seedHistory(t *testing.T, dir string) {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	run := model.NewRun(model.RunLinks, testRoot)
	if err := db.StartRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	graph := linkgraph.Graph{testRoot: {"https://example.com/a"}}
	if _, err := db.SaveEdges(ctx, testRoot, graph); err != nil {
		t.Fatal(err)
	}
	record := model.Record{URL: "https://example.com/a", Content: model.Content{Title: "About", Body: "About us"}}
	if err := db.SaveContents(ctx, run.ID, []model.Record{record}); err != nil {
		t.Fatal(err)
	}
	run.Finish()
	if err := db.FinishRun(ctx, run); err != nil {
		t.Fatal(err)
	}
}
