package persist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
)

func TestGraphStore(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty checkpoint", func(t *testing.T) {
		t.Parallel()

		s := NewGraphStore(filepath.Join(t.TempDir(), "none.json"))
		cp, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cp.Depth != 1 || len(cp.Links) != 0 {
			t.Errorf("unexpected checkpoint: %+v", cp)
		}
	})

	t.Run("save then load", func(t *testing.T) {
		t.Parallel()

		s := NewGraphStore(filepath.Join(t.TempDir(), "nested", "graph.json"))
		want := linkgraph.Checkpoint{
			Depth: 3,
			Links: linkgraph.Graph{"http://a.com/": {"http://a.com/x"}},
		}
		if err := s.Save(want); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
		got, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Load() = %+v, want %+v", got, want)
		}

		data, err := os.ReadFile(s.Path())
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"depth":3,"links":{"http://a.com/":["http://a.com/x"]}}` {
			t.Errorf("unexpected file content: %s", data)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		cp, err := NewGraphStore(path).Load()
		if !errors.Is(err, ErrCorruptCheckpoint) {
			t.Errorf("expected ErrCorruptCheckpoint, got %v", err)
		}
		if cp.Links == nil || cp.Depth != 1 {
			t.Errorf("expected usable empty checkpoint, got %+v", cp)
		}
	})

	t.Run("concurrent saves leave a valid file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s := NewGraphStore(filepath.Join(dir, "graph.json"))

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				g := linkgraph.Graph{fmt.Sprintf("http://a.com/%d", i): {"http://a.com/"}}
				if err := s.Save(linkgraph.Checkpoint{Depth: i + 1, Links: g}); err != nil {
					t.Errorf("Save() error: %v", err)
				}
			}()
		}
		wg.Wait()

		cp, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if len(cp.Links) != 1 {
			t.Errorf("expected exactly one page, got %d", len(cp.Links))
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("temporary files left behind: %v", entries)
		}
	})
}

func TestSiteKeyAndPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		site   string
		prefix string
	}{
		{"https://a.com/", "https_a.com-"},
		{"https://a.com/docs/guide/", "https_a.com_docs_guide-"},
		{"http://a.com:8080/x", "http_a.com_8080_x-"},
		{"http://a.com/s?q=1", "http_a.com_s_q=1-"},
	}
	for _, tt := range tests {
		got := SiteKey(tt.site)
		if !strings.HasPrefix(got, tt.prefix) || len(got) != len(tt.prefix)+12 {
			t.Errorf("SiteKey(%q) = %q, want %q followed by 12 hex digits", tt.site, got, tt.prefix)
		}
		if got != SiteKey(tt.site) {
			t.Errorf("SiteKey(%q) is not stable", tt.site)
		}
	}

	raw, cleaned := SubURLPaths("out", "https://a.com/")
	if raw != filepath.Join("out", "sub_urls", "https_a.com-01515fff2549_raw.json") {
		t.Errorf("raw path = %q", raw)
	}
	if cleaned != filepath.Join("out", "sub_urls", "https_a.com-01515fff2549.json") {
		t.Errorf("cleaned path = %q", cleaned)
	}

	rawA, _ := SubURLPaths("out", "https://a.com/")
	rawB, _ := SubURLPaths("out", "https://b.com/")
	if rawA == rawB {
		t.Error("different sites must not share checkpoint files")
	}

	if got := RawPath("out/graph.json"); got != "out/graph_raw.json" {
		t.Errorf("RawPath() = %q", got)
	}
	if got := RawPath("out/graph"); got != "out/graph_raw.json" {
		t.Errorf("RawPath() = %q", got)
	}
}

func TestContents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	at := time.Unix(1700000000, 500000000)
	first := []model.Record{
		model.NewRecord("http://a.com/", model.Content{Title: "首页", Body: "<p>a & b</p>"}, at),
	}
	second := []model.Record{
		model.NewRecord("http://a.com/x", model.Content{Body: "x"}, at),
	}

	p1 := filepath.Join(dir, "one.json")
	p2 := filepath.Join(dir, "two.json")
	if err := WriteContents(p1, first); err != nil {
		t.Fatalf("WriteContents() error: %v", err)
	}
	if err := WriteContents(p2, second); err != nil {
		t.Fatalf("WriteContents() error: %v", err)
	}

	data, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"首页"`, `<p>a & b</p>`, `"scraped_at":1700000000.5`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("content file missing %s: %s", want, data)
		}
	}

	merged, err := MergeContents(p1, p2)
	if err != nil {
		t.Fatalf("MergeContents() error: %v", err)
	}
	if len(merged) != 2 || merged[0].URL != "http://a.com/" || merged[1].URL != "http://a.com/x" {
		t.Errorf("unexpected merge result: %+v", merged)
	}

	if _, err := MergeContents(p1, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadURLList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "checkpoint",
			content: `{"depth":2,"links":{"http://a.com/":["http://a.com/y","http://a.com/x"]}}`,
			want:    []string{"http://a.com/", "http://a.com/x", "http://a.com/y"},
		},
		{
			name:    "link list",
			content: `{"links":["http://b.com/","http://a.com/"]}`,
			want:    []string{"http://b.com/", "http://a.com/"},
		},
		{
			name:    "content array",
			content: `[{"url":"http://a.com/","content":{"title":"","body":""},"scraped_at":1}]`,
			want:    []string{"http://a.com/"},
		},
		{
			name:    "plain text",
			content: "# seeds\nhttp://a.com/\n\n  http://b.com/  \n",
			want:    []string{"http://a.com/", "http://b.com/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "list")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			got, err := ReadURLList(path)
			if err != nil {
				t.Fatalf("ReadURLList() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadURLList() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("unknown object", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "list.json")
		if err := os.WriteFile(path, []byte(`{"other":1}`), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadURLList(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})

	t.Run("oversized line is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "list.txt")
		long := "http://a.com/?q=" + strings.Repeat("x", maxLineLength)
		if err := os.WriteFile(path, []byte("http://b.com/\n"+long+"\nhttp://c.com/\n"), 0600); err != nil {
			t.Fatal(err)
		}
		got, err := ReadURLList(path)
		if !errors.Is(err, bufio.ErrTooLong) {
			t.Errorf("expected bufio.ErrTooLong, got %v (urls %d)", err, len(got))
		}
	})

	t.Run("long line within the limit", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "list.txt")
		long := "http://a.com/?q=" + strings.Repeat("x", 200*1024)
		if err := os.WriteFile(path, []byte(long+"\nhttp://c.com/\n"), 0600); err != nil {
			t.Fatal(err)
		}
		got, err := ReadURLList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{long, "http://c.com/"}) {
			t.Errorf("ReadURLList() returned %d urls", len(got))
		}
	})

	t.Run("link list round trip", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "links.json")
		if err := WriteLinkList(path, []string{"http://a.com/"}); err != nil {
			t.Fatal(err)
		}
		got, err := ReadURLList(path)
		if err != nil || !reflect.DeepEqual(got, []string{"http://a.com/"}) {
			t.Errorf("round trip = %v, %v", got, err)
		}
	})
}

func TestSiteKeyDistinctAndBounded(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"https://a.com/x_y", "https://a.com/x/y"},
		{"https://a.com/a b", "https://a.com/a_b"},
		{"https://a.com/p?q=1", "https://a.com/p_q=1"},
		{"https://a.com/" + strings.Repeat("x", 300) + "?a=1", "https://a.com/" + strings.Repeat("x", 300) + "?a=2"},
	}
	for _, p := range pairs {
		if SiteKey(p[0]) == SiteKey(p[1]) {
			t.Errorf("SiteKey(%q) == SiteKey(%q) = %q", p[0], p[1], SiteKey(p[0]))
		}
	}

	long := "https://a.com/search?q=" + strings.Repeat("é", 400)
	raw, cleaned := SubURLPaths(t.TempDir(), long)
	for _, p := range []string{raw, cleaned} {
		name := filepath.Base(p)
		if len(name) > 255 {
			t.Errorf("file name is %d bytes long", len(name))
		}
		if !utf8.ValidString(name) {
			t.Errorf("file name %q is not valid UTF-8", name)
		}
	}
	if err := os.MkdirAll(filepath.Dir(raw), 0o750); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(raw, []byte("{}"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
