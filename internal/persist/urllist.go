package persist

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/model"
)

// LinkList is the file format written by link filtering.
type LinkList struct {
	Links []string `json:"links"`
}

// WriteLinkList writes links as {"links": [...]}.
func WriteLinkList(path string, links []string) error {
	if links == nil {
		links = []string{}
	}
	data, err := json.Marshal(LinkList{Links: links})
	if err != nil {
		return fmt.Errorf("failed to encode link list: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ReadURLList reads URLs from path. It accepts a link-graph checkpoint
// (every page and target), a link list, a content array (record URLs) or
// plain text with one URL per line, where blank lines and lines starting
// with "#" are ignored.
func ReadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []string{}, nil
	}

	switch trimmed[0] {
	case '{':
		return decodeURLObject(path, trimmed)
	case '[':
		var records []model.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownFormat, path, err)
		}
		urls := make([]string, 0, len(records))
		for _, r := range records {
			urls = append(urls, r.URL)
		}
		return urls, nil
	default:
		urls, err := readLines(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to read URL list %s: %w", path, err)
		}
		return urls, nil
	}
}

func decodeURLObject(path string, data []byte) ([]string, error) {
	var obj struct {
		Links json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &obj); err != nil || len(obj.Links) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	var list []string
	if err := json.Unmarshal(obj.Links, &list); err == nil {
		return list, nil
	}
	var g linkgraph.Graph
	if err := json.Unmarshal(obj.Links, &g); err == nil {
		return g.URLs(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// maxLineLength is the longest line a plain-text URL list may hold.
const maxLineLength = 1024 * 1024

func readLines(data []byte) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}
