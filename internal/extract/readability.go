package extract

import (
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/sitegraph/internal/model"
)

// Readable extracts the title and main text of an HTML document. Any
// extraction failure yields empty content.
func Readable(markup, pageURL string) (model.Content, error) {
	opts := trafilatura.Options{EnableFallback: true}
	if u, err := url.Parse(pageURL); err == nil {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(markup), opts)
	if err != nil {
		return model.Content{}, err
	}
	if result == nil {
		return model.Content{}, nil
	}
	return model.Content{
		Title: norm.NFC.String(strings.TrimSpace(result.Metadata.Title)),
		Body:  norm.NFC.String(strings.TrimSpace(result.ContentText)),
	}, nil
}
