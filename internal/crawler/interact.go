package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sitegraph/internal/browser"
	"github.com/nao1215/sitegraph/internal/urlnorm"
)

// Defaults for Interactor.
const (
	DefaultInteractionConcurrency = 5
	DefaultTargetWait             = 2 * time.Second
)

// Interactor finds where a click on a page element leads.
type Interactor struct {
	settings
	browser browser.Factory
	slots   *semaphore.Weighted
}

// NewInteractor returns an Interactor. It honors WithInteractionConcurrency,
// WithWait, WithTargetWait and WithLogger.
func NewInteractor(b browser.Factory, opts ...Option) *Interactor {
	s := newSettings(settings{
		interactionConcurrency: DefaultInteractionConcurrency,
		wait:                   DefaultWait,
		targetWait:             DefaultTargetWait,
	}, opts)
	return &Interactor{
		settings: s,
		browser:  b,
		slots:    semaphore.NewWeighted(int64(s.interactionConcurrency)),
	}
}

// Resolve loads pageURL in a fresh session, clicks the referenced element
// and returns the normalized URL the session ends up on. It returns false
// when any step fails or when the click does not leave pageURL.
func (i *Interactor) Resolve(ctx context.Context, ref browser.ElementRef, pageURL string) (string, bool) {
	target, err := i.click(ctx, ref, pageURL)
	if err != nil {
		i.logger.Debug("interaction failed", "url", pageURL, "element", ref.String(), "error", err)
		return "", false
	}
	normalized, err := urlnorm.Normalize(target)
	if err != nil {
		i.logger.Debug("interaction led to invalid url", "url", pageURL, "element", ref.String(), "target", target)
		return "", false
	}
	if urlnorm.Equal(normalized, pageURL) {
		return "", false
	}
	return normalized, true
}

// ResolveAll resolves refs concurrently and returns the successful targets
// in the order of refs.
func (i *Interactor) ResolveAll(ctx context.Context, refs []browser.ElementRef, pageURL string) []string {
	results := make([]string, len(refs))
	var wg sync.WaitGroup
	for idx, ref := range refs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if target, ok := i.Resolve(ctx, ref, pageURL); ok {
				results[idx] = target
			}
		}()
	}
	wg.Wait()

	out := make([]string, 0, len(results))
	for _, r := range results {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (i *Interactor) click(ctx context.Context, ref browser.ElementRef, pageURL string) (string, error) {
	if err := i.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer i.slots.Release(1)

	session, err := i.browser.NewSession(ctx)
	if err != nil {
		return "", pageError("open session", pageURL, ErrNavigation, err)
	}
	defer session.Close() //nolint:errcheck

	if err := session.Navigate(pageURL); err != nil {
		return "", pageError("navigate", pageURL, ErrNavigation, err)
	}
	if err := session.Wait(i.wait); err != nil {
		return "", pageError("wait", pageURL, ErrNavigation, err)
	}
	if err := session.Click(ref); err != nil {
		return "", pageError("click "+ref.String(), pageURL, ErrElementInteraction, err)
	}
	if err := session.Wait(i.targetWait); err != nil {
		return "", pageError("wait", pageURL, ErrNavigation, err)
	}
	loc, err := session.Location()
	if err != nil {
		return "", pageError("location", pageURL, ErrNavigation, err)
	}
	return loc, nil
}
