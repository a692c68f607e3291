package dom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrUnresolved = errors.New("no strategy resolved the element")

// Strategy is one way of locating an element. Strategies are tried in
// order and the first match wins.
type Strategy struct {
	Name string
	Find Check
}

// Resolve returns the element found by the first successful strategy and
// that strategy's name. A strategy that errors is skipped; if none
// matches, the result wraps ErrUnresolved together with those errors.
func Resolve(ctx context.Context, strategies ...Strategy) (Element, string, error) {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return Element{}, "", err
		}
		el, ok, err := s.Find(ctx)
		if err != nil {
			slog.Warn("Resolution strategy failed", "strategy", s.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if ok {
			return el, s.Name, nil
		}
		slog.Warn("Resolution strategy found nothing, trying next", "strategy", s.Name)
	}
	return Element{}, "", errors.Join(append([]error{ErrUnresolved}, errs...)...)
}

// LocatorStrategy matches the first element at loc.
func LocatorStrategy(name string, page Page, loc Locator) Strategy {
	return Strategy{
		Name: name,
		Find: func(ctx context.Context) (Element, bool, error) {
			return First(ctx, page, loc)
		},
	}
}

// AnchorStrategy matches an anchor whose trimmed href equals path exactly
// and whose text contains text, case-insensitively.
func AnchorStrategy(name string, page Page, path, text string) Strategy {
	return Strategy{
		Name: name,
		Find: func(ctx context.Context) (Element, bool, error) {
			anchors, err := page.QueryAll(ctx, ByCSS("a"))
			if err != nil {
				return Element{}, false, err
			}
			for _, a := range anchors {
				if strings.TrimSpace(a.Href) != path {
					continue
				}
				if strings.Contains(strings.ToLower(strings.TrimSpace(a.Text)), strings.ToLower(text)) {
					return a, true, nil
				}
			}
			return Element{}, false, nil
		},
	}
}
