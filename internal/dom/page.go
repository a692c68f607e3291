// Package dom holds the browser-agnostic pieces of page automation: locators,
// element handles, the polling Waiter and ordered resolution strategies.
package dom

import (
	"context"
	"fmt"
	"strings"
)

type LocatorKind int

const (
	CSS LocatorKind = iota
	XPath
)

func (k LocatorKind) String() string {
	if k == XPath {
		return "xpath"
	}
	return "css"
}

// Locator addresses elements in the document by CSS selector or XPath.
type Locator struct {
	Kind LocatorKind
	Expr string
}

func ByCSS(expr string) Locator   { return Locator{Kind: CSS, Expr: expr} }
func ByXPath(expr string) Locator { return Locator{Kind: XPath, Expr: expr} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Kind, l.Expr)
}

// Element is a handle to a node found on the page. Ref is opaque to callers
// and only meaningful to the Page that produced it.
type Element struct {
	Ref  string
	Tag  string
	Text string
	Href string
}

// Page is the live document the automation reads and mutates.
type Page interface {
	// QueryAll returns every element matching loc in document order. It
	// never blocks waiting for elements to appear.
	QueryAll(ctx context.Context, loc Locator) ([]Element, error)
	Click(ctx context.Context, el Element) error
	// SetValue assigns an input's value and dispatches a bubbling input
	// event so the page's own listeners observe the change.
	SetValue(ctx context.Context, el Element, value string) error
}

// First returns the first element matching loc, if any.
func First(ctx context.Context, page Page, loc Locator) (Element, bool, error) {
	els, err := page.QueryAll(ctx, loc)
	if err != nil || len(els) == 0 {
		return Element{}, false, err
	}
	return els[0], true, nil
}

// FindByText returns the first element matching loc whose text contains
// every one of parts, compared case-insensitively.
func FindByText(ctx context.Context, page Page, loc Locator, parts ...string) (Element, bool, error) {
	return findByText(ctx, page, loc, false, parts)
}

// FindLastByText is FindByText returning the last match in document order.
func FindLastByText(ctx context.Context, page Page, loc Locator, parts ...string) (Element, bool, error) {
	return findByText(ctx, page, loc, true, parts)
}

func findByText(ctx context.Context, page Page, loc Locator, last bool, parts []string) (Element, bool, error) {
	els, err := page.QueryAll(ctx, loc)
	if err != nil {
		return Element{}, false, err
	}
	var found Element
	var ok bool
	for _, el := range els {
		if !containsAllFold(el.Text, parts) {
			continue
		}
		found, ok = el, true
		if !last {
			break
		}
	}
	return found, ok, nil
}

func containsAllFold(text string, parts []string) bool {
	text = strings.ToLower(text)
	for _, p := range parts {
		if !strings.Contains(text, strings.ToLower(p)) {
			return false
		}
	}
	return true
}
