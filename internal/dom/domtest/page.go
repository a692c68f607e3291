// Package domtest provides an in-memory dom.Page for tests.
package domtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/omarshaarawi/fplforecaster/internal/dom"
)

type entry struct {
	elements  []dom.Element
	hiddenFor int
}

// Page is a scripted document. Elements registered with SetAfter stay
// invisible for a number of queries, which simulates a page that renders
// asynchronously.
type Page struct {
	mu      sync.Mutex
	entries map[dom.Locator]*entry
	errs    map[dom.Locator]error
	queries map[dom.Locator]int
	onClick map[string]func(*Page)
	clicks  []dom.Element
	values  map[string]string
}

func NewPage() *Page {
	return &Page{
		entries: make(map[dom.Locator]*entry),
		errs:    make(map[dom.Locator]error),
		queries: make(map[dom.Locator]int),
		onClick: make(map[string]func(*Page)),
		values:  make(map[string]string),
	}
}

func (p *Page) Set(loc dom.Locator, els ...dom.Element) {
	p.SetAfter(loc, 0, els...)
}

// SetAfter makes els visible at loc once loc has been queried n times.
func (p *Page) SetAfter(loc dom.Locator, n int, els ...dom.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[loc] = &entry{elements: els, hiddenFor: n}
}

func (p *Page) Remove(loc dom.Locator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, loc)
}

func (p *Page) FailQuery(loc dom.Locator, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[loc] = err
}

// OnClick registers a page mutation to run when the element with ref is
// clicked.
func (p *Page) OnClick(ref string, fn func(*Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[ref] = fn
}

func (p *Page) Queries(loc dom.Locator) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries[loc]
}

func (p *Page) Clicks() []dom.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dom.Element(nil), p.clicks...)
}

func (p *Page) Value(ref string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[ref]
}

func (p *Page) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queries[loc]++
	if err, ok := p.errs[loc]; ok {
		return nil, err
	}
	e, ok := p.entries[loc]
	if !ok {
		return nil, nil
	}
	if p.queries[loc] <= e.hiddenFor {
		return nil, nil
	}
	return append([]dom.Element(nil), e.elements...), nil
}

func (p *Page) Click(ctx context.Context, el dom.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if !p.has(el.Ref) {
		p.mu.Unlock()
		return fmt.Errorf("click: element %q is not attached", el.Ref)
	}
	p.clicks = append(p.clicks, el)
	fn := p.onClick[el.Ref]
	p.mu.Unlock()

	if fn != nil {
		fn(p)
	}
	return nil
}

func (p *Page) SetValue(ctx context.Context, el dom.Element, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.has(el.Ref) {
		return fmt.Errorf("set value: element %q is not attached", el.Ref)
	}
	p.values[el.Ref] = value
	return nil
}

func (p *Page) has(ref string) bool {
	for _, e := range p.entries {
		for _, el := range e.elements {
			if el.Ref == ref {
				return true
			}
		}
	}
	return false
}
