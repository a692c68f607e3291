// Package browser drives a Chrome tab over the DevTools protocol and exposes
// it as a dom.Page.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/omarshaarawi/fplforecaster/internal/config"
	"github.com/omarshaarawi/fplforecaster/internal/dom"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

const refAttr = "data-fplf-ref"

var ErrDetached = errors.New("element is no longer attached to the page")

// Session owns one browser tab. All page operations run in that tab.
type Session struct {
	tab     context.Context
	cancel  context.CancelFunc
	siteURL string
	prefix  string
}

var _ dom.Page = (*Session)(nil)

// NewSession attaches to the Chrome at cfg.RemoteURL, or launches a local one
// when no remote is configured.
func NewSession(ctx context.Context, cfg config.Browser) (*Session, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
		)
		if cfg.UserDataDir != "" {
			opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	tab, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logf(slog.LevelDebug)),
		chromedp.WithErrorf(logf(slog.LevelError)),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	chromedp.ListenTarget(tab, func(ev any) {
		if ev, ok := ev.(*runtime.EventExceptionThrown); ok {
			slog.Debug("Page exception", "text", ev.ExceptionDetails.Text)
		}
	})

	if err := chromedp.Run(tab); err != nil {
		cancel()
		return nil, fmt.Errorf("error starting browser: %w", err)
	}

	slog.Info("Browser session started", "remote", cfg.RemoteURL != "", "site", cfg.SiteURL)
	return &Session{
		tab:     tab,
		cancel:  cancel,
		siteURL: cfg.SiteURL,
		prefix:  uuid.NewString()[:8],
	}, nil
}

func logf(level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		slog.Log(context.Background(), level, fmt.Sprintf(format, args...), "source", "chromedp")
	}
}

func (s *Session) Close() {
	s.cancel()
}

// run executes actions in the session tab, aborting when ctx is done.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *Session) evaluate(ctx context.Context, script string, res any) error {
	return s.run(ctx, chromedp.Evaluate(script, res))
}

const queryScript = `(function(kind, expr, attr, prefix) {
	let nodes = [];
	if (kind === "xpath") {
		const r = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (let i = 0; i < r.snapshotLength; i++) nodes.push(r.snapshotItem(i));
	} else {
		nodes = Array.from(document.querySelectorAll(expr));
	}
	return nodes.filter(n => n.nodeType === Node.ELEMENT_NODE).map(el => {
		let ref = el.getAttribute(attr);
		if (!ref) {
			window.__fplfSeq = (window.__fplfSeq || 0) + 1;
			ref = prefix + "-" + window.__fplfSeq;
			el.setAttribute(attr, ref);
		}
		return {
			ref: ref,
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.textContent || "").trim(),
			href: el.getAttribute("href") || ""
		};
	});
})`

const clickScript = `(function(attr, ref) {
	const el = document.querySelector("[" + attr + "=\"" + ref + "\"]");
	if (!el) return false;
	el.click();
	return true;
})`

const setValueScript = `(function(attr, ref, value) {
	const el = document.querySelector("[" + attr + "=\"" + ref + "\"]");
	if (!el) return false;
	const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	const setter = Object.getOwnPropertyDescriptor(proto, "value").set;
	el.focus();
	setter.call(el, value);
	el.dispatchEvent(new Event("input", { bubbles: true }));
	return true;
})`

const signInScript = `Array.from(document.querySelectorAll("h2")).some(h => h.textContent.trim() === "Sign In")`

// call renders an invocation of fn with JSON encoded arguments.
func call(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("error encoding script argument: %w", err)
		}
		encoded[i] = string(b)
	}
	return fn + "(" + strings.Join(encoded, ", ") + ")", nil
}

type jsElement struct {
	Ref  string `json:"ref"`
	Tag  string `json:"tag"`
	Text string `json:"text"`
	Href string `json:"href"`
}

func (s *Session) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	script, err := call(queryScript, loc.Kind.String(), loc.Expr, refAttr, s.prefix)
	if err != nil {
		return nil, err
	}
	var found []jsElement
	if err := s.evaluate(ctx, script, &found); err != nil {
		return nil, fmt.Errorf("error querying %s: %w", loc, err)
	}

	els := make([]dom.Element, len(found))
	for i, f := range found {
		els[i] = dom.Element{Ref: f.Ref, Tag: f.Tag, Text: f.Text, Href: f.Href}
	}
	return els, nil
}

func (s *Session) Click(ctx context.Context, el dom.Element) error {
	script, err := call(clickScript, refAttr, el.Ref)
	if err != nil {
		return err
	}
	return s.mutate(ctx, script, el)
}

func (s *Session) SetValue(ctx context.Context, el dom.Element, value string) error {
	script, err := call(setValueScript, refAttr, el.Ref, value)
	if err != nil {
		return err
	}
	return s.mutate(ctx, script, el)
}

func (s *Session) mutate(ctx context.Context, script string, el dom.Element) error {
	var ok bool
	if err := s.evaluate(ctx, script, &ok); err != nil {
		return fmt.Errorf("error acting on <%s> %q: %w", el.Tag, el.Text, err)
	}
	if !ok {
		return fmt.Errorf("<%s> %q: %w", el.Tag, el.Text, ErrDetached)
	}
	return nil
}

// Open loads the site's home page in the session tab.
func (s *Session) Open(ctx context.Context) error {
	slog.Info("Opening site", "url", s.siteURL)
	return s.run(ctx,
		chromedp.Navigate(s.siteURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Status reports which page the tab shows and whether it is signed in.
func (s *Session) Status(ctx context.Context) (models.SiteStatus, error) {
	var location string
	var signIn bool
	if err := s.run(ctx,
		chromedp.Location(&location),
		chromedp.Evaluate(signInScript, &signIn),
	); err != nil {
		return models.SiteStatus{}, fmt.Errorf("error reading page state: %w", err)
	}

	status := models.SiteStatus{URL: location, OnSite: sameHost(location, s.siteURL)}
	status.LoggedIn = status.OnSite && !signIn
	return status, nil
}

func sameHost(pageURL, siteURL string) bool {
	page, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	site, err := url.Parse(siteURL)
	if err != nil || site.Hostname() == "" {
		return false
	}
	return strings.EqualFold(page.Hostname(), site.Hostname())
}
