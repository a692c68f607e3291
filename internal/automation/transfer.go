// Package automation drives the FPL transfers page to swap one squad
// player for another.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/fplforecaster/internal/api/fpl"
	"github.com/omarshaarawi/fplforecaster/internal/dom"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

type Step int

const (
	StepNone Step = iota
	StepNavigate
	StepListView
	StepResolvePlayers
	StepRemove
	StepSearch
	StepAdd
)

var stepNames = map[Step]string{
	StepNone:           "none",
	StepNavigate:       "navigate",
	StepListView:       "list view",
	StepResolvePlayers: "resolve players",
	StepRemove:         "remove player",
	StepSearch:         "search player",
	StepAdd:            "add player",
}

func (s Step) String() string { return stepNames[s] }

// The target site's markup is outside our control. These selectors are
// positional and break whenever the site is redesigned.
const (
	transfersPath     = "/transfers"
	transfersText     = "transfers"
	transfersNavXPath = "/html/body/main/div/div[1]/div/div/div/nav/ul/li[4]/a"
	listViewSelector  = "#root > div:nth-child(2) > div.SquadBase__PusherWrap-sc-16cuskw-0.sQBlU > div > div > div.Layout__Main-sc-eg6k6r-1.eRnmvx > div:nth-child(2) > div.GraphicPatterns__PatternWrapMain-sc-bfgp6c-0.jbGktN > div:nth-child(3) > ul > li:nth-child(2) > a"
	searchSelector    = `input[placeholder*="Search players"]`
	buttonSelector    = "button"
)

// Timeouts bound each wait-for-condition step.
type Timeouts struct {
	ListView time.Duration
	Search   time.Duration
	// Control bounds polling for the remove and add buttons.
	Control time.Duration
}

var DefaultTimeouts = Timeouts{
	ListView: 15 * time.Second,
	Search:   10 * time.Second,
	Control:  5 * time.Second,
}

// SettleDelays are best-effort pauses that let the target page finish its
// own asynchronous rendering. The site exposes no readiness signal for
// these transitions, so they are a known fragility.
type SettleDelays struct {
	Navigation time.Duration
	View       time.Duration
	Remove     time.Duration
	Search     time.Duration
}

var DefaultSettleDelays = SettleDelays{
	Navigation: 5 * time.Second,
	View:       3 * time.Second,
	Remove:     3 * time.Second,
	Search:     3 * time.Second,
}

// ReferenceSource supplies the bootstrap dataset used to resolve display
// names.
type ReferenceSource interface {
	GetBootstrap(ctx context.Context) (*models.BootstrapResponse, error)
}

// Outcome describes what a transfer run did. It is returned whether or
// not the run succeeded.
type Outcome struct {
	RunID       string
	Outgoing    models.PlayerReference
	Incoming    models.PlayerReference
	NavigatedBy string
	Completed   []Step
	Duration    time.Duration
}

type Automator struct {
	page     dom.Page
	waiter   *dom.Waiter
	players  ReferenceSource
	clock    clockwork.Clock
	delays   SettleDelays
	timeouts Timeouts

	// A run mutates shared tab state; overlapping runs are refused.
	mu sync.Mutex
}

type Option func(*Automator)

func WithSettleDelays(d SettleDelays) Option {
	return func(a *Automator) { a.delays = d }
}

func WithClock(c clockwork.Clock) Option {
	return func(a *Automator) { a.clock = c }
}

func WithTimeouts(t Timeouts) Option {
	return func(a *Automator) { a.timeouts = t }
}

func New(page dom.Page, waiter *dom.Waiter, players ReferenceSource, opts ...Option) *Automator {
	a := &Automator{
		page:     page,
		waiter:   waiter,
		players:  players,
		clock:    clockwork.NewRealClock(),
		delays:   DefaultSettleDelays,
		timeouts: DefaultTimeouts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Transfer replaces outID with inID in the squad shown in the page.
func (a *Automator) Transfer(ctx context.Context, outID, inID int) (*Outcome, error) {
	outcome := &Outcome{RunID: uuid.NewString()}
	log := slog.With("run_id", outcome.RunID, "out_id", outID, "in_id", inID)

	if !a.mu.TryLock() {
		log.Warn("Transfer refused, another run is in progress")
		return outcome, &StepError{Kind: KindBusy}
	}
	defer a.mu.Unlock()

	start := a.clock.Now()
	defer func() { outcome.Duration = a.clock.Since(start) }()

	log.Info("Starting transfer")

	done := func(step Step) {
		outcome.Completed = append(outcome.Completed, step)
		log.Info("Transfer step completed", "step", step.String())
	}
	fail := func(step Step, kind Kind, err error) (*Outcome, error) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = KindCanceled
		}
		se := &StepError{Step: step, Kind: kind, Err: err}
		log.Error("Transfer failed", "step", step.String(), "kind", string(kind), "error", err)
		return outcome, se
	}

	// 1) transfers view
	nav, by, err := dom.Resolve(ctx,
		dom.AnchorStrategy("anchor", a.page, transfersPath, transfersText),
		dom.LocatorStrategy("xpath", a.page, dom.ByXPath(transfersNavXPath)),
	)
	if err != nil {
		return fail(StepNavigate, KindNavigationNotFound, err)
	}
	if err := a.page.Click(ctx, nav); err != nil {
		return fail(StepNavigate, KindInteractionFailed, err)
	}
	outcome.NavigatedBy = by
	if err := a.settle(ctx, a.delays.Navigation); err != nil {
		return fail(StepNavigate, KindCanceled, err)
	}
	done(StepNavigate)

	// 2) list view
	list, err := a.waiter.WaitForWithin(ctx, dom.ByCSS(listViewSelector), a.timeouts.ListView)
	if err != nil {
		return fail(StepListView, KindElementNotFound, err)
	}
	if err := a.page.Click(ctx, list); err != nil {
		return fail(StepListView, KindInteractionFailed, err)
	}
	if err := a.settle(ctx, a.delays.View); err != nil {
		return fail(StepListView, KindCanceled, err)
	}
	done(StepListView)

	// 3) display names
	bootstrap, err := a.players.GetBootstrap(ctx)
	if err != nil {
		return fail(StepResolvePlayers, KindFetchFailed, err)
	}
	outgoing, incoming, err := resolvePlayers(bootstrap, outID, inID)
	if err != nil {
		return fail(StepResolvePlayers, KindPlayersNotResolved, err)
	}
	outcome.Outgoing, outcome.Incoming = outgoing, incoming
	log.Info("Resolved players", "removing", outgoing.WebName, "adding", incoming.WebName)
	done(StepResolvePlayers)

	// 4) remove outgoing
	remove, err := a.findButton(ctx, outgoing.WebName, "remove")
	if err != nil {
		return fail(StepRemove, KindRemoveControlNotFound, err)
	}
	if err := a.page.Click(ctx, remove); err != nil {
		return fail(StepRemove, KindInteractionFailed, err)
	}
	if err := a.settle(ctx, a.delays.Remove); err != nil {
		return fail(StepRemove, KindCanceled, err)
	}
	done(StepRemove)

	// 5) search for incoming
	search, err := a.waiter.WaitForWithin(ctx, dom.ByCSS(searchSelector), a.timeouts.Search)
	if err != nil {
		return fail(StepSearch, KindElementNotFound, err)
	}
	if err := a.page.SetValue(ctx, search, incoming.WebName); err != nil {
		return fail(StepSearch, KindInteractionFailed, err)
	}
	if err := a.settle(ctx, a.delays.Search); err != nil {
		return fail(StepSearch, KindCanceled, err)
	}
	done(StepSearch)

	// 6) add incoming
	add, err := a.findButton(ctx, incoming.WebName, "add")
	if err != nil {
		return fail(StepAdd, KindAddControlNotFound, err)
	}
	if err := a.page.Click(ctx, add); err != nil {
		return fail(StepAdd, KindInteractionFailed, err)
	}
	done(StepAdd)

	log.Info("Transfer completed", "removed", outgoing.WebName, "added", incoming.WebName)
	return outcome, nil
}

func resolvePlayers(b *models.BootstrapResponse, outID, inID int) (models.PlayerReference, models.PlayerReference, error) {
	var none models.PlayerReference

	outgoing, okOut := fpl.FindPlayer(b, outID)
	incoming, okIn := fpl.FindPlayer(b, inID)
	switch {
	case !okOut && !okIn:
		return none, none, fmt.Errorf("ids %d and %d are unknown", outID, inID)
	case !okOut:
		return none, none, fmt.Errorf("id %d is unknown", outID)
	case !okIn:
		return none, none, fmt.Errorf("id %d is unknown", inID)
	}
	return outgoing, incoming, nil
}

// findButton polls for a button whose text names the player and carries
// the given action word. When several match, the last one is used.
func (a *Automator) findButton(ctx context.Context, name, action string) (dom.Element, error) {
	desc := fmt.Sprintf("button[%s %s]", action, name)
	return a.waiter.Poll(ctx, desc, a.timeouts.Control, func(ctx context.Context) (dom.Element, bool, error) {
		return dom.FindLastByText(ctx, a.page, dom.ByCSS(buttonSelector), name, action)
	})
}

func (a *Automator) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.clock.After(d):
		return nil
	}
}
