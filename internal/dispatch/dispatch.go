// Package dispatch routes a verified webhook delivery to the handler
// registered for its (event, action) pair.
package dispatch

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/garrettladley/checkrun/internal/secret"
	"github.com/garrettladley/checkrun/internal/xslog"
)

const (
	EventCheckSuite = "check_suite"
	EventCheckRun   = "check_run"

	ActionRequested       = "requested"
	ActionRequestedAction = "requested_action"
)

type Route struct {
	Event  string
	Action string
}

func (r Route) String() string { return r.Event + "." + r.Action }

type Status string

const (
	StatusHandled Status = "handled"
	StatusIgnored Status = "ignored"
	StatusFailed  Status = "failed"
)

// Delivery is one verified webhook. Body is the raw payload the signature
// was computed over.
type Delivery struct {
	ID          string
	Event       string
	Action      string
	Body        []byte
	Credentials secret.Credentials
}

func (d Delivery) Route() Route { return Route{Event: d.Event, Action: d.Action} }

type ActionHandler interface {
	Handle(ctx context.Context, d Delivery) error
}

type HandlerFunc func(ctx context.Context, d Delivery) error

func (f HandlerFunc) Handle(ctx context.Context, d Delivery) error { return f(ctx, d) }

type Registration struct {
	Route   Route
	Handler ActionHandler
}

func Register(event, action string, h ActionHandler) Registration {
	return Registration{Route: Route{Event: event, Action: action}, Handler: h}
}

type Outcome struct {
	Route    Route
	Status   Status
	Err      error
	Duration time.Duration
}

// Table is immutable once built and safe for concurrent use.
type Table struct {
	events map[string]map[string]ActionHandler
}

// NewTable panics on a duplicate route or nil handler, like http.ServeMux.
func NewTable(regs ...Registration) *Table {
	t := &Table{events: make(map[string]map[string]ActionHandler)}
	for _, reg := range regs {
		if reg.Handler == nil {
			panic(fmt.Sprintf("dispatch: nil handler for %s", reg.Route))
		}
		actions, ok := t.events[reg.Route.Event]
		if !ok {
			actions = make(map[string]ActionHandler)
			t.events[reg.Route.Event] = actions
		}
		if _, dup := actions[reg.Route.Action]; dup {
			panic(fmt.Sprintf("dispatch: duplicate route %s", reg.Route))
		}
		actions[reg.Route.Action] = reg.Handler
	}
	return t
}

func (t *Table) Lookup(r Route) (ActionHandler, bool) {
	actions, ok := t.events[r.Event]
	if !ok {
		return nil, false
	}
	h, ok := actions[r.Action]
	return h, ok
}

// Routes lists every registered route in a stable order.
func (t *Table) Routes() []Route {
	var routes []Route
	for event, actions := range t.events {
		for action := range actions {
			routes = append(routes, Route{Event: event, Action: action})
		}
	}
	slices.SortFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Event, b.Event); c != 0 {
			return c
		}
		return strings.Compare(a.Action, b.Action)
	})
	return routes
}

// Dispatch runs the handler for d's route. Handler errors and panics are
// reported in the Outcome and never returned to the caller.
func (t *Table) Dispatch(ctx context.Context, d Delivery) (out Outcome) {
	route := d.Route()
	logger := xslog.FromContext(ctx).With(xslog.Event(route.Event), xslog.Action(route.Action))
	out = Outcome{Route: route}

	actions, ok := t.events[route.Event]
	if !ok {
		logger.InfoContext(ctx, "event is not handled by this app")
		out.Status = StatusIgnored
		return out
	}
	h, ok := actions[route.Action]
	if !ok {
		logger.InfoContext(ctx, "action is not handled for this event")
		out.Status = StatusIgnored
		return out
	}

	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			out.Status = StatusFailed
			out.Err = fmt.Errorf("handler panic: %v", rec)
			logger.ErrorContext(ctx, "action handler panicked",
				xslog.ErrorGroupWithStack(rec),
			)
		}
	}()

	if err := h.Handle(ctx, d); err != nil {
		logger.ErrorContext(ctx, "action handler failed",
			xslog.ErrorGroup(err),
		)
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	out.Status = StatusHandled
	return out
}
