// Package reviews is a mountable HTTP component exposing the review
// dashboard: filtered listings, item CRUD, threaded comments, assignments,
// CSV export and a websocket feed for live updates.
package reviews

import (
	"log/slog"
	"net/http"

	"github.com/formstudio-io/go-formstudio/pkg/review"
)

// GuardFunc vets a request before it reaches a handler. Returning an error
// rejects the request; errors implementing HTTPError pick the status code.
type GuardFunc func(r *http.Request) error

// Broadcaster receives change events for live distribution. Satisfied by
// *live.Hub; nil disables live updates.
type Broadcaster interface {
	Publish(itemID string, event Event)
}

// Event is one dashboard change notification.
type Event struct {
	Type    string `json:"type"`
	ItemID  string `json:"itemId"`
	Payload any    `json:"payload,omitempty"`
}

// Event types pushed to live subscribers.
const (
	EventItemCreated       = "item.created"
	EventItemUpdated       = "item.updated"
	EventItemDeleted       = "item.deleted"
	EventCommentCreated    = "comment.created"
	EventCommentUpdated    = "comment.updated"
	EventCommentDeleted    = "comment.deleted"
	EventAssignmentCreated = "assignment.created"
	EventAssignmentDeleted = "assignment.deleted"
)

// Options configure the component.
type Options struct {
	RoutePath       string
	Store           review.Store
	Guard           GuardFunc
	Broadcaster     Broadcaster
	Logger          *slog.Logger
	DefaultPageSize int
	MaxPageSize     int
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the component defaults: an in-memory store mounted
// at /api/v1/reviews with no guard.
func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api/v1/reviews",
		DefaultPageSize: review.DefaultPageSize,
		MaxPageSize:     review.MaxPageSize,
	}
}

// NewOptions applies overrides on top of defaults and clamps bad values.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/v1/reviews"
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = review.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = review.MaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	if opts.Store == nil {
		opts.Store = review.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// WithRoutePath overrides the mount path.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithStore injects the persistence backend.
func WithStore(store review.Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = store
	}
}

// WithGuard installs an auth guard on every route.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithBroadcaster wires live update distribution.
func WithBroadcaster(b Broadcaster) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Broadcaster = b
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// WithPageSizes overrides pagination defaults.
func WithPageSizes(defaultSize, maxSize int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultPageSize = defaultSize
		o.MaxPageSize = maxSize
	}
}
