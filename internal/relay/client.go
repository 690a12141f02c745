// Package relay wraps the Nostr event network behind a small client
// interface: subscribe, publish, list. Connection pooling and relay
// selection live in go-nostr's SimplePool.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// Sentinel errors for event-network failures.
var (
	ErrNoRelays      = errors.New("no relays configured")
	ErrPublishFailed = errors.New("publish failed on all relays")
)

// Subscription is a live subscription that can be torn down.
type Subscription interface {
	Unsub()
}

// Client is the interface to the event network. Publish must be safe for
// concurrent callers.
type Client interface {
	// Subscribe delivers matching events to onEvent until the subscription
	// is unsubscribed or ctx is cancelled. onEvent must return promptly.
	Subscribe(ctx context.Context, filters nostr.Filters, onEvent func(nostr.Event)) (Subscription, error)
	// Publish sends a signed event to every configured relay; it succeeds
	// if at least one relay accepts it.
	Publish(ctx context.Context, ev nostr.Event) error
	// List fetches stored events matching the filters, deduplicated across
	// relays and sorted by timestamp descending.
	List(ctx context.Context, filters nostr.Filters) ([]nostr.Event, error)
}

// PoolClient implements Client on top of a go-nostr SimplePool.
type PoolClient struct {
	pool   *nostr.SimplePool
	relays []string
}

// NewPoolClient creates a pool-backed client for the given relay URLs.
func NewPoolClient(ctx context.Context, relays []string) (*PoolClient, error) {
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}
	return &PoolClient{
		pool:   nostr.NewSimplePool(ctx),
		relays: relays,
	}, nil
}

type poolSubscription struct {
	cancel context.CancelFunc
	done   <-chan struct{}
}

func (s *poolSubscription) Unsub() {
	s.cancel()
	<-s.done
}

func (c *PoolClient) Subscribe(ctx context.Context, filters nostr.Filters, onEvent func(nostr.Event)) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	ch := c.pool.SubMany(subCtx, c.relays, filters)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for incoming := range ch {
			if incoming.Event == nil {
				continue
			}
			onEvent(*incoming.Event)
		}
	}()

	return &poolSubscription{cancel: cancel, done: done}, nil
}

func (c *PoolClient) Publish(ctx context.Context, ev nostr.Event) error {
	var (
		published bool
		lastErr   error
	)
	for _, url := range c.relays {
		r, err := c.pool.EnsureRelay(url)
		if err != nil {
			lastErr = err
			continue
		}
		if err := r.Publish(ctx, ev); err != nil {
			lastErr = err
			continue
		}
		published = true
	}
	if !published {
		return fmt.Errorf("%w: %v", ErrPublishFailed, lastErr)
	}
	return nil
}

func (c *PoolClient) List(ctx context.Context, filters nostr.Filters) ([]nostr.Event, error) {
	ch := c.pool.SubManyEose(ctx, c.relays, filters)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		out  []nostr.Event
	)
	for incoming := range ch {
		if incoming.Event == nil {
			continue
		}
		mu.Lock()
		if _, dup := seen[incoming.Event.ID]; !dup {
			seen[incoming.Event.ID] = struct{}{}
			out = append(out, *incoming.Event)
		}
		mu.Unlock()
	}
	if err := ctx.Err(); err != nil && len(out) == 0 {
		return nil, err
	}

	SortByTimestampDesc(out)
	return out, nil
}

// SortByTimestampDesc orders events newest first, breaking timestamp ties by
// id for a stable order.
func SortByTimestampDesc(events []nostr.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID > events[j].ID
	})
}

// Compile-time check that PoolClient implements Client.
var _ Client = (*PoolClient)(nil)
