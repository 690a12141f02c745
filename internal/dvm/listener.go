package dvm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OpenAgentsInc/commander-sub000/internal/relay"
	"github.com/nbd-wtf/go-nostr"
)

// requestLookback bounds how far back the subscription replays stored
// request events on startup.
const requestLookback = 300 * time.Second

// Runner is a long-lived background task tied to one listening session,
// cancelled when the session stops.
type Runner interface {
	Run(ctx context.Context)
}

// Listener subscribes to the event network for supported job kinds and
// spawns one independent Executor run per incoming request. Intake never
// blocks on job execution.
type Listener struct {
	identity   Identity
	relay      relay.Client
	executor   *Executor
	reconciler Runner
	logger     *slog.Logger
}

func NewListener(identity Identity, relayClient relay.Client, executor *Executor, reconciler Runner, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		identity:   identity,
		relay:      relayClient,
		executor:   executor,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Controller is the handle for one listening session. Stop tears down the
// subscription and the reconciliation loop and does not return until
// neither can run further callbacks.
type Controller struct {
	sub    relay.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (c *Controller) Stop() {
	c.cancel()
	c.sub.Unsub()
	c.wg.Wait()
}

// Start validates the identity, opens the subscription, and launches the
// payment reconciliation loop. The returned Controller owns both.
func (l *Listener) Start(ctx context.Context) (*Controller, error) {
	if l.identity.PrivateKey == "" {
		return nil, fmt.Errorf("%w: missing private key", ErrConfiguration)
	}
	if len(l.identity.Relays) == 0 {
		return nil, fmt.Errorf("%w: empty relay list", ErrConfiguration)
	}

	since := nostr.Timestamp(time.Now().Add(-requestLookback).Unix())
	filters := nostr.Filters{{
		Kinds: l.identity.SupportedKinds,
		Since: &since,
	}}

	runCtx, cancel := context.WithCancel(ctx)

	sub, err := l.relay.Subscribe(runCtx, filters, l.handle)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: subscribing to relays: %v", ErrConnection, err)
	}

	ctrl := &Controller{sub: sub, cancel: cancel}

	if l.reconciler != nil {
		ctrl.wg.Add(1)
		go func() {
			defer ctrl.wg.Done()
			l.reconciler.Run(runCtx)
		}()
	}

	l.logger.Info("listener started",
		"pubkey", l.identity.PublicKey,
		"kinds", l.identity.SupportedKinds,
		"relays", l.identity.Relays,
	)
	return ctrl, nil
}

// handle is the subscription callback. It must return immediately, so each
// accepted event is handed to a fire-and-forget goroutine.
func (l *Listener) handle(ev nostr.Event) {
	if ev.PubKey == l.identity.PublicKey && isOwnOutputKind(ev.Kind) {
		l.logger.Debug("ignoring self-authored event", "event_id", ev.ID, "kind", ev.Kind)
		return
	}

	go l.runJob(ev)
}

// runJob supervises one spawned execution so an unhandled failure can never
// crash the listener.
func (l *Listener) runJob(ev nostr.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in job execution", "request_id", ev.ID, "error", r)
		}
	}()

	// The job captures its own context: a running job outlives Stop.
	if err := l.executor.Run(context.Background(), ev); err != nil {
		l.logger.Warn("job execution failed", "request_id", ev.ID, "error", err)
	}
}
