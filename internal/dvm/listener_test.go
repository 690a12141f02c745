package dvm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpenAgentsInc/commander-sub000/internal/ai/mock"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider records how many executions reached the inference stage.
func countingProvider(calls *atomic.Int32) *mock.MockProvider {
	return &mock.MockProvider{
		Name_: "counting",
		CompleteFunc: func(_ context.Context, model string, _ []models.ChatMessage) (models.Completion, error) {
			calls.Add(1)
			return models.Completion{Content: "ok", Model: model, Usage: models.Usage{TotalTokens: 10}}, nil
		},
	}
}

// stubRunner blocks until its context is cancelled, then signals exit.
type stubRunner struct {
	started chan struct{}
	stopped chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{started: make(chan struct{}), stopped: make(chan struct{})}
}

func (s *stubRunner) Run(ctx context.Context) {
	close(s.started)
	<-ctx.Done()
	close(s.stopped)
}

func TestListener_Start_RequiresIdentity(t *testing.T) {
	r := &fakeRelay{}
	id := testIdentity(t)

	noKey := id
	noKey.PrivateKey = ""
	l := NewListener(noKey, r, newExecutor(noKey, r, mock.NewMockProvider(), &fakeWallet{}, &fakeCipher{}), nil, nil)
	_, err := l.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	noRelays := id
	noRelays.Relays = nil
	l = NewListener(noRelays, r, newExecutor(noRelays, r, mock.NewMockProvider(), &fakeWallet{}, &fakeCipher{}), nil, nil)
	_, err = l.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestListener_Start_SubscribeFailure(t *testing.T) {
	id := testIdentity(t)
	r := &fakeRelay{subscribeErr: assert.AnError}
	l := NewListener(id, r, newExecutor(id, r, mock.NewMockProvider(), &fakeWallet{}, &fakeCipher{}), nil, nil)

	_, err := l.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestListener_IgnoresOwnPublishedEvents(t *testing.T) {
	id := testIdentity(t)
	r := &fakeRelay{}
	var calls atomic.Int32
	exec := newExecutor(id, r, countingProvider(&calls), &fakeWallet{}, &fakeCipher{})
	l := NewListener(id, r, exec, nil, nil)

	ctrl, err := l.Start(context.Background())
	require.NoError(t, err)
	defer ctrl.Stop()

	// A result and a feedback event authored by this identity must be dropped.
	ownResult := nostr.Event{CreatedAt: nostr.Now(), Kind: 6100, Tags: nostr.Tags{nostr.Tag{"e", "req"}}}
	require.NoError(t, ownResult.Sign(id.PrivateKey))
	ownFeedback := nostr.Event{CreatedAt: nostr.Now(), Kind: 7000, Tags: nostr.Tags{nostr.Tag{"status", "success"}}}
	require.NoError(t, ownFeedback.Sign(id.PrivateKey))

	r.onEvent(ownResult)
	r.onEvent(ownFeedback)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestListener_RunsIncomingRequests(t *testing.T) {
	id := testIdentity(t)
	r := &fakeRelay{}
	var calls atomic.Int32
	exec := newExecutor(id, r, countingProvider(&calls), &fakeWallet{}, &fakeCipher{})
	l := NewListener(id, r, exec, nil, nil)

	ctrl, err := l.Start(context.Background())
	require.NoError(t, err)
	defer ctrl.Stop()

	r.onEvent(textRequest(t, "do the thing"))

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(r.publishedOfKind(6100)) == 1 },
		time.Second, 10*time.Millisecond)
}

func TestListener_StopTearsDownReconciler(t *testing.T) {
	id := testIdentity(t)
	r := &fakeRelay{}
	exec := newExecutor(id, r, mock.NewMockProvider(), &fakeWallet{}, &fakeCipher{})
	runner := newStubRunner()
	l := NewListener(id, r, exec, runner, nil)

	ctrl, err := l.Start(context.Background())
	require.NoError(t, err)

	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("reconciler never started")
	}

	ctrl.Stop()

	select {
	case <-runner.stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop returned before the reconciler exited")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, r.unsubbed)
}
