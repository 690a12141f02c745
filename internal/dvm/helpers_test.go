package dvm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/OpenAgentsInc/commander-sub000/internal/lightning"
	"github.com/OpenAgentsInc/commander-sub000/internal/relay"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRelay struct {
	mu           sync.Mutex
	published    []nostr.Event
	failKinds    map[int]bool
	subscribeErr error
	onEvent      func(nostr.Event)
	unsubbed     bool
}

type fakeSub struct{ r *fakeRelay }

func (s *fakeSub) Unsub() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.unsubbed = true
}

func (r *fakeRelay) Subscribe(_ context.Context, _ nostr.Filters, onEvent func(nostr.Event)) (relay.Subscription, error) {
	if r.subscribeErr != nil {
		return nil, r.subscribeErr
	}
	r.mu.Lock()
	r.onEvent = onEvent
	r.mu.Unlock()
	return &fakeSub{r: r}, nil
}

func (r *fakeRelay) Publish(_ context.Context, ev nostr.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failKinds[ev.Kind] {
		return errors.New("relay rejected event")
	}
	r.published = append(r.published, ev)
	return nil
}

func (r *fakeRelay) List(_ context.Context, _ nostr.Filters) ([]nostr.Event, error) {
	return nil, nil
}

func (r *fakeRelay) publishedOfKind(kind int) []nostr.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []nostr.Event
	for _, ev := range r.published {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *fakeRelay) feedbackStatuses() []string {
	var out []string
	for _, ev := range r.publishedOfKind(models.JobFeedbackKind) {
		if tag := ev.Tags.GetFirst([]string{"status"}); tag != nil {
			out = append(out, []string(*tag)[1])
		}
	}
	return out
}

// fakeCipher marks ciphertext with a prefix instead of real encryption.
type fakeCipher struct {
	encryptErr error
	decryptErr error
}

const cipherPrefix = "enc:"

func (c *fakeCipher) Encrypt(_, plaintext string) (string, error) {
	if c.encryptErr != nil {
		return "", c.encryptErr
	}
	return cipherPrefix + plaintext, nil
}

func (c *fakeCipher) Decrypt(_, ciphertext string) (string, error) {
	if c.decryptErr != nil {
		return "", c.decryptErr
	}
	return strings.TrimPrefix(ciphertext, cipherPrefix), nil
}

type fakeWallet struct {
	mu         sync.Mutex
	createErr  error
	statusErr  error
	status     lightning.InvoiceStatus
	created    []int64
	lastMemo   string
	numChecked int
}

func (w *fakeWallet) CreateInvoice(_ context.Context, amountSats int64, memo string) (lightning.Invoice, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.createErr != nil {
		return lightning.Invoice{}, w.createErr
	}
	w.created = append(w.created, amountSats)
	w.lastMemo = memo
	return lightning.Invoice{Bolt11: "lnbc1fakeinvoice", PaymentHash: "deadbeef"}, nil
}

func (w *fakeWallet) CheckInvoiceStatus(_ context.Context, _ string) (lightning.InvoiceStatus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.numChecked++
	if w.statusErr != nil {
		return lightning.InvoiceStatus{}, w.statusErr
	}
	return w.status, nil
}

// --- builders ---

func testIdentity(t *testing.T) Identity {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	return Identity{
		PrivateKey:       sk,
		PublicKey:        pk,
		Relays:           []string{"wss://relay.test"},
		SupportedKinds:   []int{5100},
		DefaultModel:     "gemma3:1b",
		MinPriceSats:     5,
		PricePer1kTokens: 10,
	}
}

// signedEvent builds and signs an event from a fresh requester keypair.
func signedEvent(t *testing.T, kind int, tags nostr.Tags, content string) nostr.Event {
	t.Helper()
	ev := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	require.NoError(t, ev.Sign(nostr.GeneratePrivateKey()))
	return ev
}

func textRequest(t *testing.T, prompt string) nostr.Event {
	t.Helper()
	return signedEvent(t, 5100, nostr.Tags{nostr.Tag{"i", prompt, "text"}}, "")
}
