package dvm

import (
	"fmt"

	"github.com/OpenAgentsInc/commander-sub000/internal/config"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/nbd-wtf/go-nostr"
)

// Identity is the single configured DVM service identity. It is immutable
// for the lifetime of a listening session.
type Identity struct {
	PrivateKey       string
	PublicKey        string
	Relays           []string
	SupportedKinds   []int
	DefaultModel     string
	DefaultParams    map[string]string
	MinPriceSats     int64
	PricePer1kTokens int64
}

// NewIdentity derives the public key and builds the identity from config.
func NewIdentity(cfg config.DVMConfig, defaultModel string) (Identity, error) {
	if cfg.PrivateKey == "" {
		return Identity{}, fmt.Errorf("%w: missing private key", ErrConfiguration)
	}
	pubkey, err := nostr.GetPublicKey(cfg.PrivateKey)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: deriving public key: %v", ErrConfiguration, err)
	}
	return Identity{
		PrivateKey:       cfg.PrivateKey,
		PublicKey:        pubkey,
		Relays:           cfg.Relays,
		SupportedKinds:   cfg.JobKinds,
		DefaultModel:     defaultModel,
		MinPriceSats:     cfg.MinPriceSats,
		PricePer1kTokens: cfg.PricePer1kTokens,
	}, nil
}

// ResultKinds returns the result kind for each supported job kind.
func (id Identity) ResultKinds() []int {
	kinds := make([]int, len(id.SupportedKinds))
	for i, k := range id.SupportedKinds {
		kinds[i] = k + 1000
	}
	return kinds
}

// isOwnOutputKind reports whether kind is a result or feedback kind this
// identity could have authored.
func isOwnOutputKind(kind int) bool {
	return (kind >= models.JobResultKindMin && kind <= models.JobResultKindMax) ||
		kind == models.JobFeedbackKind
}
