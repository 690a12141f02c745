package dvm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OpenAgentsInc/commander-sub000/internal/crypto"
	"github.com/OpenAgentsInc/commander-sub000/internal/lightning"
	"github.com/OpenAgentsInc/commander-sub000/internal/relay"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
)

// Executor runs the per-job pipeline:
// decode → infer → price → invoice → publish.
// Each Run call is self-contained; the only shared resource across
// concurrently running jobs is the relay client.
type Executor struct {
	identity Identity
	relay    relay.Client
	cipher   crypto.Cipher
	provider models.InferenceProvider
	wallet   lightning.Client
	feedback *FeedbackPublisher
	logger   *slog.Logger
}

func NewExecutor(
	identity Identity,
	relayClient relay.Client,
	cipher crypto.Cipher,
	provider models.InferenceProvider,
	wallet lightning.Client,
	feedback *FeedbackPublisher,
	logger *slog.Logger,
) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		identity: identity,
		relay:    relayClient,
		cipher:   cipher,
		provider: provider,
		wallet:   wallet,
		feedback: feedback,
		logger:   logger,
	}
}

// Run executes one job request event through the full pipeline. On any
// failure it emits a best-effort Feedback(error) referencing the request,
// then returns the stage-typed error. Failed jobs are never retried.
func (e *Executor) Run(ctx context.Context, ev nostr.Event) error {
	runID := uuid.NewString()
	log := e.logger.With("run_id", runID, "request_id", ev.ID, "kind", ev.Kind)

	req, err := DecodeRequest(ev, e.identity, e.cipher)
	if err != nil {
		e.feedback.Publish(ctx, Feedback{
			RequestID:       ev.ID,
			RequesterPubkey: ev.PubKey,
			Status:          models.StatusError,
			Message:         err.Error(),
		})
		log.Warn("job failed", "stage", Stage(err), "error", err)
		return err
	}

	e.feedback.Publish(ctx, Feedback{
		RequestID:       req.ID,
		RequesterPubkey: req.RequesterPubkey,
		Status:          models.StatusProcessing,
	})

	params := e.mergeParams(req.Params)
	model := params["model"]
	if model == "" {
		model = e.identity.DefaultModel
	}

	textInput, _ := req.FirstTextInput()
	completion, err := e.provider.Complete(ctx, model, []models.ChatMessage{
		{Role: "user", Content: textInput.Value},
	})
	if err != nil {
		return e.fail(ctx, log, req, fmt.Errorf("%w: inference failed: %v", ErrProcessing, err))
	}

	tokens := int64(completion.Usage.TotalTokens)
	if tokens == 0 {
		tokens = EstimateTokens(textInput.Value, completion.Content)
	}
	priceSats := PriceSats(tokens, e.identity.MinPriceSats, e.identity.PricePer1kTokens)
	amountMillisats := priceSats * 1000

	invoice, err := e.wallet.CreateInvoice(ctx, priceSats, fmt.Sprintf("DVM job %s", shortID(req.ID)))
	if err != nil {
		return e.fail(ctx, log, req, fmt.Errorf("%w: creating invoice: %v", ErrPayment, err))
	}

	content := completion.Content
	if req.Encrypted {
		content, err = e.cipher.Encrypt(req.RequesterPubkey, completion.Content)
		if err != nil {
			return e.fail(ctx, log, req, fmt.Errorf("%w: encrypting result: %v", ErrProcessing, err))
		}
	}

	resultEv, err := buildResultEvent(e.identity, req, content, amountMillisats, invoice.Bolt11)
	if err != nil {
		return e.fail(ctx, log, req, err)
	}
	if err := e.relay.Publish(ctx, resultEv); err != nil {
		return e.fail(ctx, log, req, fmt.Errorf("%w: publishing result: %v", ErrConnection, err))
	}

	// Independent of the result publish; a failure here is swallowed.
	e.feedback.Publish(ctx, Feedback{
		RequestID:       req.ID,
		RequesterPubkey: req.RequesterPubkey,
		Status:          models.StatusSuccess,
		AmountMillisats: amountMillisats,
		Bolt11:          invoice.Bolt11,
	})

	log.Info("job completed",
		"result_id", resultEv.ID,
		"model", model,
		"tokens", tokens,
		"price_sats", priceSats,
		"encrypted", req.Encrypted,
	)
	return nil
}

// fail emits a best-effort error feedback and returns the typed error.
func (e *Executor) fail(ctx context.Context, log *slog.Logger, req models.JobRequest, err error) error {
	e.feedback.Publish(ctx, Feedback{
		RequestID:       req.ID,
		RequesterPubkey: req.RequesterPubkey,
		Status:          models.StatusError,
		Message:         err.Error(),
	})
	log.Warn("job failed", "stage", Stage(err), "error", err)
	return err
}

// mergeParams overlays request params on the identity defaults; the
// request wins.
func (e *Executor) mergeParams(reqParams map[string]string) map[string]string {
	merged := make(map[string]string, len(e.identity.DefaultParams)+len(reqParams))
	for k, v := range e.identity.DefaultParams {
		merged[k] = v
	}
	for k, v := range reqParams {
		merged[k] = v
	}
	return merged
}

// PriceSats prices a job from its token count:
// max(minPriceSats, ceil(tokens/1000 * pricePer1kTokens)).
func PriceSats(tokens, minPriceSats, pricePer1kTokens int64) int64 {
	price := (tokens*pricePer1kTokens + 999) / 1000
	if price < minPriceSats {
		price = minPriceSats
	}
	return price
}

// EstimateTokens approximates usage as ceil(len/4) per side when the
// provider reports none.
func EstimateTokens(prompt, output string) int64 {
	return ceilDiv(int64(len(prompt)), 4) + ceilDiv(int64(len(output)), 4)
}

func ceilDiv(n, d int64) int64 {
	return (n + d - 1) / d
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
