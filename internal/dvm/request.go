package dvm

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/OpenAgentsInc/commander-sub000/internal/crypto"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/nbd-wtf/go-nostr"
)

// DecodeRequest turns a raw request event into a structured, validated job.
// Encrypted requests carry a NIP-04 ciphertext JSON array of tag entries in
// the event content instead of plaintext tags.
func DecodeRequest(ev nostr.Event, id Identity, cipher crypto.Cipher) (models.JobRequest, error) {
	req := models.JobRequest{
		ID:              ev.ID,
		RequesterPubkey: ev.PubKey,
		Kind:            ev.Kind,
		Params:          map[string]string{},
		OutputMime:      models.DefaultOutputMime,
	}

	var entries [][]string
	if ev.Tags.GetFirst([]string{"encrypted"}) != nil {
		req.Encrypted = true

		plaintext, err := cipher.Decrypt(ev.PubKey, ev.Content)
		if err != nil {
			return models.JobRequest{}, fmt.Errorf("%w: decrypting request payload: %v", ErrRequest, err)
		}
		if err := json.Unmarshal([]byte(plaintext), &entries); err != nil {
			return models.JobRequest{}, fmt.Errorf("%w: parsing decrypted request payload: %v", ErrRequest, err)
		}
	} else {
		for _, tag := range ev.Tags {
			entries = append(entries, []string(tag))
		}
	}

	for _, entry := range entries {
		if len(entry) == 0 {
			continue
		}
		switch entry[0] {
		case "i":
			if len(entry) < 3 {
				continue
			}
			input := models.JobInput{Value: entry[1], Type: entry[2]}
			if len(entry) > 3 {
				input.Relay = entry[3]
			}
			if len(entry) > 4 {
				input.Marker = entry[4]
			}
			req.Inputs = append(req.Inputs, input)
		case "param":
			if len(entry) < 3 {
				continue
			}
			req.Params[entry[1]] = entry[2]
		case "output":
			if len(entry) > 1 && entry[1] != "" {
				req.OutputMime = entry[1]
			}
		case "bid":
			if len(entry) > 1 {
				if msats, err := strconv.ParseInt(entry[1], 10, 64); err == nil {
					req.BidMillisats = msats
				}
			}
		}
	}

	if len(req.Inputs) == 0 {
		return models.JobRequest{}, fmt.Errorf("%w: No inputs provided", ErrRequest)
	}
	if _, ok := req.FirstTextInput(); !ok {
		return models.JobRequest{}, fmt.Errorf("%w: No text input found", ErrRequest)
	}

	return req, nil
}
