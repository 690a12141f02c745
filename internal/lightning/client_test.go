package lightning_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OpenAgentsInc/commander-sub000/internal/lightning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/invoices", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(25), req["amount_sats"])
		assert.Contains(t, req["memo"], "DVM job")

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"bolt11":       "lnbc250n1fake",
			"payment_hash": "deadbeef",
		})
	}))
	defer srv.Close()

	c := lightning.NewHTTPClient(srv.URL, "secret", 5*time.Second)

	inv, err := c.CreateInvoice(context.Background(), 25, "DVM job abc12345")
	require.NoError(t, err)
	assert.Equal(t, "lnbc250n1fake", inv.Bolt11)
	assert.Equal(t, "deadbeef", inv.PaymentHash)
}

func TestCreateInvoice_WalletError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := lightning.NewHTTPClient(srv.URL, "", 5*time.Second)

	_, err := c.CreateInvoice(context.Background(), 25, "memo")
	require.ErrorIs(t, err, lightning.ErrWalletError)
}

func TestCreateInvoice_EmptyBolt11(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"bolt11": ""})
	}))
	defer srv.Close()

	c := lightning.NewHTTPClient(srv.URL, "", 5*time.Second)

	_, err := c.CreateInvoice(context.Background(), 25, "memo")
	require.ErrorIs(t, err, lightning.ErrWalletError)
}

func TestCheckInvoiceStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices/status", r.URL.Path)
		assert.Equal(t, "lnbc250n1fake", r.URL.Query().Get("bolt11"))

		json.NewEncoder(w).Encode(map[string]any{
			"status":                "paid",
			"amount_paid_millisats": 25000,
		})
	}))
	defer srv.Close()

	c := lightning.NewHTTPClient(srv.URL, "", 5*time.Second)

	status, err := c.CheckInvoiceStatus(context.Background(), "lnbc250n1fake")
	require.NoError(t, err)
	assert.Equal(t, lightning.StatusPaid, status.Status)
	assert.Equal(t, int64(25000), status.AmountPaidMillisats)
}

func TestCheckInvoiceStatus_UnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "limbo"})
	}))
	defer srv.Close()

	c := lightning.NewHTTPClient(srv.URL, "", 5*time.Second)

	_, err := c.CheckInvoiceStatus(context.Background(), "lnbc250n1fake")
	require.ErrorIs(t, err, lightning.ErrWalletError)
}

func TestCheckInvoiceStatus_Unreachable(t *testing.T) {
	c := lightning.NewHTTPClient("http://127.0.0.1:1", "", time.Second)

	_, err := c.CheckInvoiceStatus(context.Background(), "lnbc250n1fake")
	require.Error(t, err)
}
