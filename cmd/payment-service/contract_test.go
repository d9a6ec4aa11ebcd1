//go:build contract

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractBaseURL() string {
	if v := os.Getenv("CONTRACT_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:6000"
}

var client = &http.Client{Timeout: 10 * time.Second}

func postCharge(t *testing.T, key string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, contractBaseURL()+"/v1/payments/charge", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestContractHealth(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := client.Get(contractBaseURL() + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestContractMissingKey(t *testing.T) {
	resp, body := postCharge(t, "", map[string]any{"order_id": "o", "amount": 10, "method": "card"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Idempotency-Key header required"}`, string(body))
}

func TestContractReplay(t *testing.T) {
	key := "contract-" + uuid.NewString()
	payload := map[string]any{"order_id": "contract-order", "amount": 10000.01, "method": "card"}

	first, firstBody := postCharge(t, key, payload)
	require.Equal(t, http.StatusOK, first.StatusCode, string(firstBody))
	assert.Equal(t, "false", first.Header.Get("Idempotency-Replayed"))

	var created struct {
		PaymentID json.Number `json:"payment_id"`
		Status    string      `json:"status"`
	}
	dec := json.NewDecoder(bytes.NewReader(firstBody))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&created))
	assert.Equal(t, "FAILED", created.Status)

	again, againBody := postCharge(t, key, payload)
	require.Equal(t, http.StatusOK, again.StatusCode)
	assert.Equal(t, "true", again.Header.Get("Idempotency-Replayed"))
	assert.Equal(t, firstBody, againBody)

	get, err := client.Get(fmt.Sprintf("%s/v1/payments/%s", contractBaseURL(), created.PaymentID))
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
}

func TestContractConcurrentSameKey(t *testing.T) {
	key := "contract-" + uuid.NewString()
	payload := map[string]any{"order_id": "contract-race", "amount": 25, "method": "card"}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	const n = 10
	bodies := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, contractBaseURL()+"/v1/payments/charge", bytes.NewReader(raw))
			req.Header.Set("Idempotency-Key", key)
			resp, err := client.Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs[i] = fmt.Errorf("status %d", resp.StatusCode)
				return
			}
			bodies[i], errs[i] = io.ReadAll(resp.Body)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, bodies[0], bodies[i])
	}
}
