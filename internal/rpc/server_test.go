package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
	jtx "github.com/LeJamon/goLSKd/internal/testing"
	"github.com/LeJamon/goLSKd/internal/testing/builders"
)

type fakeHistory struct {
	records map[string]relationaldb.TransactionRecord
}

func (h *fakeHistory) GetTransaction(_ context.Context, id string) (*relationaldb.TransactionRecord, error) {
	r, ok := h.records[id]
	if !ok {
		return nil, relationaldb.ErrTransactionNotFound
	}
	return &r, nil
}

func (h *fakeHistory) GetAccountTransactions(_ context.Context, address string, limit int) ([]relationaldb.TransactionRecord, error) {
	var out []relationaldb.TransactionRecord
	for _, r := range h.records {
		if (r.SenderID == address || r.RecipientID == address) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type fixture struct {
	env *jtx.TestEnv
	srv *httptest.Server
}

func newFixture(t *testing.T, cfg Config, history rpc_types.HistoryService) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	services := &rpc_types.ServiceContainer{
		Transactions: env.Processor,
		Applications: env.Apps,
		Blocks:       env.Tracker,
	}
	if history != nil {
		services.History = history
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	logger, _ := test.NewNullLogger()
	server := NewServer(cfg, services, prometheus.NewRegistry(), logger)

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &fixture{env: env, srv: srv}
}

// call posts a request and returns the result object
func (f *fixture) call(t *testing.T, method string, params any) map[string]any {
	t.Helper()
	request := map[string]any{"method": method}
	if params != nil {
		request["params"] = []any{params}
	}
	body, err := json.Marshal(request)
	require.NoError(t, err)

	resp, err := http.Post(f.srv.URL+"/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded.Result
}

func requireSuccess(t *testing.T, result map[string]any) {
	t.Helper()
	require.Equal(t, "success", result["status"], "unexpected error: %v", result["error_message"])
}

func requireError(t *testing.T, result map[string]any, code string) {
	t.Helper()
	require.Equal(t, "error", result["status"])
	require.Equal(t, code, result["error"])
}

func TestSubmitAndStatus(t *testing.T) {
	f := newFixture(t, Config{Admin: true}, nil)
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")
	f.env.Fund(alice, builders.LSK(10))

	result := f.call(t, "submit", map[string]any{
		"transaction": json.RawMessage(builders.Send(alice, bob, builders.LSK(1)).JSON()),
	})
	requireSuccess(t, result)
	require.Equal(t, true, result["success"])
	id, _ := result["transactionId"].(string)
	require.NotEmpty(t, id)

	result = f.call(t, "tx", map[string]any{"id": id})
	requireSuccess(t, result)
	assert.Equal(t, "pending", result["status"])

	result = f.call(t, "block_included", map[string]any{"height": 1, "transactions": []string{id, "1"}})
	requireSuccess(t, result)
	assert.Equal(t, []any{id}, result["included"])
	assert.Equal(t, []any{"1"}, result["unknown"])

	result = f.call(t, "tx", map[string]any{"id": id})
	assert.Equal(t, "confirmed", result["status"])
	assert.Equal(t, float64(1), result["blockHeight"])

	result = f.call(t, "account_info", map[string]any{"address": bob.Address})
	requireSuccess(t, result)
	balance := result["balance"].(map[string]any)
	assert.Equal(t, "100000000", balance["units"])
	assert.Equal(t, "1", balance["lsk"])

	result = f.call(t, "server_info", nil)
	info := result["info"].(map[string]any)
	assert.Equal(t, float64(1), info["height"])
	assert.Equal(t, false, info["history"])
}

func TestSubmitRejection(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")

	result := f.call(t, "submit", map[string]any{
		"transaction": json.RawMessage(builders.Send(alice, bob, builders.LSK(1)).JSON()),
	})
	requireSuccess(t, result)
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["message"], "Account does not have enough LSK")

	result = f.call(t, "submit", map[string]any{})
	requireError(t, result, "invalidParams")
}

func TestMethodErrors(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	tests := []struct {
		name   string
		method string
		params any
		want   string
	}{
		{"unknown method", "ledger_closed", nil, "unknownCmd"},
		{"malformed address", "account_info", map[string]any{"address": "abc"}, "actMalformed"},
		{"missing address", "account_info", map[string]any{}, "invalidParams"},
		{"unknown transaction", "tx", map[string]any{"id": "123"}, "txnNotFound"},
		{"unknown dapp", "dapp_info", map[string]any{"id": "123"}, "objectNotFound"},
		{"history off", "account_tx", map[string]any{"address": "1L"}, "notEnabled"},
		{"admin only", "block_included", map[string]any{"height": 1}, "commandUntrusted"},
		{"bad params", "tx", "nope", "invalidParams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, f.call(t, tt.method, tt.params), tt.want)
		})
	}
}

func TestMalformedRequests(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	post := func(body string) map[string]any {
		resp, err := http.Post(f.srv.URL+"/", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var decoded struct {
			Result map[string]any `json:"result"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		return decoded.Result
	}

	requireError(t, post("{"), "jsonInvalid")
	requireError(t, post(`{"params":[{}]}`), "missingCommand")
}

func TestDappInfo(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	owner := builders.NewAccount("owner")
	f.env.Fund(owner, builders.LSK(100))
	id := f.env.RegisterDapp(owner, "Pool")

	result := f.call(t, "dapp_info", map[string]any{"id": id})
	requireSuccess(t, result)
	app := result["dapp"].(map[string]any)
	assert.Equal(t, "Pool", app["name"])
	assert.Equal(t, owner.Address, app["owner"])
	pool := result["pool"].(map[string]any)
	assert.Equal(t, dapp.PoolAddress(id), pool["address"])
}

func TestHistoryFallback(t *testing.T) {
	history := &fakeHistory{records: map[string]relationaldb.TransactionRecord{
		"77": {
			ID:          "77",
			SenderID:    "1L",
			RecipientID: "2L",
			Status:      relationaldb.StatusConfirmed,
			BlockHeight: 9,
			Raw:         json.RawMessage(`{"id":"77"}`),
		},
	}}
	f := newFixture(t, Config{}, history)

	result := f.call(t, "tx", map[string]any{"id": "77"})
	requireSuccess(t, result)
	assert.Equal(t, relationaldb.StatusConfirmed, result["status"])
	assert.Equal(t, float64(9), result["blockHeight"])

	result = f.call(t, "account_tx", map[string]any{"address": "2L", "limit": 5})
	requireSuccess(t, result)
	require.Len(t, result["transactions"], 1)

	result = f.call(t, "account_tx", map[string]any{"address": "2L", "limit": -1})
	requireError(t, result, "invalidParams")
}

func TestSubmitRateLimit(t *testing.T) {
	f := newFixture(t, Config{SubmitRate: 0.001, SubmitBurst: 2}, nil)
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")

	for i := 0; i < 2; i++ {
		raw := builders.Send(alice, bob, builders.LSK(1)).Timestamp(int64(i + 1)).JSON()
		requireSuccess(t, f.call(t, "submit", map[string]any{"transaction": json.RawMessage(raw)}))
	}
	raw := builders.Send(alice, bob, builders.LSK(1)).Timestamp(3).JSON()
	requireError(t, f.call(t, "submit", map[string]any{"transaction": json.RawMessage(raw)}), "slowDown")

	// other methods are not limited
	requireSuccess(t, f.call(t, "ping", nil))
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("b"))

	now = now.Add(limiterIdle - time.Second)
	rl.Cleanup()
	assert.Equal(t, 1, rl.Len())
}

func TestHTTPRoutes(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	get := func(path string) (int, string) {
		resp, err := http.Get(f.srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"confirmation_threshold":1`)

	code, _ = get("/metrics")
	assert.Equal(t, http.StatusOK, code)

	code, body = get(fmt.Sprintf("/?command=%s", "nope"))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "unknownCmd")
}

func TestRegistryList(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewServer(Config{}, &rpc_types.ServiceContainer{}, nil, logger)
	assert.Equal(t, []string{
		"account_info", "account_tx", "block_included", "dapp_info",
		"ping", "server_info", "submit", "tx",
	}, s.Registry().List())
	assert.Nil(t, s.Limiter())
}

var _ rpc_types.BlockService = (*confirm.Tracker)(nil)
