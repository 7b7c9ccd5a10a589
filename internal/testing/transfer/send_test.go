// Package transfer contains integration tests for plain transfers.
package transfer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/processor"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/storage/database/pebble"
	jtx "github.com/LeJamon/goLSKd/internal/testing"
	"github.com/LeJamon/goLSKd/internal/testing/builders"
)

const sendFee = 10_000_000

func TestSend(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")
	env.Fund(alice, builders.LSK(10))

	jtx.RequireAccepted(t, env.Submit(builders.Send(alice, bob, builders.LSK(4))))
	jtx.RequireBalance(t, env, alice, builders.LSK(6)-sendFee)
	jtx.RequireBalance(t, env, bob, builders.LSK(4))
}

func TestSendRejections(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")
	env.Fund(alice, builders.LSK(10))

	tests := []struct {
		name string
		raw  []byte
		msg  string
	}{
		{"no recipient", builders.Send(alice, bob, 1).Recipient("").JSON(), tx.MsgInvalidRecipient},
		{"zero amount", builders.Send(alice, bob, 0).JSON(), tx.MsgInvalidAmount},
		{"over balance", builders.Send(alice, bob, builders.LSK(10)).JSON(), "Account does not have enough LSK: " + alice.Address + " balance: 10"},
		{"bad recipient", builders.Send(alice, bob, 1).Mutate("recipientId", "bob"),
			"Invalid transaction body - Failed to validate transaction schema: Object didn't pass validation for format address: bob"},
		{"not json", []byte(`{"id":`),
			"Invalid transaction body - Failed to validate transaction schema: Invalid JSON payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jtx.RequireRejected(t, env.SubmitRaw(tt.raw), tt.msg)
			jtx.RequireBalance(t, env, alice, builders.LSK(10))
		})
	}
}

func TestSendFeeSink(t *testing.T) {
	sink := builders.NewAccount("sink")
	env := jtx.NewTestEnvWithConfig(t, jtx.EnvConfig{
		Processor: processor.Config{FeeSink: sink.Address},
	})
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")
	env.Fund(alice, builders.LSK(10))

	jtx.RequireAccepted(t, env.Submit(builders.Send(alice, bob, builders.LSK(1))))
	jtx.RequireAccepted(t, env.Submit(builders.Send(bob, alice, builders.LSK(1)/2)))

	jtx.RequireBalance(t, env, sink, 2*sendFee)
	jtx.RequireBalance(t, env, bob, builders.LSK(1)/2-sendFee)
}

func TestSendOrderingPerSender(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := builders.NewAccount("alice")
	env.Fund(alice, builders.LSK(100))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := builders.NewAccount("peer" + string(rune('a'+i)))
			resp := env.Submit(builders.Send(alice, to, builders.LSK(1)))
			assert.True(t, resp.Success, resp.Message)
		}(i)
	}
	wg.Wait()

	jtx.RequireBalance(t, env, alice, builders.LSK(80)-20*sendFee)
}

func TestStatusLifecycle(t *testing.T) {
	env := jtx.NewTestEnvWithConfig(t, jtx.EnvConfig{
		Confirm: confirm.Config{Threshold: 3, HistorySize: 100},
	})
	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")
	env.Fund(alice, builders.LSK(10))

	resp := env.Submit(builders.Send(alice, bob, builders.LSK(1)))
	jtx.RequireAccepted(t, resp)
	id := resp.TransactionID

	assert.Equal(t, confirm.StatusPending, env.Status(id).Status)
	env.Close(id)
	assert.Equal(t, uint64(1), env.Status(id).Confirmations)
	env.Close()
	assert.Equal(t, confirm.StatusPending, env.Status(id).Status)
	env.Close()
	info := env.Status(id)
	assert.Equal(t, confirm.StatusConfirmed, info.Status)
	assert.Equal(t, uint64(3), info.Confirmations)

	rejected := builders.Send(alice, bob, builders.LSK(100))
	resp = env.Submit(rejected)
	require.False(t, resp.Success)
	info = env.Status(rejected.Build().ID)
	assert.Equal(t, confirm.StatusRejected, info.Status)
	assert.Equal(t, resp.Message, info.Message)

	_, ok := env.Processor.Status("404")
	assert.False(t, ok)
}

func TestStateSurvivesRestart(t *testing.T) {
	db, err := pebble.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	alice := builders.NewAccount("alice")
	bob := builders.NewAccount("bob")
	raw := builders.Send(alice, bob, builders.LSK(1)).JSON()

	env := jtx.NewTestEnvWithConfig(t, jtx.EnvConfig{DB: db})
	require.NoError(t, env.Accounts.Credit(context.Background(), alice.Address, builders.LSK(30)))
	sent := env.SubmitRaw(raw)
	jtx.RequireAccepted(t, sent)
	dappID := env.RegisterDapp(alice, "Persisted")

	restarted := jtx.NewTestEnvWithConfig(t, jtx.EnvConfig{DB: db})
	jtx.RequireBalance(t, restarted, bob, builders.LSK(1))
	jtx.RequireBalance(t, restarted, alice, builders.LSK(4)-sendFee)
	assert.True(t, restarted.Apps.Exists(dappID))

	// The applied marker survives, so a resubmission is not applied again.
	jtx.RequireAccepted(t, restarted.SubmitRaw(raw))
	jtx.RequireBalance(t, restarted, bob, builders.LSK(1))
	assert.Equal(t, confirm.StatusPending, restarted.Status(sent.TransactionID).Status)

	// Block events for a transaction applied before the restart still
	// confirm it, and the confirmation survives the next restart.
	restarted.Close(sent.TransactionID)
	assert.Equal(t, confirm.StatusConfirmed, restarted.Status(sent.TransactionID).Status)

	again := jtx.NewTestEnvWithConfig(t, jtx.EnvConfig{DB: db})
	assert.Equal(t, confirm.StatusConfirmed, again.Status(sent.TransactionID).Status)
	again.Close(sent.TransactionID)
	assert.Equal(t, confirm.StatusConfirmed, again.Status(sent.TransactionID).Status)
}
