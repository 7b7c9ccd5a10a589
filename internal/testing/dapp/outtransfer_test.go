package dapp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/core/confirm"
	apps "github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	jtx "github.com/LeJamon/goLSKd/internal/testing"
	"github.com/LeJamon/goLSKd/internal/testing/builders"
)

const outTransferFee = 10_000_000

type fixture struct {
	env    *jtx.TestEnv
	author *builders.Account
	user   *builders.Account
	dappID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupWithConfig(t, jtx.EnvConfig{})
}

func setupWithConfig(t *testing.T, cfg jtx.EnvConfig) *fixture {
	t.Helper()
	env := jtx.NewTestEnvWithConfig(t, cfg)
	author := builders.NewAccount("author")
	user := builders.NewAccount("user")
	env.Fund(author, builders.LSK(1000))
	env.Fund(user, builders.LSK(100))
	dappID := env.RegisterDapp(author, "Guestbook")
	return &fixture{env: env, author: author, user: user, dappID: dappID}
}

func TestOutTransferSchema(t *testing.T) {
	f := setup(t)
	const inTransferBody = "Invalid transaction body - Failed to validate inTransfer schema: "

	tests := []struct {
		name  string
		path  string
		value any
		msg   string
	}{
		{"without dappId", "asset.inTransfer.dappId", nil, inTransferBody + "Missing required property: dappId"},
		{"integer dappId", "asset.inTransfer.dappId", 1, inTransferBody + "Expected type string but found type integer"},
		{"number dappId", "asset.inTransfer.dappId", 1.2, inTransferBody + "Expected type string but found type number"},
		{"empty array dappId", "asset.inTransfer.dappId", []any{}, inTransferBody + "Expected type string but found type array"},
		{"empty object dappId", "asset.inTransfer.dappId", map[string]any{}, inTransferBody + "Expected type string but found type object"},
		{"invalid dappId", "asset.inTransfer.dappId", "1L", inTransferBody + "Object didn't pass validation for format id: 1L"},
		{"without reference", "asset.inTransfer", nil, inTransferBody + "Expected type object but found type undefined"},
		{"negative amount", "amount", -1, "Invalid transaction body - Failed to validate transaction schema: Value -1 is less than minimum 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.env.Balance(f.user)
			raw := builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Mutate(tt.path, tt.value)
			jtx.RequireRejected(t, f.env.SubmitRaw(raw), tt.msg)
			jtx.RequireBalance(t, f.env, f.user, before)
		})
	}
}

func TestOutTransferWithdrawalSchema(t *testing.T) {
	f := setup(t)
	raw := builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).
		Withdrawal(f.dappID, "42").
		Mutate("asset.outTransfer.transactionId", 42)

	jtx.RequireRejected(t, f.env.SubmitRaw(raw),
		"Invalid transaction body - Failed to validate outTransfer schema: Expected type string but found type integer")
}

func TestOutTransferAmountOverBalance(t *testing.T) {
	f := setup(t)
	balance := f.env.Balance(f.user)

	resp := f.env.Submit(builders.OutTransfer(f.user, f.dappID, balance+1))
	jtx.RequireRejectedPrefix(t, resp, "Account does not have enough LSK: ")
	assert.Equal(t, "Account does not have enough LSK: "+f.user.Address+" balance: 100", resp.Message)
	jtx.RequireBalance(t, f.env, f.user, balance)
}

func TestOutTransferAmountOverBalanceResubmitted(t *testing.T) {
	f := setup(t)
	balance := f.env.Balance(f.user)
	b := builders.OutTransfer(f.user, f.dappID, balance+1)
	want := "Account does not have enough LSK: " + f.user.Address + " balance: 100"

	for attempt := 1; attempt <= 2; attempt++ {
		resp := f.env.SubmitRaw(b.JSON())
		jtx.RequireRejected(t, resp, want)
		jtx.RequireBalance(t, f.env, f.user, balance)

		info := f.env.Status(b.Build().ID)
		assert.Equal(t, confirm.StatusRejected, info.Status, "attempt %d", attempt)
		assert.Equal(t, want, info.Message, "attempt %d", attempt)
	}
}

func TestOutTransferUnknownApplication(t *testing.T) {
	f := setup(t)

	const invented = "1234567890123456789"
	jtx.RequireRejected(t, f.env.Submit(builders.OutTransfer(f.user, invented, builders.LSK(1))), "Application not found: "+invented)

	// The id of an unrelated transaction does not name an application.
	send := f.env.Submit(builders.Send(f.author, f.user, builders.LSK(1)))
	jtx.RequireAccepted(t, send)
	jtx.RequireRejected(t, f.env.Submit(builders.OutTransfer(f.user, send.TransactionID, builders.LSK(1))),
		"Application not found: "+send.TransactionID)
}

func TestOutTransferToRecipient(t *testing.T) {
	f := setup(t)
	recipient := builders.NewAccount("recipient")

	resp := f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Recipient(recipient.Address))
	jtx.RequireAccepted(t, resp)

	jtx.RequireBalance(t, f.env, f.user, builders.LSK(99)-outTransferFee)
	jtx.RequireBalance(t, f.env, recipient, builders.LSK(1))
	assert.Equal(t, uint64(0), f.env.BalanceOf(apps.PoolAddress(f.dappID)))
}

func TestOutTransferToPool(t *testing.T) {
	f := setup(t)

	jtx.RequireAccepted(t, f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(2))))
	assert.Equal(t, builders.LSK(2), f.env.BalanceOf(apps.PoolAddress(f.dappID)))
}

func TestOutTransferZeroAmount(t *testing.T) {
	f := setup(t)

	jtx.RequireAccepted(t, f.env.Submit(builders.OutTransfer(f.user, f.dappID, 0)))
	jtx.RequireBalance(t, f.env, f.user, builders.LSK(100)-outTransferFee)
}

func TestOutTransferFromAuthor(t *testing.T) {
	f := setup(t)
	balance := f.env.Balance(f.author)
	require.Equal(t, builders.LSK(975), balance)

	// Minimal funds: the fee cannot be covered on top of the amount.
	jtx.RequireRejectedPrefix(t, f.env.Submit(builders.OutTransfer(f.author, f.dappID, balance)), "Account does not have enough LSK: ")
	jtx.RequireBalance(t, f.env, f.author, balance)

	// Enough funds: owner and non-owner are treated alike.
	jtx.RequireAccepted(t, f.env.Submit(builders.OutTransfer(f.author, f.dappID, balance-outTransferFee)))
	jtx.RequireBalance(t, f.env, f.author, 0)
}

func TestOutTransferWithdrawal(t *testing.T) {
	f := setup(t)

	jtx.RequireAccepted(t, f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Withdrawal(f.dappID, "777")))

	jtx.RequireRejected(t, f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Withdrawal(f.dappID, "777")),
		"Transaction is already processed: 777")

	jtx.RequireRejected(t, f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Withdrawal("1", "778")),
		"Invalid outTransfer dappId")
}

func TestOutTransferWithdrawalRace(t *testing.T) {
	f := setup(t)
	other := builders.NewAccount("other")
	f.env.Fund(other, builders.LSK(100))

	raws := [][]byte{
		builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Withdrawal(f.dappID, "900").JSON(),
		builders.OutTransfer(other, f.dappID, builders.LSK(1)).Withdrawal(f.dappID, "900").JSON(),
	}

	responses := make([]bool, len(raws))
	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func(i int, raw []byte) {
			defer wg.Done()
			responses[i] = f.env.SubmitRaw(raw).Success
		}(i, raw)
	}
	wg.Wait()

	assert.ElementsMatch(t, []bool{true, false}, responses)
}

func TestOutTransferCommonRules(t *testing.T) {
	f := setup(t)

	jtx.RequireRejected(t, f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Fee(1)), tx.MsgInvalidFee)
	jtx.RequireRejected(t, f.env.SubmitRaw(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Mutate("id", "1")), tx.MsgInvalidID)
	jtx.RequireRejected(t, f.env.SubmitRaw(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)).Mutate("type", 3)), "Unknown transaction type 3")
	jtx.RequireBalance(t, f.env, f.user, builders.LSK(100))
}

func TestOutTransferConfirmation(t *testing.T) {
	f := setup(t)

	resp := f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)))
	jtx.RequireAccepted(t, resp)
	assert.Equal(t, confirm.StatusPending, f.env.Status(resp.TransactionID).Status)

	height := f.env.Close(resp.TransactionID)
	info := f.env.Status(resp.TransactionID)
	assert.Equal(t, confirm.StatusConfirmed, info.Status)
	assert.Equal(t, height, info.BlockHeight)

	rejected := f.env.Submit(builders.OutTransfer(f.user, "1", builders.LSK(1)))
	require.False(t, rejected.Success)
}

func TestOutTransferConfirmationDepth(t *testing.T) {
	f := setupWithConfig(t, jtx.EnvConfig{
		Confirm: confirm.Config{Threshold: 3, HistorySize: 100},
	})

	resp := f.env.Submit(builders.OutTransfer(f.user, f.dappID, builders.LSK(1)))
	jtx.RequireAccepted(t, resp)
	id := resp.TransactionID

	tests := []struct {
		name          string
		include       bool
		status        confirm.Status
		confirmations uint64
	}{
		{"included", true, confirm.StatusPending, 1},
		{"one block deep", false, confirm.StatusPending, 2},
		{"threshold reached", false, confirm.StatusConfirmed, 3},
		{"stays confirmed", false, confirm.StatusConfirmed, 4},
	}
	for _, tt := range tests {
		if tt.include {
			f.env.Close(id)
		} else {
			f.env.Close()
		}
		info := f.env.Status(id)
		assert.Equal(t, tt.status, info.Status, tt.name)
		assert.Equal(t, tt.confirmations, info.Confirmations, tt.name)
	}
	jtx.RequireBalance(t, f.env, f.user, builders.LSK(99)-outTransferFee)
}

func TestOutTransferConcurrentDoubleSpend(t *testing.T) {
	f := setup(t)
	spender := builders.NewAccount("spender")
	f.env.Fund(spender, builders.LSK(1)+builders.LSK(1)/2)

	raws := [][]byte{
		builders.OutTransfer(spender, f.dappID, builders.LSK(1)).JSON(),
		builders.OutTransfer(spender, f.dappID, builders.LSK(1)).JSON(),
	}

	var mu sync.Mutex
	var accepted, short int
	var wg sync.WaitGroup
	for _, raw := range raws {
		wg.Add(1)
		go func(raw []byte) {
			defer wg.Done()
			resp := f.env.SubmitRaw(raw)
			mu.Lock()
			defer mu.Unlock()
			if resp.Success {
				accepted++
				return
			}
			assert.Contains(t, resp.Message, "Account does not have enough LSK: ")
			short++
		}(raw)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, short)
	jtx.RequireBalance(t, f.env, spender, builders.LSK(1)/2-outTransferFee)
}

func TestOutTransferResubmission(t *testing.T) {
	f := setup(t)
	raw := builders.OutTransfer(f.user, f.dappID, builders.LSK(3)).JSON()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := f.env.SubmitRaw(raw)
			assert.True(t, resp.Success, resp.Message)
			ids[i] = resp.TransactionID
		}(i)
	}
	wg.Wait()

	resp := f.env.SubmitRaw(raw)
	jtx.RequireAccepted(t, resp)
	for _, id := range ids {
		assert.Equal(t, resp.TransactionID, id)
	}
	jtx.RequireBalance(t, f.env, f.user, builders.LSK(97)-outTransferFee)
	assert.Equal(t, builders.LSK(3), f.env.BalanceOf(apps.PoolAddress(f.dappID)))
}
