// Package transfer implements plain balance transfers between addresses.
package transfer

import (
	"github.com/tidwall/gjson"

	"github.com/LeJamon/goLSKd/internal/core/schema"
	"github.com/LeJamon/goLSKd/internal/core/tx"
)

// Send handles type 0 transactions.
type Send struct{}

// NewSend returns the send handler.
func NewSend() *Send {
	return &Send{}
}

func (*Send) Type() tx.Type { return tx.TypeSend }

func (*Send) Schemas() []tx.AssetSchema {
	return []tx.AssetSchema{{Schema: schema.NameSend}}
}

func (*Send) Decode(gjson.Result) (tx.Asset, error) {
	return tx.SendAsset{}, nil
}

func (*Send) Preclaim(_ *tx.Context, view tx.LedgerView, t *tx.Transaction) error {
	if t.RecipientID == "" {
		return tx.Reject(tx.MsgInvalidRecipient)
	}
	if t.Amount == 0 {
		return tx.Reject(tx.MsgInvalidAmount)
	}
	if bal := view.Balance(t.SenderID); bal < t.Total() {
		return tx.InsufficientFunds(t.SenderID, bal)
	}
	return nil
}

func (*Send) LockKeys(ctx *tx.Context, t *tx.Transaction) []string {
	return []string{t.RecipientID, ctx.FeeSink}
}

func (*Send) Apply(ctx *tx.Context, c tx.Changes, t *tx.Transaction) error {
	if err := c.Debit(t.SenderID, t.Total()); err != nil {
		return err
	}
	if err := c.Credit(t.RecipientID, t.Amount); err != nil {
		return err
	}
	return tx.ChargeFee(ctx, c, t)
}
