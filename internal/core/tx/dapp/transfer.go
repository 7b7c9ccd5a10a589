package dapp

import (
	"github.com/tidwall/gjson"

	apps "github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/schema"
	"github.com/LeJamon/goLSKd/internal/core/tx"
)

// WithdrawalKey returns the marker recorded once a withdrawal reference has
// been paid out.
func WithdrawalKey(id string) string {
	return "withdrawal/" + id
}

func withdrawalLock(id string) string {
	return "withdrawal:" + id
}

// resolve returns the application a transfer refers to.
func resolve(registry *apps.Registry, id string) (apps.Application, error) {
	app, ok := registry.Get(id)
	if !ok {
		return apps.Application{}, tx.Reject("Application not found: %s", id)
	}
	return app, nil
}

// InTransfer handles type 6 transactions, moving funds from the sender into
// an application's pool.
type InTransfer struct {
	apps *apps.Registry
}

// NewInTransfer returns the inTransfer handler.
func NewInTransfer(registry *apps.Registry) *InTransfer {
	return &InTransfer{apps: registry}
}

func (*InTransfer) Type() tx.Type { return tx.TypeInTransfer }

func (*InTransfer) Schemas() []tx.AssetSchema {
	return []tx.AssetSchema{{Key: "inTransfer", Schema: schema.NameInTransfer}}
}

func (*InTransfer) Decode(asset gjson.Result) (tx.Asset, error) {
	return tx.InTransferAsset{ApplicationID: asset.Get("inTransfer.dappId").String()}, nil
}

func (h *InTransfer) Preclaim(_ *tx.Context, view tx.LedgerView, t *tx.Transaction) error {
	a, err := tx.AssetAs[tx.InTransferAsset](t)
	if err != nil {
		return err
	}
	if t.RecipientID != "" {
		return tx.Reject(tx.MsgInvalidRecipient)
	}
	if t.Amount == 0 {
		return tx.Reject(tx.MsgInvalidAmount)
	}
	if _, err := resolve(h.apps, a.ApplicationID); err != nil {
		return err
	}
	if bal := view.Balance(t.SenderID); bal < t.Total() {
		return tx.InsufficientFunds(t.SenderID, bal)
	}
	return nil
}

func (*InTransfer) LockKeys(ctx *tx.Context, t *tx.Transaction) []string {
	keys := []string{ctx.FeeSink}
	if a, ok := t.Asset.(tx.InTransferAsset); ok {
		keys = append(keys, apps.PoolAddress(a.ApplicationID))
	}
	return keys
}

func (*InTransfer) Apply(ctx *tx.Context, c tx.Changes, t *tx.Transaction) error {
	a, err := tx.AssetAs[tx.InTransferAsset](t)
	if err != nil {
		return err
	}
	if err := c.Debit(t.SenderID, t.Total()); err != nil {
		return err
	}
	if err := c.Credit(apps.PoolAddress(a.ApplicationID), t.Amount); err != nil {
		return err
	}
	return tx.ChargeFee(ctx, c, t)
}

// OutTransfer handles type 7 transactions, moving funds out of an
// application to the recipient, or to the application's pool when no
// recipient is given.
type OutTransfer struct {
	apps *apps.Registry
}

// NewOutTransfer returns the outTransfer handler.
func NewOutTransfer(registry *apps.Registry) *OutTransfer {
	return &OutTransfer{apps: registry}
}

func (*OutTransfer) Type() tx.Type { return tx.TypeOutTransfer }

func (*OutTransfer) Schemas() []tx.AssetSchema {
	return []tx.AssetSchema{
		{Key: "inTransfer", Schema: schema.NameInTransfer},
		{Key: "outTransfer", Schema: schema.NameOutTransfer, Optional: true},
	}
}

func (*OutTransfer) Decode(asset gjson.Result) (tx.Asset, error) {
	a := tx.OutTransferAsset{ApplicationID: asset.Get("inTransfer.dappId").String()}
	if out := asset.Get("outTransfer"); out.Exists() && out.Type != gjson.Null {
		a.WithdrawalApplicationID = out.Get("dappId").String()
		a.WithdrawalID = out.Get("transactionId").String()
	}
	return a, nil
}

func (h *OutTransfer) Preclaim(_ *tx.Context, view tx.LedgerView, t *tx.Transaction) error {
	a, err := tx.AssetAs[tx.OutTransferAsset](t)
	if err != nil {
		return err
	}
	if _, err := resolve(h.apps, a.ApplicationID); err != nil {
		return err
	}
	if a.HasWithdrawal() {
		if a.WithdrawalApplicationID != a.ApplicationID {
			return tx.Reject("Invalid outTransfer dappId")
		}
		if a.WithdrawalID == t.ID {
			return tx.Reject("Invalid outTransfer transactionId")
		}
		if view.Marked(WithdrawalKey(a.WithdrawalID)) {
			return tx.Reject("Transaction is already processed: %s", a.WithdrawalID)
		}
	}
	if bal := view.Balance(t.SenderID); bal < t.Total() {
		return tx.InsufficientFunds(t.SenderID, bal)
	}
	return nil
}

func destination(t *tx.Transaction, a tx.OutTransferAsset) string {
	if t.RecipientID != "" {
		return t.RecipientID
	}
	return apps.PoolAddress(a.ApplicationID)
}

func (*OutTransfer) LockKeys(ctx *tx.Context, t *tx.Transaction) []string {
	keys := []string{ctx.FeeSink}
	if a, ok := t.Asset.(tx.OutTransferAsset); ok {
		keys = append(keys, destination(t, a))
		if a.HasWithdrawal() {
			keys = append(keys, withdrawalLock(a.WithdrawalID))
		}
	}
	return keys
}

func (*OutTransfer) Apply(ctx *tx.Context, c tx.Changes, t *tx.Transaction) error {
	a, err := tx.AssetAs[tx.OutTransferAsset](t)
	if err != nil {
		return err
	}
	if err := c.Debit(t.SenderID, t.Total()); err != nil {
		return err
	}
	if err := c.Credit(destination(t, a), t.Amount); err != nil {
		return err
	}
	if a.HasWithdrawal() {
		c.Mark(WithdrawalKey(a.WithdrawalID))
	}
	return tx.ChargeFee(ctx, c, t)
}
