package builders

import (
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/tidwall/sjson"

	"github.com/LeJamon/goLSKd/internal/core/tx"
)

var clock atomic.Int64

// TxBuilder builds a transaction of any supported type.
type TxBuilder struct {
	t tx.Transaction
}

func newBuilder(typ tx.Type, from *Account, amount uint64, asset tx.Asset) *TxBuilder {
	fee, _ := tx.DefaultFees().For(typ)
	return &TxBuilder{t: tx.Transaction{
		Type:            typ,
		Timestamp:       clock.Add(1),
		SenderPublicKey: from.PublicKey,
		SenderID:        from.Address,
		Amount:          amount,
		Fee:             fee,
		Asset:           asset,
	}}
}

// Send creates a plain transfer.
func Send(from, to *Account, amount uint64) *TxBuilder {
	b := newBuilder(tx.TypeSend, from, amount, tx.SendAsset{})
	b.t.RecipientID = to.Address
	return b
}

// RegisterDapp creates an application registration with a link derived from name.
func RegisterDapp(owner *Account, name string) *TxBuilder {
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	return newBuilder(tx.TypeDapp, owner, 0, tx.DappAsset{
		Name:        name,
		Description: "A test application",
		Tags:        "test",
		Link:        "https://example.com/" + slug + "/archive/master.zip",
	})
}

// InTransfer creates a transfer into an application.
func InTransfer(from *Account, dappID string, amount uint64) *TxBuilder {
	return newBuilder(tx.TypeInTransfer, from, amount, tx.InTransferAsset{ApplicationID: dappID})
}

// OutTransfer creates a transfer out of an application.
func OutTransfer(from *Account, dappID string, amount uint64) *TxBuilder {
	return newBuilder(tx.TypeOutTransfer, from, amount, tx.OutTransferAsset{ApplicationID: dappID})
}

// Fee sets the transaction fee in base units.
func (b *TxBuilder) Fee(fee uint64) *TxBuilder {
	b.t.Fee = fee
	return b
}

// Amount sets the amount in base units.
func (b *TxBuilder) Amount(amount uint64) *TxBuilder {
	b.t.Amount = amount
	return b
}

// Recipient sets the recipient address.
func (b *TxBuilder) Recipient(address string) *TxBuilder {
	b.t.RecipientID = address
	return b
}

// Timestamp sets the timestamp.
func (b *TxBuilder) Timestamp(ts int64) *TxBuilder {
	b.t.Timestamp = ts
	return b
}

// Link sets the link of an application registration.
func (b *TxBuilder) Link(link string) *TxBuilder {
	if a, ok := b.t.Asset.(tx.DappAsset); ok {
		a.Link = link
		b.t.Asset = a
	}
	return b
}

// Name sets the name of an application registration.
func (b *TxBuilder) Name(name string) *TxBuilder {
	if a, ok := b.t.Asset.(tx.DappAsset); ok {
		a.Name = name
		b.t.Asset = a
	}
	return b
}

// Icon sets the icon of an application registration.
func (b *TxBuilder) Icon(icon string) *TxBuilder {
	if a, ok := b.t.Asset.(tx.DappAsset); ok {
		a.Icon = icon
		b.t.Asset = a
	}
	return b
}

// Withdrawal sets the withdrawal reference of an outbound transfer.
func (b *TxBuilder) Withdrawal(dappID, transactionID string) *TxBuilder {
	if a, ok := b.t.Asset.(tx.OutTransferAsset); ok {
		a.WithdrawalApplicationID = dappID
		a.WithdrawalID = transactionID
		b.t.Asset = a
	}
	return b
}

// Build returns the transaction with its id computed.
func (b *TxBuilder) Build() *tx.Transaction {
	t := b.t
	t.ID = tx.ComputeID(&t)
	return &t
}

// JSON returns the built transaction in wire form.
func (b *TxBuilder) JSON() []byte {
	raw, err := json.Marshal(b.Build())
	if err != nil {
		panic(err)
	}
	return raw
}

// Mutate returns the wire form with the value at path replaced. A nil value
// deletes the path.
func (b *TxBuilder) Mutate(path string, value any) []byte {
	var (
		raw []byte
		err error
	)
	if value == nil {
		raw, err = sjson.DeleteBytes(b.JSON(), path)
	} else {
		raw, err = sjson.SetBytes(b.JSON(), path, value)
	}
	if err != nil {
		panic(err)
	}
	return raw
}
