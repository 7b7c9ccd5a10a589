package tx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Asset is the type-specific payload of a transaction. The set of variants is
// closed: one per transaction type.
type Asset interface {
	// TxType returns the transaction type the asset belongs to.
	TxType() Type

	// Bytes returns the canonical encoding hashed into the transaction id.
	Bytes() []byte

	// wire returns the asset object as it appears on the wire.
	wire() map[string]any
}

// SendAsset is the empty asset of a plain transfer.
type SendAsset struct{}

func (SendAsset) TxType() Type { return TypeSend }

func (SendAsset) Bytes() []byte { return nil }

func (SendAsset) wire() map[string]any { return map[string]any{} }

// DappAsset describes an application being registered.
type DappAsset struct {
	Name        string
	Description string
	Tags        string
	Link        string
	Icon        string
	Category    uint32
	Type        uint32
}

func (DappAsset) TxType() Type { return TypeDapp }

func (a DappAsset) Bytes() []byte {
	buf := make([]byte, 0, len(a.Name)+len(a.Description)+len(a.Tags)+len(a.Link)+len(a.Icon)+8)
	buf = append(buf, a.Name...)
	buf = append(buf, a.Description...)
	buf = append(buf, a.Tags...)
	buf = append(buf, a.Link...)
	buf = append(buf, a.Icon...)
	buf = binary.LittleEndian.AppendUint32(buf, a.Type)
	buf = binary.LittleEndian.AppendUint32(buf, a.Category)
	return buf
}

func (a DappAsset) wire() map[string]any {
	d := map[string]any{
		"name":     a.Name,
		"category": a.Category,
		"type":     a.Type,
		"link":     a.Link,
	}
	if a.Description != "" {
		d["description"] = a.Description
	}
	if a.Tags != "" {
		d["tags"] = a.Tags
	}
	if a.Icon != "" {
		d["icon"] = a.Icon
	}
	return map[string]any{"dapp": d}
}

// InTransferAsset moves funds into an application.
type InTransferAsset struct {
	ApplicationID string
}

func (InTransferAsset) TxType() Type { return TypeInTransfer }

func (a InTransferAsset) Bytes() []byte { return []byte(a.ApplicationID) }

func (a InTransferAsset) wire() map[string]any {
	return map[string]any{"inTransfer": map[string]any{"dappId": a.ApplicationID}}
}

// OutTransferAsset moves funds out of an application.
//
// On the wire the application reference travels under "inTransfer" and the
// optional withdrawal reference under "outTransfer".
type OutTransferAsset struct {
	ApplicationID string

	// WithdrawalID identifies the in-application transaction being withdrawn.
	// Empty when the transfer carries no withdrawal reference.
	WithdrawalID string

	// WithdrawalApplicationID is the application named by the withdrawal
	// reference. It must match ApplicationID.
	WithdrawalApplicationID string
}

func (OutTransferAsset) TxType() Type { return TypeOutTransfer }

// HasWithdrawal reports whether the transfer carries a withdrawal reference.
func (a OutTransferAsset) HasWithdrawal() bool {
	return a.WithdrawalID != "" || a.WithdrawalApplicationID != ""
}

func (a OutTransferAsset) Bytes() []byte {
	buf := []byte(a.ApplicationID)
	if a.HasWithdrawal() {
		buf = append(buf, a.WithdrawalApplicationID...)
		buf = append(buf, a.WithdrawalID...)
	}
	return buf
}

func (a OutTransferAsset) wire() map[string]any {
	w := map[string]any{"inTransfer": map[string]any{"dappId": a.ApplicationID}}
	if a.HasWithdrawal() {
		w["outTransfer"] = map[string]any{
			"dappId":        a.WithdrawalApplicationID,
			"transactionId": a.WithdrawalID,
		}
	}
	return w
}

// MarshalAsset renders an asset in its wire shape.
func MarshalAsset(a Asset) ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.wire())
}

// AssetAs returns the asset of t as the variant T.
func AssetAs[T Asset](t *Transaction) (T, error) {
	a, ok := t.Asset.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s transaction %s carries %T asset", t.Type, t.ID, t.Asset)
	}
	return a, nil
}
