package tx

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// Transaction is a decoded ledger transaction. It is treated as immutable once
// decoded or built.
type Transaction struct {
	ID              string
	Type            Type
	Timestamp       int64
	SenderPublicKey string
	SenderID        string
	RecipientID     string
	Amount          uint64
	Fee             uint64
	Signature       string
	Asset           Asset
}

// Total returns amount plus fee, the sum debited from the sender.
func (t *Transaction) Total() uint64 {
	return t.Amount + t.Fee
}

// Bytes returns the canonical encoding of the transaction, excluding its id.
func (t *Transaction) Bytes() []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, byte(t.Type))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.Timestamp))
	if pk, err := hex.DecodeString(t.SenderPublicKey); err == nil {
		buf = append(buf, pk...)
	}
	buf = append(buf, t.SenderID...)
	buf = append(buf, 0)
	buf = append(buf, t.RecipientID...)
	buf = append(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, t.Amount)
	buf = binary.LittleEndian.AppendUint64(buf, t.Fee)
	if t.Asset != nil {
		buf = append(buf, t.Asset.Bytes()...)
	}
	if sig, err := hex.DecodeString(t.Signature); err == nil {
		buf = append(buf, sig...)
	}
	return buf
}

// ComputeID derives the transaction id: the first eight bytes of the SHA-256
// of the canonical encoding, read little-endian, in decimal.
func ComputeID(t *Transaction) string {
	sum := sha256.Sum256(t.Bytes())
	return strconv.FormatUint(binary.LittleEndian.Uint64(sum[:8]), 10)
}

type wireTransaction struct {
	ID              string          `json:"id"`
	Type            Type            `json:"type"`
	Timestamp       int64           `json:"timestamp"`
	SenderPublicKey string          `json:"senderPublicKey,omitempty"`
	SenderID        string          `json:"senderId"`
	RecipientID     string          `json:"recipientId,omitempty"`
	Amount          uint64          `json:"amount"`
	Fee             uint64          `json:"fee"`
	Signature       string          `json:"signature,omitempty"`
	Asset           json.RawMessage `json:"asset"`
}

// MarshalJSON renders the transaction in its wire shape.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	asset, err := MarshalAsset(t.Asset)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireTransaction{
		ID:              t.ID,
		Type:            t.Type,
		Timestamp:       t.Timestamp,
		SenderPublicKey: t.SenderPublicKey,
		SenderID:        t.SenderID,
		RecipientID:     t.RecipientID,
		Amount:          t.Amount,
		Fee:             t.Fee,
		Signature:       t.Signature,
		Asset:           asset,
	})
}
