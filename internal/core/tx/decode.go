package tx

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/LeJamon/goLSKd/internal/core/schema"
)

// Decoder turns raw wire transactions into typed transactions. Validation is
// structural only: the envelope against the transaction schema, then each
// asset member against the schema its handler names.
type Decoder struct {
	validator *schema.Validator
	handlers  *Registry
}

// NewDecoder creates a decoder.
func NewDecoder(validator *schema.Validator, handlers *Registry) *Decoder {
	return &Decoder{validator: validator, handlers: handlers}
}

// Decode validates and decodes a raw transaction. Structural failures are
// returned as *StructuralError and unknown types as *SemanticError.
func (d *Decoder) Decode(raw []byte) (*Transaction, Handler, error) {
	res := d.validator.Validate(raw, schema.NameTransaction)
	if !res.Valid {
		return nil, nil, &StructuralError{Schema: schema.NameTransaction, Result: res}
	}
	doc := gjson.ParseBytes(raw)

	code := doc.Get("type").Uint()
	if code > math.MaxUint8 {
		return nil, nil, Reject("Unknown transaction type %d", code)
	}
	h, ok := d.handlers.Get(Type(code))
	if !ok {
		return nil, nil, Reject("Unknown transaction type %d", code)
	}

	asset := doc.Get("asset")
	for _, s := range h.Schemas() {
		value := asset
		if s.Key != "" {
			value = asset.Get(s.Key)
		}
		if s.Optional && (!value.Exists() || value.Type == gjson.Null) {
			continue
		}
		if res := d.validator.ValidateValue(value, s.Schema); !res.Valid {
			return nil, nil, &StructuralError{Schema: s.Schema, Result: res}
		}
	}

	decoded, err := h.Decode(asset)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s asset: %w", h.Type(), err)
	}

	return &Transaction{
		ID:              doc.Get("id").String(),
		Type:            Type(code),
		Timestamp:       doc.Get("timestamp").Int(),
		SenderPublicKey: doc.Get("senderPublicKey").String(),
		SenderID:        doc.Get("senderId").String(),
		RecipientID:     doc.Get("recipientId").String(),
		Amount:          doc.Get("amount").Uint(),
		Fee:             doc.Get("fee").Uint(),
		Signature:       doc.Get("signature").String(),
		Asset:           decoded,
	}, h, nil
}

// Handlers returns the handler table used by the decoder.
func (d *Decoder) Handlers() *Registry {
	return d.handlers
}
