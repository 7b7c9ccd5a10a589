package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Names of the builtin schemas.
const (
	NameTransaction = "transaction"
	NameSend        = "send"
	NameDapp        = "dapp"
	NameInTransfer  = "inTransfer"
	NameOutTransfer = "outTransfer"
)

// MaxAmount bounds amount and fee values (10^8 LSK in base units).
const MaxAmount int64 = 10_000_000_000_000_000

// Registry maps schema names to schemas. It is populated once at startup and
// read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry builds a registry from the given schemas. Names must be unique.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if err := r.add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(s *Schema) error {
	if s == nil || s.Name == "" {
		return fmt.Errorf("schema without name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[s.Name]; exists {
		return fmt.Errorf("duplicate schema: %s", s.Name)
	}
	r.schemas[s.Name] = s
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered schema names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry holding the builtin schemas.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Builtin returns fresh copies of the builtin schemas.
func Builtin() []*Schema {
	return []*Schema{
		TransactionSchema(),
		SendSchema(),
		DappSchema(),
		InTransferSchema(),
		OutTransferSchema(),
	}
}

// TransactionSchema describes the common transaction envelope.
func TransactionSchema() *Schema {
	return &Schema{
		Name: NameTransaction,
		Properties: []Property{
			{Name: "id", Type: TypeString, Format: FormatID, MinLength: Int(1), MaxLength: Int(20)},
			{Name: "type", Type: TypeInteger, Minimum: Int64(0)},
			{Name: "timestamp", Type: TypeInteger},
			{Name: "senderPublicKey", Type: TypeString, Format: FormatPublicKey},
			{Name: "senderId", Type: TypeString, Format: FormatAddress, MinLength: Int(2), MaxLength: Int(22)},
			{Name: "recipientId", Type: TypeString, Format: FormatAddress, MinLength: Int(2), MaxLength: Int(22)},
			{Name: "amount", Type: TypeInteger, Minimum: Int64(0), Maximum: Int64(MaxAmount)},
			{Name: "fee", Type: TypeInteger, Minimum: Int64(0), Maximum: Int64(MaxAmount)},
			{Name: "signature", Type: TypeString, Format: FormatSignature},
			{Name: "asset", Type: TypeObject},
		},
		Required:             []string{"id", "type", "timestamp", "senderId", "amount", "fee", "asset"},
		AdditionalProperties: true,
	}
}

// SendSchema describes the asset of a plain transfer, which carries nothing.
func SendSchema() *Schema {
	return &Schema{Name: NameSend, AdditionalProperties: true}
}

// DappSchema describes asset.dapp of an application registration.
func DappSchema() *Schema {
	return &Schema{
		Name: NameDapp,
		Properties: []Property{
			{Name: "category", Type: TypeInteger, Minimum: Int64(0), Maximum: Int64(8)},
			{Name: "name", Type: TypeString, MinLength: Int(1), MaxLength: Int(32)},
			{Name: "description", Type: TypeString, MinLength: Int(0), MaxLength: Int(160)},
			{Name: "tags", Type: TypeString, MinLength: Int(0), MaxLength: Int(160)},
			{Name: "type", Type: TypeInteger, Minimum: Int64(0), Maximum: Int64(1)},
			{Name: "link", Type: TypeString, MinLength: Int(1), MaxLength: Int(2000)},
			{Name: "icon", Type: TypeString, MinLength: Int(0), MaxLength: Int(2000)},
		},
		Required: []string{"type", "name", "category", "link"},
	}
}

// InTransferSchema describes the application reference of a transfer into or
// out of an application.
func InTransferSchema() *Schema {
	return &Schema{
		Name: NameInTransfer,
		Properties: []Property{
			{Name: "dappId", Type: TypeString, Format: FormatID, MinLength: Int(1), MaxLength: Int(20)},
		},
		Required: []string{"dappId"},
	}
}

// OutTransferSchema describes the optional withdrawal reference of an
// outbound transfer.
func OutTransferSchema() *Schema {
	return &Schema{
		Name: NameOutTransfer,
		Properties: []Property{
			{Name: "dappId", Type: TypeString, Format: FormatID, MinLength: Int(1), MaxLength: Int(20)},
			{Name: "transactionId", Type: TypeString, Format: FormatID, MinLength: Int(1), MaxLength: Int(20)},
		},
		Required: []string{"dappId", "transactionId"},
	}
}
