package rpc_types

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/LeJamon/goLSKd/internal/core/account"
	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/processor"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleAdmin
)

// RPC Context contains request-specific information
type RpcContext struct {
	Context  context.Context
	Role     Role
	ClientIP string
	Services *ServiceContainer
}

// Method handler interface - all RPC methods implement this
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (any, *RpcError)
	RequiredRole() Role
}

// Method registry for dynamic method registration
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in order
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// TransactionService accepts transactions and reports their status
type TransactionService interface {
	Submit(ctx context.Context, raw []byte) processor.Response
	Status(id string) (confirm.Info, bool)
	Account(address string) account.Account
}

// ApplicationService looks up registered applications
type ApplicationService interface {
	Get(id string) (dapp.Application, bool)
	Len() int
}

// BlockService receives block events
type BlockService interface {
	OnBlockIncluded(id string, height uint64) error
	OnBlock(height uint64)
	Height() uint64
	Threshold() uint64
}

// HistoryService queries stored transaction history
type HistoryService interface {
	GetTransaction(ctx context.Context, id string) (*relationaldb.TransactionRecord, error)
	GetAccountTransactions(ctx context.Context, address string, limit int) ([]relationaldb.TransactionRecord, error)
}

// ServiceContainer holds the services methods operate on. History is nil
// when it is not configured.
type ServiceContainer struct {
	Transactions TransactionService
	Applications ApplicationService
	Blocks       BlockService
	History      HistoryService
}

// Common parameter structures used across multiple methods

// AddressParam names an account
type AddressParam struct {
	Address string `json:"address"`
}

// IDParam names a transaction or application
type IDParam struct {
	ID string `json:"id"`
}
