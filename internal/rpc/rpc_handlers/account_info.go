package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// AccountInfoMethod handles the account_info RPC method
type AccountInfoMethod struct{}

func (m *AccountInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	var request rpc_types.AddressParam
	if err := parseParams(params, &request); err != nil {
		return nil, err
	}
	if err := requireAddress(request.Address); err != nil {
		return nil, err
	}

	acc := ctx.Services.Transactions.Account(request.Address)
	return map[string]any{
		"address": acc.Address,
		"balance": amount(acc.Balance),
	}, nil
}

func (m *AccountInfoMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
