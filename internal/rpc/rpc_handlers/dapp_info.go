package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// DappInfoMethod handles the dapp_info RPC method
type DappInfoMethod struct{}

func (m *DappInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	var request rpc_types.IDParam
	if err := parseParams(params, &request); err != nil {
		return nil, err
	}
	if err := requireID(request.ID); err != nil {
		return nil, err
	}

	svc := ctx.Services
	app, ok := svc.Applications.Get(request.ID)
	if !ok {
		return nil, rpc_types.RpcErrorObjectNotFound("Application not found: " + request.ID)
	}

	pool := dapp.PoolAddress(app.ID)
	return map[string]any{
		"dapp": app,
		"pool": map[string]any{
			"address": pool,
			"balance": amount(svc.Transactions.Account(pool).Balance),
		},
	}, nil
}

func (m *DappInfoMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
