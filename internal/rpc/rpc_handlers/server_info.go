package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// ServerInfoMethod handles the server_info RPC method
type ServerInfoMethod struct {
	Version string
}

func (m *ServerInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	svc := ctx.Services
	return map[string]any{
		"info": map[string]any{
			"version":                m.Version,
			"height":                 svc.Blocks.Height(),
			"confirmation_threshold": svc.Blocks.Threshold(),
			"applications":           svc.Applications.Len(),
			"history":                svc.History != nil,
		},
	}, nil
}

func (m *ServerInfoMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
