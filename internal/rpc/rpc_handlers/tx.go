package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

// TxMethod handles the tx RPC method. Live status comes first; stored
// history answers for transactions the node no longer tracks.
type TxMethod struct{}

func (m *TxMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	var request rpc_types.IDParam
	if err := parseParams(params, &request); err != nil {
		return nil, err
	}
	if err := requireID(request.ID); err != nil {
		return nil, err
	}

	svc := ctx.Services
	if info, ok := svc.Transactions.Status(request.ID); ok {
		result := map[string]any{
			"id":            info.ID,
			"status":        string(info.Status),
			"confirmations": info.Confirmations,
		}
		if info.BlockHeight > 0 {
			result["blockHeight"] = info.BlockHeight
		}
		if info.Message != "" {
			result["message"] = info.Message
		}
		return result, nil
	}

	if svc.History == nil {
		return nil, rpc_types.RpcErrorTxnNotFound("Transaction not found.")
	}
	record, err := svc.History.GetTransaction(ctx.Context, request.ID)
	if errors.Is(err, relationaldb.ErrTransactionNotFound) {
		return nil, rpc_types.RpcErrorTxnNotFound("Transaction not found.")
	}
	if err != nil {
		return nil, rpc_types.RpcErrorInternal("Failed to load transaction")
	}

	result := map[string]any{
		"id":          record.ID,
		"status":      record.Status,
		"transaction": record.Raw,
	}
	if record.BlockHeight > 0 {
		result["blockHeight"] = record.BlockHeight
	}
	return result, nil
}

func (m *TxMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
