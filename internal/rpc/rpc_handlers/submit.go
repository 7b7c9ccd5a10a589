package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// SubmitMethod handles the submit RPC method. The transaction travels as
// the "transaction" member of the params object.
type SubmitMethod struct{}

func (m *SubmitMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	var request struct {
		Transaction json.RawMessage `json:"transaction"`
	}
	if err := parseParams(params, &request); err != nil {
		return nil, err
	}
	if len(request.Transaction) == 0 {
		return nil, rpc_types.RpcErrorInvalidParams("Missing required parameter: transaction")
	}

	resp := ctx.Services.Transactions.Submit(ctx.Context, request.Transaction)

	result := map[string]any{"success": resp.Success}
	if resp.TransactionID != "" {
		result["transactionId"] = resp.TransactionID
	}
	if resp.Message != "" {
		result["message"] = resp.Message
	}
	return result, nil
}

func (m *SubmitMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
