package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

const (
	defaultAccountTxLimit = 50
	maxAccountTxLimit     = 500
)

// AccountTxMethod handles the account_tx RPC method. It needs transaction
// history.
type AccountTxMethod struct{}

func (m *AccountTxMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AddressParam
		Limit int `json:"limit,omitempty"`
	}
	if err := parseParams(params, &request); err != nil {
		return nil, err
	}
	if err := requireAddress(request.Address); err != nil {
		return nil, err
	}
	switch {
	case request.Limit == 0:
		request.Limit = defaultAccountTxLimit
	case request.Limit < 0:
		return nil, rpc_types.RpcErrorInvalidParams("Invalid field 'limit'.")
	case request.Limit > maxAccountTxLimit:
		request.Limit = maxAccountTxLimit
	}

	history := ctx.Services.History
	if history == nil {
		return nil, rpc_types.RpcErrorNotEnabled("Transaction history is not enabled.")
	}
	records, err := history.GetAccountTransactions(ctx.Context, request.Address, request.Limit)
	if err != nil {
		return nil, rpc_types.RpcErrorInternal("Failed to load account transactions")
	}

	transactions := make([]map[string]any, 0, len(records))
	for _, r := range records {
		entry := map[string]any{
			"id":          r.ID,
			"status":      r.Status,
			"transaction": r.Raw,
		}
		if r.BlockHeight > 0 {
			entry["blockHeight"] = r.BlockHeight
		}
		transactions = append(transactions, entry)
	}
	return map[string]any{
		"address":      request.Address,
		"limit":        request.Limit,
		"transactions": transactions,
	}, nil
}

func (m *AccountTxMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
