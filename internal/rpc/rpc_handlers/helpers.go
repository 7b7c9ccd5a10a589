package rpc_handlers

import (
	"encoding/json"
	"strconv"

	"github.com/LeJamon/goLSKd/internal/core/schema"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// parseParams decodes the first params object into dst
func parseParams(params json.RawMessage, dst any) *rpc_types.RpcError {
	if params == nil {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

func requireAddress(address string) *rpc_types.RpcError {
	if address == "" {
		return rpc_types.RpcErrorInvalidParams("Missing required parameter: address")
	}
	if !schema.CheckFormat(schema.FormatAddress, address) {
		return rpc_types.RpcErrorActMalformed("Account malformed.")
	}
	return nil
}

func requireID(id string) *rpc_types.RpcError {
	if id == "" {
		return rpc_types.RpcErrorInvalidParams("Missing required parameter: id")
	}
	if !schema.CheckFormat(schema.FormatID, id) {
		return rpc_types.RpcErrorInvalidParams("Invalid id: " + id)
	}
	return nil
}

// amount renders a base unit amount both raw and in LSK
func amount(units uint64) map[string]any {
	return map[string]any{
		"units": strconv.FormatUint(units, 10),
		"lsk":   tx.FormatLSK(units),
	}
}
