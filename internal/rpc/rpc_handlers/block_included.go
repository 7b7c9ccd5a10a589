package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/rpc/rpc_types"
)

// BlockIncludedMethod handles the block_included admin method. It delivers
// a block event: the listed transactions were included at height, and the
// chain tip moved to height.
type BlockIncludedMethod struct{}

func (m *BlockIncludedMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (any, *rpc_types.RpcError) {
	var request struct {
		Height       uint64   `json:"height"`
		Transactions []string `json:"transactions"`
	}
	if err := parseParams(params, &request); err != nil {
		return nil, err
	}
	if request.Height == 0 {
		return nil, rpc_types.RpcErrorInvalidParams("Missing required parameter: height")
	}

	blocks := ctx.Services.Blocks
	included := make([]string, 0, len(request.Transactions))
	unknown := make([]string, 0)
	for _, id := range request.Transactions {
		err := blocks.OnBlockIncluded(id, request.Height)
		switch {
		case err == nil:
			included = append(included, id)
		case errors.Is(err, confirm.ErrUnknownTransaction):
			unknown = append(unknown, id)
		default:
			return nil, rpc_types.RpcErrorInternal(err.Error())
		}
	}
	blocks.OnBlock(request.Height)

	return map[string]any{
		"height":   request.Height,
		"included": included,
		"unknown":  unknown,
	}, nil
}

func (m *BlockIncludedMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
