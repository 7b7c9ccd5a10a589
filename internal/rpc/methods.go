package rpc

import (
	"github.com/LeJamon/goLSKd/internal/rpc/rpc_handlers"
)

// registerAllMethods registers every RPC method
func (s *Server) registerAllMethods() {
	// Server methods
	s.registry.Register("ping", &rpc_handlers.PingMethod{})
	s.registry.Register("server_info", &rpc_handlers.ServerInfoMethod{Version: s.config.Version})

	// Transaction methods
	s.registry.Register("submit", &rpc_handlers.SubmitMethod{})
	s.registry.Register("tx", &rpc_handlers.TxMethod{})

	// Account methods
	s.registry.Register("account_info", &rpc_handlers.AccountInfoMethod{})
	s.registry.Register("account_tx", &rpc_handlers.AccountTxMethod{})

	// Application methods
	s.registry.Register("dapp_info", &rpc_handlers.DappInfoMethod{})

	// Admin methods
	s.registry.Register("block_included", &rpc_handlers.BlockIncludedMethod{})
}
