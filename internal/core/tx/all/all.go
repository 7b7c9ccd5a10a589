// Package all assembles the handlers of every supported transaction type.
package all

import (
	apps "github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/core/tx/dapp"
	"github.com/LeJamon/goLSKd/internal/core/tx/transfer"
)

// Handlers returns one handler per supported transaction type.
func Handlers(registry *apps.Registry) []tx.Handler {
	return []tx.Handler{
		transfer.NewSend(),
		dapp.NewRegistration(registry),
		dapp.NewInTransfer(registry),
		dapp.NewOutTransfer(registry),
	}
}

// Registry returns the handler table of every supported transaction type.
func Registry(registry *apps.Registry) *tx.Registry {
	r, err := tx.NewRegistry(Handlers(registry)...)
	if err != nil {
		panic(err)
	}
	return r
}
