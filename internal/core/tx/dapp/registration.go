// Package dapp implements application registration and the transfers that
// move funds into and out of applications.
package dapp

import (
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	apps "github.com/LeJamon/goLSKd/internal/core/dapp"
	"github.com/LeJamon/goLSKd/internal/core/schema"
	"github.com/LeJamon/goLSKd/internal/core/tx"
)

var iconTypes = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Registration handles type 5 transactions.
type Registration struct {
	apps *apps.Registry
}

// NewRegistration returns the registration handler.
func NewRegistration(registry *apps.Registry) *Registration {
	return &Registration{apps: registry}
}

func (*Registration) Type() tx.Type { return tx.TypeDapp }

func (*Registration) Schemas() []tx.AssetSchema {
	return []tx.AssetSchema{{Key: "dapp", Schema: schema.NameDapp}}
}

func (*Registration) Decode(asset gjson.Result) (tx.Asset, error) {
	d := asset.Get("dapp")
	return tx.DappAsset{
		Name:        d.Get("name").String(),
		Description: d.Get("description").String(),
		Tags:        d.Get("tags").String(),
		Link:        d.Get("link").String(),
		Icon:        d.Get("icon").String(),
		Category:    uint32(d.Get("category").Uint()),
		Type:        uint32(d.Get("type").Uint()),
	}, nil
}

func (r *Registration) Preclaim(_ *tx.Context, view tx.LedgerView, t *tx.Transaction) error {
	a, err := tx.AssetAs[tx.DappAsset](t)
	if err != nil {
		return err
	}
	if t.RecipientID != "" {
		return tx.Reject(tx.MsgInvalidRecipient)
	}
	if t.Amount != 0 {
		return tx.Reject(tx.MsgInvalidAmount)
	}
	if strings.ToLower(path.Ext(a.Link)) != ".zip" {
		return tx.Reject("Invalid application link type")
	}
	if a.Icon != "" && !iconTypes[strings.ToLower(path.Ext(a.Icon))] {
		return tx.Reject("Invalid application icon file type")
	}
	if _, exists := r.apps.ByName(a.Name); exists {
		return tx.Reject("Application name already exists: %s", a.Name)
	}
	if _, exists := r.apps.ByLink(a.Link); exists {
		return tx.Reject("Application link already exists: %s", a.Link)
	}
	if bal := view.Balance(t.SenderID); bal < t.Total() {
		return tx.InsufficientFunds(t.SenderID, bal)
	}
	return nil
}

func (*Registration) LockKeys(ctx *tx.Context, t *tx.Transaction) []string {
	keys := []string{ctx.FeeSink}
	if a, ok := t.Asset.(tx.DappAsset); ok {
		keys = append(keys, "dapp-name:"+a.Name, "dapp-link:"+a.Link)
	}
	return keys
}

func (r *Registration) Apply(ctx *tx.Context, c tx.Changes, t *tx.Transaction) error {
	a, err := tx.AssetAs[tx.DappAsset](t)
	if err != nil {
		return err
	}
	if err := c.Debit(t.SenderID, t.Total()); err != nil {
		return err
	}
	if err := tx.ChargeFee(ctx, c, t); err != nil {
		return err
	}

	app := apps.Application{
		ID:          t.ID,
		Owner:       t.SenderID,
		Name:        a.Name,
		Description: a.Description,
		Tags:        a.Tags,
		Link:        a.Link,
		Icon:        a.Icon,
		Category:    a.Category,
		Type:        a.Type,
	}
	record, err := apps.EncodeRecord(app)
	if err != nil {
		return fmt.Errorf("encode application %s: %w", app.ID, err)
	}
	c.Put(apps.Key(app.ID), record)
	c.OnCommit(func() {
		if err := r.apps.Register(app); err != nil {
			ctx.Logger().WithError(err).WithFields(logrus.Fields{
				"dapp": app.ID,
				"name": app.Name,
			}).Error("Registered application rejected by index")
		}
	})
	return nil
}
