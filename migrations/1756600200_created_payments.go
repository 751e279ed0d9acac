package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("payments")

		collection.Fields.Add(
			&core.TextField{Name: "order", Required: true},
			&core.NumberField{Name: "amount", Min: types.Pointer(0.0)},
			&core.TextField{Name: "method"},
			&core.TextField{Name: "transaction_id", Required: true},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "success", "failed", "refunded"},
			},
			&core.DateField{Name: "deleted"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// 1:1 with orders; transaction id is the idempotency key for
		// outcome delivery.
		collection.AddIndex("idx_payments_order_unique", true, "`order`", "")
		collection.AddIndex("idx_payments_transaction_unique", true, "transaction_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payments")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
