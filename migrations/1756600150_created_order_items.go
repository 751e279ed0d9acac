package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("order_items")

		collection.Fields.Add(
			&core.TextField{Name: "order", Required: true},
			&core.TextField{Name: "ticket_type", Required: true},
			&core.NumberField{Name: "quantity", Required: true, Min: types.Pointer(1.0), OnlyInt: true},
			&core.NumberField{Name: "unit_price", Min: types.Pointer(0.0)},
			&core.DateField{Name: "deleted"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// One row per distinct ticket type in an order.
		collection.AddIndex("idx_order_items_order_type_unique", true, "`order`, ticket_type", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("order_items")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
