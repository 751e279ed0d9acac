package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("orders")

		collection.Fields.Add(
			&core.TextField{Name: "user", Required: true},
			&core.TextField{Name: "reservation", Required: true},
			&core.NumberField{Name: "total_amount", Min: types.Pointer(0.0)},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "cancelled"},
			},
			&core.DateField{Name: "deleted"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// One order per hold; checkout retries return the existing order.
		collection.AddIndex("idx_orders_reservation_unique", true, "reservation", "")
		collection.AddIndex("idx_orders_user", false, "user", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
