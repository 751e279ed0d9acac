package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("ticket_types")

		collection.Fields.Add(
			&core.TextField{Name: "event", Required: true},
			&core.TextField{Name: "name", Required: true},
			&core.NumberField{Name: "price", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "total_quantity", Required: true, Min: types.Pointer(0.0), OnlyInt: true},
			&core.NumberField{Name: "max_per_order", Min: types.Pointer(0.0), OnlyInt: true},
			&core.DateField{Name: "deleted"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ticket_types")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
