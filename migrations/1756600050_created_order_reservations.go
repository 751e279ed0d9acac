package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("order_reservations")

		collection.Fields.Add(
			&core.TextField{Name: "user", Required: true},
			&core.TextField{Name: "ticket_type", Required: true},
			&core.NumberField{Name: "quantity", Required: true, Min: types.Pointer(1.0), OnlyInt: true},
			&core.NumberField{Name: "unit_price", Min: types.Pointer(0.0)},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"active", "completed", "expired", "cancelled"},
			},
			&core.DateField{Name: "expires_at", Required: true},
			&core.DateField{Name: "deleted"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// The reaper scans on (status, expires_at).
		collection.AddIndex("idx_order_reservations_status_expiry", false, "status, expires_at", "")
		collection.AddIndex("idx_order_reservations_ticket_type", false, "ticket_type", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("order_reservations")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
