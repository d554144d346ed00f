// model/unit.go
package model

type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitMaintenance UnitStatus = "maintenance"
	UnitRetired     UnitStatus = "retired"
)

// Unit is one physical rentable instance of a product. Only units in status
// "available" are eligible for new reservations.
type Unit struct {
	ID        int64      `json:"id"`
	ProductID int64      `json:"product_id"`
	Name      string     `json:"name"`
	Status    UnitStatus `json:"status"`
}
