package lease

import (
	"time"

	"rentcore/internal/domain/property"
)

type TenantMaterialized struct {
	TenantID   TenantID
	UserID     string
	PropertyID property.PropertyID
	RequestID  string
	LeaseStart time.Time
	At         time.Time
}

func (e TenantMaterialized) EventName() string     { return "lease.tenant_materialized" }
func (e TenantMaterialized) AggregateID() string   { return string(e.TenantID) }
func (e TenantMaterialized) OccurredAt() time.Time { return e.At }
