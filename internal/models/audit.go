package models

import "time"

// AuditFields is embedded into every persisted entity.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"-"`
	CreatedBy string    `json:"-" gorm:"size:255"`
	UpdatedBy string    `json:"-" gorm:"size:255"`
}

// Stamp records actor as the creator of a new row.
func (a *AuditFields) Stamp(actor string) {
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// Touch records actor as the last modifier.
func (a *AuditFields) Touch(actor string) {
	a.UpdatedBy = actor
}
