package models

type Project struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description"`
	OwnerID     uint   `json:"-" gorm:"not null;index"`
	Owner       User   `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	AuditFields
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) OwnedBy(userID uint) bool {
	return p.OwnerID == userID
}
