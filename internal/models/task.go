package models

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Tasks reference their project without a database cascade; project deletion
// removes them explicitly.
type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status" gorm:"size:16;not null;default:PENDING"`
	DueDate     *Date      `json:"dueDate"`
	AssigneeID  uint       `json:"-" gorm:"not null;index"`
	Assignee    User       `json:"-" gorm:"foreignKey:AssigneeID;constraint:OnDelete:RESTRICT"`
	ProjectID   uint       `json:"-" gorm:"not null;index"`
	Project     Project    `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT"`
	AuditFields
}

func (Task) TableName() string {
	return "tasks"
}
