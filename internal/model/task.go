package model

// Task is a single to-do item as stored in the tasks table.
type Task struct {
	ID         uint `gorm:"primaryKey"`
	Info       string
	Done       bool
	DueDate    *string
	CategoryID *uint `gorm:"column:category"`
}

func (Task) TableName() string { return "tasks" }

// TaskRow is a task with its category name resolved, as returned by listings.
type TaskRow struct {
	ID       uint
	Info     string
	Done     bool
	DueDate  *string
	Category *string
}

// CategoryName returns the category or "" when the task is uncategorized.
func (r TaskRow) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}

// Due returns the due date or "" when none is set.
func (r TaskRow) Due() string {
	if r.DueDate == nil {
		return ""
	}
	return *r.DueDate
}
