package model

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func (Category) TableName() string { return "categories" }
