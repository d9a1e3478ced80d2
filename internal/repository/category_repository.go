package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo/internal/model"
)

// CategorySummary is a category with the number of tasks still open in it.
type CategorySummary struct {
	ID        uint
	Name      string
	OpenTasks int
}

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate returns the category called name, inserting it first when absent.
// A blank name yields a nil category.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	insert := model.Category{Name: name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&insert).Error
	if err != nil {
		return nil, fmt.Errorf("create category: %w", translate(err))
	}

	category, err := r.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("category %q vanished after insert", name)
	}
	return category, nil
}

// FindByName returns the category called name, or nil when none exists.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&category).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
}

// ListWithCounts returns every category ordered by name with its open task count.
func (r *CategoryRepository) ListWithCounts(ctx context.Context) ([]CategorySummary, error) {
	var summaries []CategorySummary
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("categories.id, categories.name, COUNT(tasks.id) AS open_tasks").
		Joins("LEFT JOIN tasks ON tasks.category = categories.id AND tasks.done = ?", false).
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return summaries, nil
}

// Count returns the number of stored categories.
func (r *CategoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
