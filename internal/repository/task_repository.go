package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo/internal/model"
)

// ListQuery selects which tasks a listing returns and how they are grouped.
type ListQuery struct {
	ByCategory  bool
	IncludeDone bool
}

// Order returns the ORDER BY terms for q. Undated tasks always follow dated
// ones inside each completion group; the category flag only groups within
// those blocks.
func (q ListQuery) Order() []string {
	var terms []string
	if q.IncludeDone {
		terms = append(terms, "tasks.done ASC")
	}
	terms = append(terms, "tasks.due_date IS NULL")
	if q.ByCategory {
		terms = append(terms, "categories.name IS NULL", "categories.name ASC")
	}
	return append(terms, "tasks.due_date ASC", "tasks.id ASC")
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", translate(err))
	}
	return nil
}

// List returns tasks joined with their category names in the order q selects.
func (r *TaskRepository) List(ctx context.Context, q ListQuery) ([]model.TaskRow, error) {
	db := r.db.WithContext(ctx).
		Table("tasks").
		Select("tasks.id, tasks.info, tasks.done, tasks.due_date, categories.name AS category").
		Joins("LEFT JOIN categories ON tasks.category = categories.id")
	if !q.IncludeDone {
		db = db.Where("tasks.done = ?", false)
	}
	for _, term := range q.Order() {
		db = db.Order(term)
	}

	var rows []model.TaskRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return rows, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *TaskRepository) SetDone(ctx context.Context, taskID uint, done bool) error {
	return r.update(ctx, taskID, "done", done)
}

// SetDueDate stores an already normalized due date; nil clears it.
func (r *TaskRepository) SetDueDate(ctx context.Context, taskID uint, dueDate *string) error {
	return r.update(ctx, taskID, "due_date", dueDate)
}

// SetCategory points the task at categoryID; nil makes it uncategorized.
func (r *TaskRepository) SetCategory(ctx context.Context, taskID uint, categoryID *uint) error {
	return r.update(ctx, taskID, "category", categoryID)
}

func (r *TaskRepository) SetInfo(ctx context.Context, taskID uint, info string) error {
	return r.update(ctx, taskID, "info", info)
}

// Delete removes a task permanently.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
	}
	return nil
}

func (r *TaskRepository) update(ctx context.Context, taskID uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update task %s: %w", column, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
	}
	return nil
}
