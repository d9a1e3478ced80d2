package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todo/internal/duedate"
	"todo/internal/model"
	"todo/internal/repository"
)

// ErrEmptyPatch is returned by Edit when the patch changes nothing.
var ErrEmptyPatch = errors.New("nothing to edit: pass at least one change or remove")

// AddInput represents data required to create a task. Nil pointers mean the
// value was not supplied.
type AddInput struct {
	Info     string
	Category *string
	DueDate  *string
}

// Patch lists the changes Edit applies to one task. Fields are applied in
// declaration order and Remove runs last.
type Patch struct {
	Finish   *bool
	DueDate  *string
	Category *string // blank makes the task uncategorized
	Info     *string
	Remove   bool
}

// Empty reports whether p would leave the task untouched.
func (p Patch) Empty() bool {
	return p.Finish == nil && p.DueDate == nil && p.Category == nil && p.Info == nil && !p.Remove
}

// ListOptions selects the listing variant.
type ListOptions struct {
	ByCategory  bool
	IncludeDone bool
}

// TaskService wraps task-related business logic.
type TaskService struct {
	db    *gorm.DB
	tasks *repository.TaskRepository
	now   func() time.Time
}

// NewTaskService builds the service. now supplies "today" for due date
// normalization; nil means time.Now.
func NewTaskService(db *gorm.DB, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{db: db, tasks: repository.NewTaskRepository(db), now: now}
}

// Add normalizes the due date, resolves the category by name (creating it
// when absent) and inserts the task, all or nothing.
func (s *TaskService) Add(ctx context.Context, input AddInput) (*model.Task, error) {
	task := model.Task{Info: input.Info}

	if input.DueDate != nil {
		due, err := duedate.Normalize(*input.DueDate, s.now())
		if err != nil {
			return nil, fmt.Errorf("due date: %w", err)
		}
		task.DueDate = &due
	}

	err := repository.Transact(ctx, s.db, func(tasks *repository.TaskRepository, categories *repository.CategoryRepository) error {
		if input.Category != nil {
			category, err := categories.GetOrCreate(ctx, *input.Category)
			if err != nil {
				return err
			}
			if category != nil {
				task.CategoryID = &category.ID
			}
		}
		return tasks.Create(ctx, &task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, opts ListOptions) ([]model.TaskRow, error) {
	return s.tasks.List(ctx, repository.ListQuery{
		ByCategory:  opts.ByCategory,
		IncludeDone: opts.IncludeDone,
	})
}

// Edit applies patch to the task with the given id inside one transaction.
// The first failing change aborts the edit and nothing is written.
func (s *TaskService) Edit(ctx context.Context, taskID uint, patch Patch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}

	return repository.Transact(ctx, s.db, func(tasks *repository.TaskRepository, categories *repository.CategoryRepository) error {
		if _, err := tasks.FindByID(ctx, taskID); err != nil {
			return err
		}

		if patch.Finish != nil {
			if err := tasks.SetDone(ctx, taskID, *patch.Finish); err != nil {
				return err
			}
		}

		if patch.DueDate != nil {
			due, err := duedate.Normalize(*patch.DueDate, s.now())
			if err != nil {
				return fmt.Errorf("due date: %w", err)
			}
			if err := tasks.SetDueDate(ctx, taskID, &due); err != nil {
				return err
			}
		}

		if patch.Category != nil {
			category, err := categories.GetOrCreate(ctx, *patch.Category)
			if err != nil {
				return err
			}
			var categoryID *uint
			if category != nil {
				categoryID = &category.ID
			}
			if err := tasks.SetCategory(ctx, taskID, categoryID); err != nil {
				return err
			}
		}

		if patch.Info != nil {
			if err := tasks.SetInfo(ctx, taskID, *patch.Info); err != nil {
				return err
			}
		}

		if patch.Remove {
			return tasks.Delete(ctx, taskID)
		}
		return nil
	})
}
