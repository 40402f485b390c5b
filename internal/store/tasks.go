package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

const taskColumns = "id, title, description, status, priority, assignee_id, due_date, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	t := &model.Task{}
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.AssigneeID, &t.DueDate,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func validateTask(t *model.Task) error {
	switch {
	case t.Title == "":
		return invalidf("task title is required")
	case !slices.Contains(model.TaskStatuses, t.Status):
		return invalidf("unknown task status %q", t.Status)
	case !slices.Contains(model.TaskPriorities, t.Priority):
		return invalidf("unknown task priority %q", t.Priority)
	}
	return nil
}

// CreateTask stores a new task, defaulting to TODO with MEDIUM priority.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	if t.Status == "" {
		t.Status = model.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.TaskPriorityMedium
	}
	if err := validateTask(&t); err != nil {
		return nil, err
	}

	t.ID = newID(t.ID)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if t.AssigneeID != nil {
			if _, err := s.getUser(ctx, tx, *t.AssigneeID); err != nil {
				return err
			}
		}

		now := s.now()
		_, err := s.exec(ctx, tx, s.sb.Insert("tasks").
			Columns("id", "title", "description", "status", "priority", "assignee_id", "due_date", "created_at", "updated_at").
			Values(t.ID, t.Title, t.Description, t.Status, t.Priority, t.AssigneeID, t.DueDate, now, now))
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTask(ctx, t.ID)
}

// GetTask returns a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	Status     string
	AssigneeID string
}

// ListTasks returns tasks ordered by due date, undated tasks last.
func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	q := s.sb.Select(taskColumns).From("tasks").
		OrderBy("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END", "due_date", "created_at", "id")
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}
	if f.AssigneeID != "" {
		q = q.Where(sq.Eq{"assignee_id": f.AssigneeID})
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// TaskPatch holds the fields of a partial task update. Nil fields are left
// unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  *string
	DueDate     *time.Time
}

// UpdateTask applies a partial update to a task.
func (s *Store) UpdateTask(ctx context.Context, id string, p TaskPatch) (*model.Task, error) {
	cur, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		cur.Title = *p.Title
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.Status != nil {
		cur.Status = *p.Status
	}
	if p.Priority != nil {
		cur.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		if _, err := s.GetUser(ctx, *p.AssigneeID); err != nil {
			return nil, err
		}
		cur.AssigneeID = p.AssigneeID
	}
	if p.DueDate != nil {
		cur.DueDate = p.DueDate
	}
	if err := validateTask(cur); err != nil {
		return nil, err
	}

	res, err := s.exec(ctx, s.db, s.sb.Update("tasks").
		Set("title", cur.Title).
		Set("description", cur.Description).
		Set("status", cur.Status).
		Set("priority", cur.Priority).
		Set("assignee_id", cur.AssigneeID).
		Set("due_date", cur.DueDate).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}

	return s.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Delete("tasks").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("task %s: %w", id, err)
	}
	return nil
}
