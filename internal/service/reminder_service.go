package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"todo/internal/duedate"
	"todo/internal/model"
	"todo/internal/repository"
)

// Digest is a snapshot of open tasks bucketed by how close their due date is.
type Digest struct {
	Date    string
	Overdue []DigestItem
	Today   []DigestItem
	Soon    []DigestItem
	Later   int
	Undated int
}

// DigestItem is one task line in a digest. Days is negative for overdue tasks.
type DigestItem struct {
	Task model.TaskRow
	Days int
}

// Empty reports whether nothing is overdue, due today or due soon.
func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.Today) == 0 && len(d.Soon) == 0
}

// ReminderService builds human-readable summaries of what is due.
type ReminderService struct {
	taskRepo *repository.TaskRepository
}

func NewReminderService(taskRepo *repository.TaskRepository) *ReminderService {
	return &ReminderService{taskRepo: taskRepo}
}

// Digest buckets open tasks relative to now. Tasks due within soonDays days
// after today count as due soon.
func (s *ReminderService) Digest(ctx context.Context, now time.Time, soonDays int) (Digest, error) {
	tasks, err := s.taskRepo.List(ctx, repository.ListQuery{})
	if err != nil {
		return Digest{}, err
	}

	today := civil(now)
	digest := Digest{Date: today.Format(duedate.Layout)}

	for _, task := range tasks {
		if task.DueDate == nil {
			digest.Undated++
			continue
		}
		due, err := time.Parse(duedate.Layout, *task.DueDate)
		if err != nil {
			return Digest{}, fmt.Errorf("task %d has malformed due date %q: %w", task.ID, *task.DueDate, err)
		}
		days := int(due.Sub(today).Hours() / 24)
		item := DigestItem{Task: task, Days: days}
		switch {
		case days < 0:
			digest.Overdue = append(digest.Overdue, item)
		case days == 0:
			digest.Today = append(digest.Today, item)
		case days <= soonDays:
			digest.Soon = append(digest.Soon, item)
		default:
			digest.Later++
		}
	}

	return digest, nil
}

// Text renders the digest for a terminal.
func (d Digest) Text() string {
	return d.render(func(s string) string { return s }, func(s string) string { return s })
}

// HTML renders the digest with Telegram HTML markup.
func (d Digest) HTML() string {
	return d.render(html.EscapeString, func(s string) string { return "<b>" + s + "</b>" })
}

func (d Digest) render(escape, bold func(string) string) string {
	var builder strings.Builder
	builder.WriteString(bold("📋 Todo digest " + d.Date))
	builder.WriteByte('\n')

	if d.Empty() {
		builder.WriteString("Nothing due.\n")
	}

	section := func(title string, items []DigestItem) {
		if len(items) == 0 {
			return
		}
		builder.WriteString("\n" + bold(title) + "\n")
		for _, item := range items {
			builder.WriteString(formatItem(item, escape))
		}
	}
	section("⚠️ Overdue", d.Overdue)
	section("📅 Today", d.Today)
	section("⏳ Due soon", d.Soon)

	var rest []string
	if d.Later > 0 {
		rest = append(rest, fmt.Sprintf("%d later", d.Later))
	}
	if d.Undated > 0 {
		rest = append(rest, fmt.Sprintf("%d without due date", d.Undated))
	}
	if len(rest) > 0 {
		builder.WriteString("\n+ " + strings.Join(rest, ", ") + "\n")
	}

	return strings.TrimSpace(builder.String())
}

func formatItem(item DigestItem, escape func(string) string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#%d %s", item.Task.ID, escape(strings.TrimSpace(item.Task.Info))))

	if name := strings.TrimSpace(item.Task.CategoryName()); name != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", escape(name)))
	}

	switch {
	case item.Days < -1:
		sb.WriteString(fmt.Sprintf(" · due %s, %d days overdue", item.Task.Due(), -item.Days))
	case item.Days == -1:
		sb.WriteString(fmt.Sprintf(" · due %s, 1 day overdue", item.Task.Due()))
	case item.Days == 1:
		sb.WriteString(" · due tomorrow")
	case item.Days > 1:
		sb.WriteString(fmt.Sprintf(" · due %s, in %d days", item.Task.Due(), item.Days))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// civil drops the clock part of t, keeping its calendar day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
