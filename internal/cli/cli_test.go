package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"todo/internal/duedate"
	"todo/internal/repository"
	"todo/internal/service"
)

type env struct {
	t      *testing.T
	dir    string
	db     string
	config string
}

// newEnv isolates config lookup and the database under a temporary directory.
func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return &env{t: t, dir: dir, db: filepath.Join(dir, "todo.db")}
}

func (e *env) run(args ...string) (string, error) {
	e.t.Helper()
	root := NewRootCommand("test", func() time.Time {
		return time.Date(2025, time.September, 11, 9, 30, 0, 0, time.Local)
	})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)

	full := []string{"--db", e.db}
	if e.config != "" {
		full = append(full, "--config", e.config)
	}
	root.SetArgs(append(full, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("todo %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// taskLines returns the data lines of a task table, split into columns.
func taskLines(out string) [][]string {
	var rows [][]string
	for i, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if i == 0 {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func TestAddAndList(t *testing.T) {
	e := newEnv(t)

	if out := e.mustRun("add", "write report", "-c", "work", "-d", "12/25"); out != "Added task #1 due 2025-12-25\n" {
		t.Fatalf("add output = %q", out)
	}
	if out := e.mustRun("add", "buy milk", "--due-date", " 15 "); out != "Added task #2 due 2025-09-15\n" {
		t.Fatalf("add output = %q", out)
	}
	if out := e.mustRun("add", "read book"); out != "Added task #3\n" {
		t.Fatalf("add output = %q", out)
	}

	out := e.mustRun("list")
	if !strings.HasPrefix(out, "ID") {
		t.Fatalf("missing header in %q", out)
	}
	want := [][]string{
		{"2", "[", "]", "2025-09-15", "-", "buy", "milk"},
		{"1", "[", "]", "2025-12-25", "work", "write", "report"},
		{"3", "[", "]", "-", "-", "read", "book"},
	}
	if got := taskLines(out); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("list rows = %v, want %v", got, want)
	}

	out = e.mustRun("list", "--category")
	if got := taskLines(out); got[0][0] != "1" || got[2][0] != "3" {
		t.Fatalf("list -c rows = %v", got)
	}
}

func TestListEmpty(t *testing.T) {
	e := newEnv(t)
	if out := e.mustRun("list"); out != "No tasks.\n" {
		t.Fatalf("list output = %q", out)
	}
	if out := e.mustRun("categories"); out != "No categories.\n" {
		t.Fatalf("categories output = %q", out)
	}
}

func TestEdit(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "draft", "-c", "work")
	e.mustRun("add", "other")

	if out := e.mustRun("edit", "1", "-f", "true", "-d", "20", "-i", "final"); out != "Updated task #1\n" {
		t.Fatalf("edit output = %q", out)
	}

	rows := taskLines(e.mustRun("list"))
	if len(rows) != 1 || rows[0][0] != "2" {
		t.Fatalf("finished task listed as open: %v", rows)
	}
	rows = taskLines(e.mustRun("list", "-i"))
	if len(rows) != 2 || rows[1][0] != "1" || rows[1][1] != "[x]" || rows[1][2] != "2025-09-20" || rows[1][4] != "final" {
		t.Fatalf("list -i rows = %v", rows)
	}

	e.mustRun("edit", "1", "--category", "")
	rows = taskLines(e.mustRun("list", "-i"))
	if rows[1][3] != "-" {
		t.Fatalf("category not cleared: %v", rows[1])
	}

	if out := e.mustRun("edit", "1", "-r"); out != "Removed task #1\n" {
		t.Fatalf("remove output = %q", out)
	}
	if rows := taskLines(e.mustRun("list", "-i")); len(rows) != 1 {
		t.Fatalf("removed task still listed: %v", rows)
	}
}

func TestCommandErrors(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "taken")

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{"bad due date", []string{"add", "later", "-d", "2025-13-01"}, func(err error) bool {
			return errors.Is(err, duedate.ErrInvalidDate)
		}},
		{"duplicate task", []string{"add", "taken"}, func(err error) bool {
			return errors.Is(err, repository.ErrConstraint)
		}},
		{"unknown id", []string{"edit", "99", "-f", "true"}, func(err error) bool {
			return errors.Is(err, repository.ErrTaskNotFound)
		}},
		{"empty edit", []string{"edit", "1"}, func(err error) bool {
			return errors.Is(err, service.ErrEmptyPatch)
		}},
		{"bad finish", []string{"edit", "1", "-f", "maybe"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "--finish")
		}},
		{"bad id", []string{"edit", "abc", "-r"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "invalid task id")
		}},
		{"missing task text", []string{"add"}, func(err error) bool { return err != nil }},
		{"at with every", []string{"remind", "--watch", "--at", "08:00", "--every", "1h"}, func(err error) bool {
			return err != nil
		}},
		{"watch without schedule", []string{"remind", "--watch"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "--watch")
		}},
		{"telegram without chat", []string{"remind", "--telegram"}, func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.run(tt.args...); !tt.check(err) {
				t.Fatalf("todo %s: unexpected error %v", strings.Join(tt.args, " "), err)
			}
		})
	}

	if rows := taskLines(e.mustRun("list", "-i")); len(rows) != 1 {
		t.Fatalf("failed commands changed the store: %v", rows)
	}
}

func TestCategories(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "a", "-c", "work")
	e.mustRun("add", "b", "-c", "home")
	e.mustRun("add", "c", "-c", "work")
	e.mustRun("edit", "3", "-f", "true")

	rows := taskLines(e.mustRun("categories"))
	want := [][]string{{"home", "1"}, {"work", "1"}}
	if fmt.Sprint(rows) != fmt.Sprint(want) {
		t.Fatalf("categories = %v, want %v", rows, want)
	}
}

func TestRemindConsole(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "pay rent", "-d", "2025-09-10")
	e.mustRun("add", "book flights", "-d", "12")
	e.mustRun("add", "plan offsite", "-d", "30")

	out := e.mustRun("remind")
	for _, want := range []string{
		"Todo digest 2025-09-11",
		"#1 pay rent · due 2025-09-10, 1 day overdue",
		"#2 book flights · due tomorrow",
		"+ 1 later",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("remind output missing %q:\n%s", want, out)
		}
	}

	out = e.mustRun("remind", "--days", "30")
	if !strings.Contains(out, "plan offsite · due 2025-09-30, in 19 days") {
		t.Fatalf("remind --days 30 output:\n%s", out)
	}
}

func TestRemindTelegram(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"todo","username":"todo_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			texts = append(texts, r.PostForm.Get("text"))
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	e := newEnv(t)
	e.config = filepath.Join(e.dir, "config.yaml")
	config := fmt.Sprintf("telegram:\n  token: \"123:abc\"\n  chat_id: 42\n  api_endpoint: %q\n", server.URL+"/bot%s/%s")
	if err := os.WriteFile(e.config, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	e.mustRun("remind", "--telegram")
	if len(texts) != 0 {
		t.Fatalf("empty digest was sent: %q", texts)
	}

	e.mustRun("add", "fix <html> & ship", "-d", "11")
	e.mustRun("remind", "--telegram")
	if len(texts) != 1 {
		t.Fatalf("expected 1 message, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "<b>📅 Today</b>") || !strings.Contains(texts[0], "fix &lt;html&gt; &amp; ship") {
		t.Fatalf("unexpected message %q", texts[0])
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "todo", "config.yaml")

	if out := e.mustRun("config", "path"); out != path+"\n" {
		t.Fatalf("config path = %q, want %q", out, path)
	}

	if out := e.mustRun("config", "init"); out != "Wrote "+path+"\n" {
		t.Fatalf("config init output = %q", out)
	}
	if _, err := e.run("config", "init"); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}
	e.mustRun("config", "init", "--force")

	t.Setenv("TODO_TELEGRAM_TOKEN", "secret")
	out := e.mustRun("config", "show")
	if !strings.HasPrefix(out, "# "+path) {
		t.Fatalf("config show header: %q", out)
	}
	if strings.Contains(out, "secret") || !strings.Contains(out, "token: '********'") && !strings.Contains(out, `token: "********"`) {
		t.Fatalf("token not masked:\n%s", out)
	}
	if !strings.Contains(out, "database_path: "+e.db) {
		t.Fatalf("--db override not shown:\n%s", out)
	}

	explicit := filepath.Join(e.dir, "elsewhere", "todo.yaml")
	e.config = explicit
	if out := e.mustRun("config", "init"); out != "Wrote "+explicit+"\n" {
		t.Fatalf("config init --config output = %q", out)
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	e := newEnv(t)
	e.config = filepath.Join(e.dir, "missing.yaml")
	if _, err := e.run("list"); err == nil {
		t.Fatal("expected error for missing --config file")
	}
}
