package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/taskwatch/internal/store"
	"github.com/Iron-Ham/taskwatch/internal/store/filestore"
	"github.com/Iron-Ham/taskwatch/internal/testutil"
)

// executeCommand runs a fresh command tree with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// setupWorkspace writes a config file and a dataset and returns the flags
// that point a command at them.
func setupWorkspace(t *testing.T) (flags []string, datasetPath string) {
	t.Helper()
	dir := t.TempDir()

	now := time.Now().UTC()
	soon := now.Add(time.Hour).Format(time.RFC3339)
	longAgo := now.Add(-10 * 24 * time.Hour).Format(time.RFC3339)

	dataset := fmt.Sprintf(`employees:
  - id: 1
    name: Alice
    department_id: 10
    skills: Go, Postgres
    current_workload: 25
    max_workload: 100
  - id: 2
    name: Bob
    department_id: 20
    skills: Go
    current_workload: 60
    max_workload: 100
tasks:
  - id: 100
    title: Build API
    status: pending
    priority: high
    department_id: 10
    required_skills: go
    due: %s
  - id: 101
    title: Old report
    status: in_progress
    priority: normal
    department_id: 20
    due: %s
`, soon, longAgo)

	datasetPath = testutil.WriteFile(t, dir, "data.yaml", dataset)
	cfgPath := testutil.WriteFile(t, dir, "config.yaml", `completion:
  backend: none
notify:
  color: false
logging:
  level: error
`)

	return []string{"--config", cfgPath, "--store", datasetPath}, datasetPath
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	if root.Use != "taskwatch" {
		t.Errorf("root.Use = %q, want %q", root.Use, "taskwatch")
	}

	expected := []string{"watch", "check", "recommend", "assign", "anomalies", "task", "config"}
	cmds := make(map[string]bool)
	for _, c := range root.Commands() {
		cmds[c.Name()] = true
	}
	for _, name := range expected {
		if !cmds[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	flags, _ := setupWorkspace(t)

	out, err := executeCommand(t, append([]string{"check"}, flags...)...)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "APPROACHING") || !strings.Contains(out, `"Build API"`) {
		t.Errorf("expected an approaching notification, got:\n%s", out)
	}
	// Due ten days ago is outside the scan window.
	if strings.Contains(out, "Old report") {
		t.Errorf("task outside the scan window was reported:\n%s", out)
	}
}

func TestCheckCommand_BadStore(t *testing.T) {
	flags, _ := setupWorkspace(t)
	flags[3] = filepath.Join(t.TempDir(), "data.json")

	if _, err := executeCommand(t, append([]string{"check"}, flags...)...); err == nil {
		t.Error("expected error for unsupported dataset extension")
	}
}

func TestRecommendCommand(t *testing.T) {
	flags, _ := setupWorkspace(t)

	out, err := executeCommand(t, append([]string{"recommend", "--task", "100", "--explain"}, flags...)...)
	if err != nil {
		t.Fatalf("recommend failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Recommended: Alice (score 90.0)") {
		t.Errorf("unexpected recommendation:\n%s", out)
	}
	if !strings.Contains(out, "highest fit score") {
		t.Errorf("expected fallback rationale:\n%s", out)
	}
	if !strings.Contains(out, "EMPLOYEE") {
		t.Errorf("expected explanation table:\n%s", out)
	}
}

func TestRecommendCommand_Assign(t *testing.T) {
	flags, dataset := setupWorkspace(t)

	out, err := executeCommand(t, append([]string{"recommend", "--task", "100", "--assign"}, flags...)...)
	if err != nil {
		t.Fatalf("recommend failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Assigned task 100 to Alice") {
		t.Errorf("unexpected output:\n%s", out)
	}

	s, err := filestore.Open(dataset)
	if err != nil {
		t.Fatalf("reopen dataset: %v", err)
	}
	id := int64(1)
	tasks, err := s.Tasks(context.Background(), store.TaskFilter{AssigneeID: &id})
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 100 {
		t.Errorf("expected task 100 assigned to Alice, got %+v", tasks)
	}
}

func TestRecommendCommand_UnknownTask(t *testing.T) {
	flags, _ := setupWorkspace(t)

	if _, err := executeCommand(t, append([]string{"recommend", "--task", "999"}, flags...)...); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestAssignCommand(t *testing.T) {
	flags, _ := setupWorkspace(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{name: "valid", args: []string{"101", "2"}, want: "Assigned task 101 (Old report) to employee 2"},
		{name: "unknown employee", args: []string{"101", "42"}, wantErr: true},
		{name: "bad id", args: []string{"abc", "1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, append(append([]string{"assign"}, tt.args...), flags...)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestAnomaliesCommand_JSON(t *testing.T) {
	flags, _ := setupWorkspace(t)

	out, err := executeCommand(t, append([]string{"anomalies", "--json"}, flags...)...)
	if err != nil {
		t.Fatalf("anomalies failed: %v\n%s", err, out)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d: %s", len(got), out)
	}
	if got[0]["type"] != "overdue" || got[0]["severity"] != "critical" || got[0]["task_id"] != float64(101) {
		t.Errorf("unexpected anomaly: %v", got[0])
	}
}

func TestTaskCommands(t *testing.T) {
	flags, _ := setupWorkspace(t)

	out, err := executeCommand(t, append([]string{"task", "add", "Write docs", "--priority", "low", "--department", "10"}, flags...)...)
	if err != nil {
		t.Fatalf("task add failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created task 102: Write docs") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = executeCommand(t, append([]string{"task", "list", "--status", "pending"}, flags...)...)
	if err != nil {
		t.Fatalf("task list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Write docs") || !strings.Contains(out, "Build API") || strings.Contains(out, "Old report") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	if _, err := executeCommand(t, append([]string{"task", "add", "Bad", "--priority", "urgent"}, flags...)...); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestConfigShow(t *testing.T) {
	flags, _ := setupWorkspace(t)

	out, err := executeCommand(t, append([]string{"config", "show"}, flags...)...)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "Config file: ") || !strings.Contains(out, "check_interval_ms: 60000") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
