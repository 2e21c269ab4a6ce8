package testsupport

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/amonks/ibuddy/task"
)

// ScriptParams returns testscript parameters for the scripts in dir: each
// script gets its own home and the envset and taskid commands.
func ScriptParams(t testing.TB, dir string) testscript.Params {
	return testscript.Params{
		Dir: dir,
		Setup: func(env *testscript.Env) error {
			return SetupScriptEnv(t, env)
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"envset": CmdEnvSet,
			"taskid": CmdTaskID,
		},
	}
}

// SetupScriptEnv points HOME and the state directory into the script's
// work dir.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	h, err := NewHome(filepath.Join(env.WorkDir, "home"))
	if err != nil {
		return err
	}
	for k, v := range h.Env() {
		env.Setenv(k, v)
	}
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}
	ts.Setenv(args[0], strings.TrimSpace(ts.ReadFile(args[1])))
}

// CmdTaskID finds a task by title in a JSON task list and stores its ID in
// an env var.
func CmdTaskID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("taskid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: taskid FILE TITLE VAR")
	}

	var tasks []task.Task
	if err := json.Unmarshal([]byte(ts.ReadFile(args[0])), &tasks); err != nil {
		ts.Fatalf("parse task list: %v", err)
	}
	for _, t := range tasks {
		if t.Title == args[1] {
			ts.Setenv(args[2], t.ID)
			return
		}
	}
	ts.Fatalf("task with title %q not found", args[1])
}
