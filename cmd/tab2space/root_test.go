package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand is a helper function to execute cobra command and capture output
func executeCommand(root *cobra.Command, args ...string) (stdout string, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}

// isolateConfig keeps a tab2space.yaml in the working directory or $HOME out
// of command runs.
func isolateConfig(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRootCmdHelp(t *testing.T) {
	stdout, stderr, err := executeCommand(newRootCmd(), "--help")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "tab2space <path>")
	assert.Contains(t, stdout, "--tab_width")
	assert.Contains(t, stdout, "--version")
}

func TestRootCmdHelp_AllFlagsPresent(t *testing.T) {
	cmd := newRootCmd()
	stdout, _, err := executeCommand(cmd, "--help")
	require.NoError(t, err)

	check := func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		assert.Contains(t, stdout, "--"+f.Name, "Help output should contain flag --%s", f.Name)
		if f.Shorthand != "" {
			assert.Contains(t, stdout, "-"+f.Shorthand+",", "Help output should contain shorthand -%s", f.Shorthand)
		}
	}
	cmd.Flags().VisitAll(check)
	cmd.PersistentFlags().VisitAll(check)
}

func TestRootCmdVersion(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	version, commit, date = "test-1.2.3", "testcommit123", "2024-01-01T10:00:00Z"
	defer func() {
		version, commit, date = originalVersion, originalCommit, originalDate
	}()

	stdout, stderr, err := executeCommand(newRootCmd(), "--version")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, fmt.Sprintf("tab2space version %s (commit: %s, built: %s)\n", version, commit, date), stdout)
}

func TestRootCmdArgumentErrors(t *testing.T) {
	isolateConfig(t)
	testCases := []struct {
		name     string
		args     []string
		errorMsg string
	}{
		{name: "No path", args: nil, errorMsg: "accepts 1 arg(s), received 0"},
		{name: "Two paths", args: []string{"a.py", "b.py"}, errorMsg: "accepts 1 arg(s), received 2"},
		{name: "Unknown flag", args: []string{"a.py", "--unknown-flag"}, errorMsg: "unknown flag: --unknown-flag"},
		{name: "Invalid int", args: []string{"a.py", "--tab_width", "abc"}, errorMsg: `invalid argument "abc"`},
		{name: "Zero tab width", args: []string{"a.py", "-w", "0"}, errorMsg: "tab width"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, stderr, err := executeCommand(newRootCmd(), tc.args...)
			require.Error(t, err)
			assert.Contains(t, stderr, tc.errorMsg)
		})
	}
}

func TestRootCmd_SingleFileSafeMode(t *testing.T) {
	isolateConfig(t)
	input := filepath.Join(t.TempDir(), "main.py")
	writeFile(t, input, "if x:\n\treturn 1\n")

	_, _, err := executeCommand(newRootCmd(), input)

	require.NoError(t, err)
	assert.Equal(t, "if x:\n    return 1\n", readFile(t, filepath.Join(filepath.Dir(input), "main.notab")))
	assert.Equal(t, "if x:\n\treturn 1\n", readFile(t, input), "safe mode must not touch the input")
}

func TestRootCmd_SingleFileMissingFails(t *testing.T) {
	isolateConfig(t)
	_, stderr, err := executeCommand(newRootCmd(), filepath.Join(t.TempDir(), "absent.py"))

	require.Error(t, err)
	assert.Contains(t, stderr, "absent.py")
}

func TestRootCmd_FolderOverwriteWithReport(t *testing.T) {
	isolateConfig(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.c"), "int\tx;  \n")
	writeFile(t, filepath.Join(root, "sub", "b.h"), "\t\ty\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "\tkeep\n")

	stdout, _, err := executeCommand(newRootCmd(), root, "-f", "-o", "-s", "-w", "2", "--no-progress")

	require.NoError(t, err)
	assert.Equal(t, "int x;\n", readFile(t, filepath.Join(root, "a.c")))
	assert.Equal(t, "    y\n", readFile(t, filepath.Join(root, "sub", "b.h")))
	assert.Equal(t, "\tkeep\n", readFile(t, filepath.Join(root, "notes.txt")))
	assert.Contains(t, stdout, "Converted 2 file(s)")
}

func TestRootCmd_FolderMissingRootFails(t *testing.T) {
	isolateConfig(t)
	_, _, err := executeCommand(newRootCmd(), filepath.Join(t.TempDir(), "nope"), "-f", "--no-progress")
	require.Error(t, err)
}
