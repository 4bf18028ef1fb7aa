package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "lispui", cmd.Use)
	assert.Contains(t, cmd.Long, "LISPUI_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"tokens", "compile", "render", "validate", "test", "watch", "repl"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestSubcommandsReportTheirOwnErrors(t *testing.T) {
	for _, sub := range NewRootCommand().Commands() {
		t.Run(sub.Name(), func(t *testing.T) {
			assert.True(t, sub.SilenceUsage, "usage would follow the error output")
			assert.True(t, sub.SilenceErrors)
		})
	}
}

func TestSubcommandErrorIsSingleJSONDocument(t *testing.T) {
	out, err := runValidateCmd(t, "json", writeSpecs(t, "package test\n\napp: broken: template: \"(p\"\n"))
	require.Error(t, err)
	assert.NotContains(t, out, "Usage:")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	backendFlag := compileCmd.Flags().Lookup("backend")
	require.NotNil(t, backendFlag)
	assert.Equal(t, BackendTree, backendFlag.DefValue)

	contextFlag := compileCmd.Flags().Lookup("context")
	require.NotNil(t, contextFlag)
	assert.Equal(t, "ctx", contextFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	require.NotNil(t, testCmd.Flags().Lookup("filter"))
	require.NotNil(t, testCmd.Flags().Lookup("golden-dir"))
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	debounceFlag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, debounceFlag)
	assert.Equal(t, DefaultDebounce.String(), debounceFlag.DefValue)
}

func TestReplCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	replCmd, _, err := cmd.Find([]string{"repl"})
	require.NoError(t, err)

	for _, name := range []string{"backend", "context", "specs", "app", "history"} {
		assert.NotNil(t, replCmd.Flags().Lookup(name), name)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "tokens", "counter.lisp"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFormatFromEnvironment(t *testing.T) {
	t.Setenv("LISPUI_FORMAT", "json")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"tokens", writeTemplate(t, `(p "hi")`)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"status":"ok"`)
}

func TestFormatFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("LISPUI_FORMAT", "json")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--format", "text", "tokens", writeTemplate(t, `(p "hi")`)})

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, buf.String(), `"status"`)
	assert.Contains(t, buf.String(), "atom")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "lispui.yaml")
	require.NoError(t, os.WriteFile(config, []byte("format: json\nbackend: html\n"), 0644))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", config, "compile", writeTemplate(t, `(p "hi")`)})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string        `json:"status"`
		Data   CompileOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, BackendHTML, resp.Data.Backend)
	assert.Equal(t, "<p>hi</p>", resp.Data.HTML)
}

func TestConfigFileMissing(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "tokens", "x.lisp"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// writeTemplate writes src to a template file in a temp dir.
func writeTemplate(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.lisp")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}
