package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/errors"
)

func TestExitCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitError)
	assert.Equal(t, 2, ExitInvalidInput)
}

func TestGlobalFlags_Defaults(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	assert.Equal(t, OutputText, flags.Output)
	assert.False(t, flags.Verbose)
	assert.False(t, flags.Quiet)
	assert.Empty(t, flags.Backend)
	assert.Empty(t, flags.User)
	assert.Empty(t, flags.Workspace)
}

func TestAddGlobalFlags(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	for name, short := range map[string]string{
		"output":    "o",
		"verbose":   "v",
		"quiet":     "q",
		"workspace": "w",
		"backend":   "",
		"user":      "",
	} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, short, f.Shorthand, name)
	}
}

func TestBindGlobalFlags_Environment(t *testing.T) {
	t.Setenv("TASKFLOW_WORKSPACE", "personal")
	t.Setenv("TASKFLOW_QUIET", "true")

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, cmd))
	applyBoundFlags(v, flags)

	assert.Equal(t, "personal", flags.Workspace)
	assert.True(t, flags.Quiet)
	assert.Equal(t, OutputText, flags.Output)
}

func TestBindGlobalFlags_FlagWinsOverEnvironment(t *testing.T) {
	t.Setenv("TASKFLOW_OUTPUT", "json")

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)
	require.NoError(t, cmd.PersistentFlags().Set("output", "text"))

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, cmd))
	applyBoundFlags(v, flags)

	assert.Equal(t, OutputText, flags.Output)
}

func TestGlobalFlags_Overrides(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{Backend: config.BackendRedis, User: "u-9"}
	o := flags.overrides()

	assert.Equal(t, config.BackendRedis, o.Remote.Backend)
	assert.Equal(t, "u-9", o.Identity.UserID)
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
	assert.Equal(t, []string{"text", "json"}, ValidOutputFormats())
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitSuccess},
		{"exit code 2 wrapper", errors.NewExitCode2Error(stderrors.New("bad")), ExitInvalidInput},
		{"invalid output format", fmt.Errorf("%w: xml", errors.ErrInvalidOutputFormat), ExitInvalidInput},
		{"validation", errors.Wrap(errors.ErrInvalidPriority, `"critical"`), ExitInvalidInput},
		{"last workspace", errors.ErrLastWorkspace, ExitInvalidInput},
		{"unknown flag", stderrors.New("unknown flag: --foo"), ExitInvalidInput},
		{"arg count", stderrors.New("accepts 1 arg(s), received 2"), ExitInvalidInput},
		{"min args", stderrors.New("requires at least 1 arg(s), only received 0"), ExitInvalidInput},
		{"not found", errors.ErrTaskNotFound, ExitError},
		{"remote down", errors.ErrRemoteUnavailable, ExitError},
		{"generic", stderrors.New("boom"), ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ExitCodeForError(tc.err))
		})
	}
}
