package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mastercactapus/gprobe/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, "", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, machine.DefaultOptions(), cfg.Options)
	assert.Equal(t, Stdio, cfg.Port)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Zero(t, cfg.Timeout)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "gprobe.toml", `
job = "center"
width = 100
length = 60
diameter = 30
timeout = "2s"
`)
	t.Setenv("GPROBE_LENGTH", "70")
	t.Setenv("GPROBE_DIAMETER", "35")

	cfg, err := Load([]string{"-config", path, "-d", "40", "-x"}, "", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, machine.JobCenter, cfg.Job, "file over default")
	assert.Equal(t, 100.0, cfg.Width, "file over default")
	assert.Equal(t, 70.0, cfg.Length, "env over file")
	assert.Equal(t, 40.0, cfg.Diameter, "flag over env")
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 4.0, cfg.ToolDiameter, "untouched default")
}

func TestLoad_FlagAtDefaultStillWins(t *testing.T) {
	t.Setenv("GPROBE_TOOL_DIAMETER", "6")

	cfg, err := Load([]string{"-t", "4"}, "", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.ToolDiameter)
}

func TestLoadEnv_DotEnv(t *testing.T) {
	path := writeFile(t, ".env", "GPROBE_JOB=spiral\nGPROBE_POINTS=12\nGPROBE_AUTO_ADJUST=true\n")
	t.Setenv("GPROBE_POINTS", "20")
	// godotenv sets variables for the whole process
	t.Setenv("GPROBE_JOB", "")
	os.Unsetenv("GPROBE_JOB")
	t.Setenv("GPROBE_AUTO_ADJUST", "")
	os.Unsetenv("GPROBE_AUTO_ADJUST")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(path))

	assert.Equal(t, machine.JobSpiral, cfg.Job)
	assert.Equal(t, 20, cfg.Points, "real environment wins over .env")
	assert.True(t, cfg.AutoAdjust)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadEnv_Invalid(t *testing.T) {
	t.Setenv("GPROBE_WIDTH", "wide")
	cfg := Default()
	err := cfg.LoadEnv("")
	assert.ErrorContains(t, err, "GPROBE_WIDTH")
}

func TestLoadFile_Invalid(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFile(writeFile(t, "a.toml", `width = "wide"`)))
	assert.Error(t, cfg.LoadFile(writeFile(t, "b.toml", `colour = "red"`)))
	assert.Error(t, cfg.LoadFile(writeFile(t, "c.toml", `timeout = "soon"`)))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.SafeZ = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.SPJS = "ws://localhost:8989/ws"
	assert.Error(t, bad.Validate(), "spjs with stdio port")
	bad.Port = "/dev/ttyACM0"
	assert.NoError(t, bad.Validate())

	bad = cfg
	bad.Job = "nonsense"
	assert.NoError(t, bad.Validate(), "job is checked by the session")
}

func TestLoad_BadArgs(t *testing.T) {
	_, err := Load([]string{"-w", "abc"}, "", io.Discard)
	assert.Error(t, err)

	_, err = Load([]string{"extra"}, "", io.Discard)
	assert.Error(t, err)
}
