package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"es1090/internal/adsb"
	"es1090/internal/bits"
	"es1090/internal/config"
	"es1090/internal/source"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Version: dev")
}

func TestApplyFlags(t *testing.T) {
	var f flags
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, cmd.ParseFlags([]string{
		"--mode", "beast",
		"-i", "feed.bin",
		"--sbs-dir", "/tmp/sbs",
		"--utc=false",
		"--nats-url", "nats://localhost:4222",
		"-v",
	}))

	// read the parsed values back through the flag set
	f.mode, _ = cmd.Flags().GetString("mode")
	f.input, _ = cmd.Flags().GetString("input")
	f.sbsDir, _ = cmd.Flags().GetString("sbs-dir")
	f.utc, _ = cmd.Flags().GetBool("utc")
	f.natsURL, _ = cmd.Flags().GetString("nats-url")
	f.verbose, _ = cmd.Flags().GetBool("verbose")

	cfg := config.Default()
	cfg.Redis.Addr = "from-file:6379"
	applyFlags(cmd, &f, cfg)

	assert.Equal(t, config.InputBeast, cfg.Input.Mode)
	assert.Equal(t, "feed.bin", cfg.Input.Path)
	assert.Equal(t, "/tmp/sbs", cfg.SBS.Dir)
	assert.False(t, cfg.SBS.UTC)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched flags keep the loaded values
	assert.Equal(t, "from-file:6379", cfg.Redis.Addr)
	assert.False(t, cfg.SBS.Stdout)
}

func TestRun_Recording(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bin")

	var buf bytes.Buffer
	raw, ok := adsb.NewRawMessage(1000, bits.MustParseHex("8D4B18F4231445F2DB63A0DEEB82").Bytes())
	require.True(t, ok)
	require.NoError(t, source.WriteRecord(&buf, raw))
	require.NoError(t, os.WriteFile(input, buf.Bytes(), 0o644))

	sbsDir := filepath.Join(dir, "sbs")
	_, stderr, err := execute(t, "--mode", "recording", "--input", input, "--sbs-dir", sbsDir, "--log-format", "json")
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, `"msg":"Input exhausted"`)

	files, err := filepath.Glob(filepath.Join(sbsDir, "sbs_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "MSG,1,"))
}

// TestRun_FlagsCompleteEnvironment tests that settings from the environment
// are validated together with the flags
func TestRun_FlagsCompleteEnvironment(t *testing.T) {
	t.Setenv("ES1090_REALTIME", "true")
	input := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(input, nil, 0o644))

	_, stderr, err := execute(t, "--mode", "recording", "--input", input)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "Input exhausted")
}

func TestRun_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown mode", []string{"--mode", "rtlsdr"}, "input mode"},
		{"realtime samples", []string{"--realtime"}, "realtime"},
		{"bad log level", []string{"--mode", "recording", "--log-level", "loud", "--input", "x"}, "invalid log level"},
		{"missing config file", []string{"--config", "/nonexistent/es1090.yaml"}, "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
