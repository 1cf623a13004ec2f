package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/truthbits"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rc := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	rc.SetArgs(args)
	err := rc.Execute()
	return stdout.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	for _, name := range []string{"table", "enumerate", "verify", "show", "info"} {
		assert.Contains(t, out, name)
	}
}

func TestTable(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bits", []string{"table", "--inputs", "3"}, "x0 00001111\nx1 00110011\nx2 01010101\n"},
		{"hex", []string{"table", "-n", "3", "--format", "hex"}, "x0 f0\nx1 cc\nx2 aa\n"},
		{"placeholders", []string{"table", "-n", "3", "-k", "2"}, "x0 0000\nx1 0011\nx2 0101\n"},
		{"no inputs", []string{"table", "-n", "0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTable_Errors(t *testing.T) {
	_, err := execute(t, "table", "--format", "octal")
	require.ErrorContains(t, err, "invalid format")

	_, err = execute(t, "table", "-n", "17")
	require.ErrorContains(t, err, "--inputs")

	_, err = execute(t, "table", "-n", "3", "-k", "4")
	require.Error(t, err)
}

func TestEnumerateVerifyShow(t *testing.T) {
	dir := t.TempDir()
	storeArgs := []string{"--store", "local", "--dir", dir, "--prefix", "run/"}

	out, err := execute(t, append([]string{"enumerate", "-n", "6", "-k", "3", "--progress", "0", "--log-level", "error"}, storeArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "inputs=6 use_bits=3 stored=8 next=40 done=true\n", out)
	assert.FileExists(t, filepath.Join(dir, "run", truthbits.ManifestName))
	assert.FileExists(t, filepath.Join(dir, "run", "batch-38.tbb"))

	out, err = execute(t, append([]string{"verify"}, storeArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "ok: 8 batches, next=40, done=true\n", out)

	out, err = execute(t, append([]string{"show"}, storeArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"inputs": 6`)
	assert.Contains(t, out, `"compression": "zstd"`)

	out, err = execute(t, append([]string{"show", "--batch", "08"}, storeArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "batch batch-08.tbb status=8 inputs=6 use_bits=3 compression=zstd\n"+
		"x0 0\nx1 0\nx2 ff\nx3 f0\nx4 cc\nx5 aa\n", out)

	out, err = execute(t, append([]string{"show", "--batch", "batch-38.tbb"}, storeArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "batch batch-38.tbb status=38 ")

	_, err = execute(t, append([]string{"show", "--batch", "ff"}, storeArgs...)...)
	require.ErrorContains(t, err, "not in manifest")
}

func TestShow_SelectsBatchByPrintedStatus(t *testing.T) {
	dir := t.TempDir()
	storeArgs := []string{"--store", "local", "--dir", dir, "--compression", "none"}

	out, err := execute(t, append([]string{"enumerate", "-n", "10", "-k", "4", "--progress", "0", "--log-level", "error"}, storeArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "inputs=10 use_bits=4 stored=64 next=400 done=true\n", out)

	tests := []struct {
		batch  string
		header string
		x1     string
	}{
		{"0", "batch batch-0000.tbb status=0 ", "x1 0"},
		{"000", "batch batch-0000.tbb status=0 ", "x1 0"},
		{"100", "batch batch-0100.tbb status=100 ", "x1 ffff"},
		{"0100", "batch batch-0100.tbb status=100 ", "x1 ffff"},
		{"3F0", "batch batch-03f0.tbb status=3f0 ", "x1 ffff"},
	}
	for _, tt := range tests {
		t.Run(tt.batch, func(t *testing.T) {
			out, err := execute(t, append([]string{"show", "--batch", tt.batch}, storeArgs[:4]...)...)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
			require.Len(t, lines, 11)
			assert.True(t, strings.HasPrefix(lines[0], tt.header), lines[0])
			assert.Equal(t, tt.x1, lines[2])
			assert.Equal(t, []string{"x6 ff00", "x7 f0f0", "x8 cccc", "x9 aaaa"}, lines[7:])
		})
	}
}

func TestEnumerate_Resume(t *testing.T) {
	dir := t.TempDir()
	args := []string{"enumerate", "-n", "5", "-k", "2", "--store", "local", "--dir", dir, "--progress", "0", "--log-level", "error"}

	_, err := execute(t, args...)
	require.NoError(t, err)

	out, err := execute(t, append(args, "--resume")...)
	require.NoError(t, err)
	assert.Equal(t, "inputs=5 use_bits=2 stored=8 next=20 done=true\n", out)

	_, err = execute(t, append(args[:len(args):len(args)], "--resume", "--compression", "lz4")...)
	require.ErrorIs(t, err, truthbits.ErrManifestMismatch)
}

func TestEnumerate_KeptInputs(t *testing.T) {
	out, err := execute(t, "enumerate", "-n", "5", "--keep", "0,4", "--progress", "0", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "inputs=5 use_bits=3 stored=0 next=8 done=true\n", out)
}

func TestEnumerate_EnvironmentOverride(t *testing.T) {
	t.Setenv("TRUTHBITS_USE_BITS", "2")

	out, err := execute(t, "enumerate", "-n", "4", "--progress", "0", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "inputs=4 use_bits=2 stored=0 next=10 done=true\n", out)

	// The command line wins over the environment.
	out, err = execute(t, "enumerate", "-n", "4", "-k", "1", "--progress", "0", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "inputs=4 use_bits=1 stored=0 next=10 done=true\n", out)
}

func TestEnumerate_ConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "truthbits.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("use-bits = 1\nlog-level = \"error\"\nprogress = \"0s\"\n"), 0o600))

	out, err := execute(t, "enumerate", "-n", "3", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "inputs=3 use_bits=1 stored=0 next=8 done=true\n", out)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("colour = \"red\"\n"), 0o600))
	_, err = execute(t, "enumerate", "-n", "3", "--config", bad)
	require.ErrorContains(t, err, "invalid option in configuration file")
}

func TestEnumerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing inputs", []string{"enumerate"}, "inputs"},
		{"bad compression", []string{"enumerate", "-n", "3", "--compression", "gzip"}, "gzip"},
		{"bad codec", []string{"enumerate", "-n", "3", "--manifest-codec", "xml"}, "manifest codec"},
		{"bad store", []string{"enumerate", "-n", "3", "--store", "ftp"}, "unknown store"},
		{"minio without bucket", []string{"enumerate", "-n", "3", "--store", "minio"}, "--endpoint"},
		{"bad log level", []string{"enumerate", "-n", "3", "--log-level", "loud"}, "log level"},
		{"bad log format", []string{"enumerate", "-n", "3", "--log-format", "xml"}, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestVerify_NoStore(t *testing.T) {
	_, err := execute(t, "verify", "--store", "none")
	require.ErrorIs(t, err, truthbits.ErrNoStore)
}

func TestInfo(t *testing.T) {
	out, err := execute(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "isa: ")
	assert.Contains(t, out, "pool: hits=")
}
