package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trashshred/internal/config"
	"trashshred/internal/erase"
)

// resetFlags restores every flag to its default between runs.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	eraseCmd.Flags().VisitAll(reset)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestApplyFlagsOverridesOnlyChangedValues(t *testing.T) {
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	cfg := config.Default()
	require.NoError(t, config.ApplyProfile(cfg, "paranoid"))
	require.NoError(t, rootCmd.PersistentFlags().Parse([]string{"--max-concurrent", "3", "-p", " DoD7 "}))

	applyFlags(rootCmd.PersistentFlags(), cfg)
	assert.Equal(t, "dod7", cfg.Erase.Protocol)
	assert.Equal(t, 3, cfg.Erase.MaxConcurrent)
	assert.True(t, cfg.Erase.Encrypt, "profile value survives when the flag is unset")
	assert.True(t, cfg.Erase.Verify)
	assert.True(t, cfg.Security.RequireConfirmation)

	opts, err := eraseOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, erase.DoD7, opts.Protocol)
	assert.Equal(t, 3, opts.MaxConcurrent)
	assert.Equal(t, cfg.Erase.ChunkSize, opts.ChunkSize)
}

func TestEraseOptionsRejectsUnknownProtocol(t *testing.T) {
	cfg := config.Default()
	cfg.Erase.Protocol = "schneier"
	_, err := eraseOptions(cfg)
	assert.Error(t, err)
}

func TestEraseCommand(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, bytes.Repeat([]byte("a"), 5000), 0600))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0600))

	out, err := runCLI(t, "erase", "--force", "--protocol", "dod7", "--encrypt", a, b)
	require.NoError(t, err)
	assert.Equal(t, EXIT_SUCCESS, exitCode(err))
	assert.Contains(t, out, "2/2 files erased")
	assert.Contains(t, out, "Elapsed:")

	for _, p := range []string{a, b} {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr), p)
	}
}

func TestEraseCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(b, []byte("bbb"), 0600))

	out, err := runCLI(t, "erase", "-f", missing, b)
	require.Error(t, err)
	assert.Equal(t, EXIT_PARTIAL, exitCode(err))
	assert.Contains(t, out, "1/2 files erased")
	assert.Contains(t, out, missing)
	assert.Contains(t, out, "IoFailure")
}

func TestEraseCommandRecursive(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "sub", "x"), []byte("x"), 0600))

	out, err := runCLI(t, "erase", "-f", "-r", "-p", "zeros", tree)
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 files erased")

	_, err = os.Stat(tree)
	assert.True(t, os.IsNotExist(err))
}

func TestEraseCommandDryRun(t *testing.T) {
	a := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("keep"), 0600))

	out, err := runCLI(t, "erase", "-n", "--profile", "standard", a)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: 1 files would be erased with dod7 (7 passes")
	assert.Contains(t, out, a)

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestEraseCommandDeclinedConfirmation(t *testing.T) {
	a := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("keep"), 0600))

	out, err := runCLI(t, "erase", a)
	require.NoError(t, err)
	assert.Contains(t, out, "Continue? (y/N)")
	assert.Contains(t, out, "Cancelled.")

	_, err = os.Stat(a)
	assert.NoError(t, err)
}

func TestEmptyCommand(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Trash")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "files"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "info"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "files", "old.doc"), []byte("doc"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "info", "old.doc.trashinfo"), []byte("[Trash Info]\n"), 0600))

	cfgPath := filepath.Join(t.TempDir(), "trashshred.yaml")
	cfg := config.Default()
	cfg.Trash.Root = root
	require.NoError(t, config.Save(cfg, cfgPath))

	if runtime.GOOS == "windows" {
		t.Skip("empty uses the recycle bin on windows")
	}

	out, err := runCLI(t, "empty", "-f", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1/1 files erased")

	_, err = os.Stat(filepath.Join(root, "files", "old.doc"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "info", "old.doc.trashinfo"))
	assert.True(t, os.IsNotExist(err))
}

func TestProtocolsCommand(t *testing.T) {
	out, err := runCLI(t, "protocols")
	require.NoError(t, err)
	for _, info := range erase.Protocols() {
		assert.Contains(t, out, info.Name)
	}
	assert.Contains(t, out, "35")
}

func TestEraseCommandDryRunKeepsEmptyFolders(t *testing.T) {
	tree := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "a", "b"), 0755))

	out, err := runCLI(t, "erase", "--dry-run", "-r", tree)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to erase")

	_, err = os.Stat(filepath.Join(tree, "a", "b"))
	assert.NoError(t, err, "dry run must not remove folders")
}

func TestEraseCommandEmptyFoldersNeedConfirmation(t *testing.T) {
	tree := filepath.Join(t.TempDir(), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "a", "b"), 0755))

	out, err := runCLI(t, "erase", "-r", tree)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to erase.")
	assert.Contains(t, out, "Remove empty folders")

	_, err = os.Stat(filepath.Join(tree, "a", "b"))
	assert.NoError(t, err, "declined cleanup keeps folders")

	out, err = runCLI(t, "erase", "-f", "-r", tree)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to erase.")
	_, err = os.Stat(tree)
	assert.True(t, os.IsNotExist(err), "forced cleanup removes the emptied tree")
}

func TestEmptyCommandDryRunKeepsTrashedLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("empty uses the recycle bin on windows")
	}
	root := filepath.Join(t.TempDir(), "Trash")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "files", "folder"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "info"), 0755))
	target := filepath.Join(t.TempDir(), "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("t"), 0600))
	link := filepath.Join(root, "files", "l")
	require.NoError(t, os.Symlink(target, link))
	info := filepath.Join(root, "info", "l.trashinfo")
	require.NoError(t, os.WriteFile(info, []byte("[Trash Info]\n"), 0600))

	t.Setenv("XDG_DATA_HOME", filepath.Dir(root))

	out, err := runCLI(t, "empty", "-n")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to erase")

	for _, p := range []string{link, info, filepath.Join(root, "files", "folder")} {
		_, err := os.Lstat(p)
		assert.NoError(t, err, p)
	}
}
