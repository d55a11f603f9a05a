package converter_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/tab2space/internal/testutil"
	"github.com/stackvity/tab2space/pkg/converter"
)

func TestResolveOutputPath(t *testing.T) {
	safe := testutil.MustConfig(t, 4, true, false)
	overwrite := testutil.MustConfig(t, 4, false, false)
	dir := filepath.Join("src", "pkg")

	testCases := []struct {
		name     string
		input    string
		override string
		cfg      converter.Config
		expected string
	}{
		{name: "Safe replaces extension", input: filepath.Join(dir, "a.py"), cfg: safe, expected: filepath.Join(dir, "a.notab")},
		{name: "Safe replaces only last extension", input: "a.tar.gz", cfg: safe, expected: "a.tar.notab"},
		{name: "Safe appends without extension", input: filepath.Join(dir, "Makefile"), cfg: safe, expected: filepath.Join(dir, "Makefile.notab")},
		{name: "Safe appends to dotfile", input: ".bashrc", cfg: safe, expected: ".bashrc.notab"},
		{name: "Safe never returns the input", input: "x.notab", cfg: safe, expected: "x.notab.notab"},
		{name: "Overwrite keeps input", input: filepath.Join(dir, "a.py"), cfg: overwrite, expected: filepath.Join(dir, "a.py")},
		{name: "Override wins in safe mode", input: "a.py", override: "out.py", cfg: safe, expected: "out.py"},
		{name: "Override wins in overwrite mode", input: "a.py", override: "out.py", cfg: overwrite, expected: "out.py"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, converter.ResolveOutputPath(tc.input, tc.override, tc.cfg))
		})
	}
}

func TestOutputRoot(t *testing.T) {
	root := t.TempDir()
	safe := testutil.MustConfig(t, 4, true, false)
	overwrite := testutil.MustConfig(t, 4, false, false)

	got, err := converter.OutputRoot(root, "", safe)
	require.NoError(t, err)
	assert.Equal(t, root+"_notab", got)

	got, err = converter.OutputRoot(root+string(filepath.Separator), "", safe)
	require.NoError(t, err)
	assert.Equal(t, root+"_notab", got, "trailing separator must not change the sibling name")

	got, err = converter.OutputRoot(root, "", overwrite)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	override := filepath.Join(root, "elsewhere")
	got, err = converter.OutputRoot(root, override, safe)
	require.NoError(t, err)
	assert.Equal(t, override, got)
}

func TestOutputRoot_FilesystemRootInSafeMode(t *testing.T) {
	safe := testutil.MustConfig(t, 4, true, false)
	fsRoot, err := filepath.Abs(string(filepath.Separator))
	require.NoError(t, err)
	_, err = converter.OutputRoot(fsRoot, "", safe)
	assert.ErrorIs(t, err, converter.ErrConfigValidation)
}
