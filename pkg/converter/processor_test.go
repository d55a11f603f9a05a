package converter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/tab2space/internal/testutil"
	"github.com/stackvity/tab2space/pkg/converter"
	"github.com/stackvity/tab2space/pkg/converter/encoding"
)

func newTestProcessor(t *testing.T, cfg converter.Config) *converter.FileProcessor {
	t.Helper()
	handler, err := encoding.NewHandler("")
	require.NoError(t, err)
	logHandler, _ := testutil.NewTestLogger()
	return converter.NewFileProcessor(cfg, handler, logHandler)
}

func TestProcessFile_SafeModeWritesSibling(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "main.py")
	testutil.CreateDummyFile(t, input, "def f():\n\treturn 1\r\n")

	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), input, "")

	require.NoError(t, res.Err)
	assert.Equal(t, converter.StatusSuccess, res.Status)
	assert.Equal(t, filepath.Join(dir, "main.notab"), res.OutputPath)
	assert.Equal(t, "def f():\n    return 1\r\n", testutil.ReadFileString(t, res.OutputPath))
	assert.Equal(t, "def f():\n\treturn 1\r\n", testutil.ReadFileString(t, input), "original must be untouched in safe mode")
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, 1, res.TabsExpanded)
	assert.True(t, res.Changed)
}

func TestProcessFile_OverwriteInPlace(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.c")
	testutil.CreateDummyFile(t, input, "int\tx;  \n")

	p := newTestProcessor(t, testutil.MustConfig(t, 8, false, true))
	res := p.ProcessFile(context.Background(), input, "")

	require.NoError(t, res.Err)
	assert.Equal(t, input, res.OutputPath)
	assert.Equal(t, "int     x;\n", testutil.ReadFileString(t, input))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestProcessFile_OverrideCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, input, "\tx")
	output := filepath.Join(dir, "deep", "nested", "out.txt")

	p := newTestProcessor(t, testutil.MustConfig(t, 2, true, false))
	res := p.ProcessFile(context.Background(), input, output)

	require.NoError(t, res.Err)
	assert.Equal(t, output, res.OutputPath)
	assert.Equal(t, "  x", testutil.ReadFileString(t, output))
}

func TestProcessFile_UnchangedContentStillWritten(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, input, "no tabs here\n")

	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), input, "")

	require.NoError(t, res.Err)
	assert.False(t, res.Changed)
	assert.Equal(t, "no tabs here\n", testutil.ReadFileString(t, res.OutputPath))
}

func TestProcessFile_PreservesBOMAndColumns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bom.cs")
	testutil.CreateDummyFile(t, input, "\xEF\xBB\xBFa\tb\n")

	p := newTestProcessor(t, testutil.MustConfig(t, 4, false, false))
	res := p.ProcessFile(context.Background(), input, "")

	require.NoError(t, res.Err)
	assert.Equal(t, "\xEF\xBB\xBFa   b\n", testutil.ReadFileString(t, input))
}

func TestProcessFile_PreservesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := t.TempDir()
	input := filepath.Join(dir, "run.py")
	testutil.CreateDummyFile(t, input, "\tpass\n")
	require.NoError(t, os.Chmod(input, 0o750))

	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), input, "")

	require.NoError(t, res.Err)
	info, err := os.Stat(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

func TestProcessFile_MissingInput(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), filepath.Join(dir, "missing.py"), "")

	require.Error(t, res.Err)
	assert.Equal(t, converter.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, converter.ErrReadFailed)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
	_, statErr := os.Stat(filepath.Join(dir, "missing.notab"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no output may be created")
}

func TestProcessFile_DirectoryInput(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), dir, "")
	assert.ErrorIs(t, res.Err, converter.ErrReadFailed)
}

func TestProcessFile_InvalidTextLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "blob.py")
	testutil.CreateDummyFile(t, input, "ok\t\xff\xfe\x00junk")
	existing := filepath.Join(dir, "blob.notab")
	testutil.CreateDummyFile(t, existing, "previous output")

	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), input, "")

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, converter.ErrReadFailed)
	assert.ErrorIs(t, res.Err, converter.ErrNotText)
	assert.Equal(t, "previous output", testutil.ReadFileString(t, existing))
}

func TestProcessFile_MkdirFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, input, "\tx\n")
	blocker := filepath.Join(dir, "blocker")
	testutil.CreateDummyFile(t, blocker, "i am a file")

	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), input, filepath.Join(blocker, "sub", "out.py"))

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, converter.ErrWriteFailed)
	assert.ErrorIs(t, res.Err, converter.ErrMkdirFailed)
	assert.Equal(t, "\tx\n", testutil.ReadFileString(t, input))
}

func TestProcessFile_WriteFailureWhenTargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, input, "\tx\n")
	target := filepath.Join(dir, "target")
	testutil.CreateDummyDir(t, filepath.Join(target, "child"))

	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(context.Background(), input, target)

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, converter.ErrWriteFailed)
	assert.NotErrorIs(t, res.Err, converter.ErrMkdirFailed)
	assert.DirExists(t, filepath.Join(target, "child"))
}

func TestProcessFile_EncodeFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, input, "\tx")

	mockEnc := new(testutil.MockEncodingHandler)
	mockEnc.On("Decode", []byte("\tx")).Return(encoding.Decoded{Text: "\tx", Encoding: "utf-8"}, nil)
	mockEnc.On("Encode", mock.MatchedBy(func(d encoding.Decoded) bool { return d.Text == "    x" })).
		Return(nil, errors.New("cannot encode"))

	logHandler, logBuf := testutil.NewTestLogger()
	p := converter.NewFileProcessor(testutil.MustConfig(t, 4, true, false), mockEnc, logHandler)
	res := p.ProcessFile(context.Background(), input, "")

	assert.ErrorIs(t, res.Err, converter.ErrWriteFailed)
	assert.NoFileExists(t, filepath.Join(dir, "a.notab"))
	assert.True(t, strings.Contains(logBuf.String(), "component=processor"))
	mockEnc.AssertExpectations(t)
}

func TestProcessFile_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.py")
	testutil.CreateDummyFile(t, input, "\tx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestProcessor(t, testutil.MustConfig(t, 4, true, false))
	res := p.ProcessFile(ctx, input, "")

	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "a.notab"))
}

func TestProcessFile_OverwriteThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	realPath := filepath.Join(dir, "real.py")
	link := filepath.Join(dir, "link.py")
	testutil.CreateDummyFile(t, realPath, "\tx\n")
	require.NoError(t, os.Symlink("real.py", link))

	p := newTestProcessor(t, testutil.MustConfig(t, 4, false, false))
	res := p.ProcessFile(context.Background(), link, "")

	require.NoError(t, res.Err)
	assert.Equal(t, link, res.OutputPath)
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link must survive the write")
	assert.Equal(t, "    x\n", testutil.ReadFileString(t, realPath))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestProcessFile_TextStartingWithMagicNumber(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "BMP", content: "BM_SIZE = 4\n\tx = 1\n", want: "BM_SIZE = 4\n    x = 1\n"},
		{name: "MP3", content: "ID3_TAG = 1\n\ty\n", want: "ID3_TAG = 1\n    y\n"},
		{name: "PDF", content: "%PDF-like = 2\n\tz\n", want: "%PDF-like = 2\n    z\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := filepath.Join(t.TempDir(), "a.py")
			testutil.CreateDummyFile(t, input, tc.content)

			p := newTestProcessor(t, testutil.MustConfig(t, 4, false, false))
			res := p.ProcessFile(context.Background(), input, "")

			require.NoError(t, res.Err)
			assert.Equal(t, converter.StatusSuccess, res.Status)
			assert.Equal(t, tc.want, testutil.ReadFileString(t, input))
		})
	}
}
