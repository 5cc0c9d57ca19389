package continuation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOption_Empty(t *testing.T) {
	opt, err := ParseOption("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, opt.Mode)
	assert.False(t, opt.HasThread)
}

func TestParseOption_BareMode(t *testing.T) {
	opt, err := ParseOption("next")
	require.NoError(t, err)
	assert.Equal(t, ModeNext, opt.Mode)
	assert.False(t, opt.HasThread)
}

func TestParseOption_ModeEqualsThread(t *testing.T) {
	opt, err := ParseOption("after=my thread")
	require.NoError(t, err)
	assert.Equal(t, ModeAfter, opt.Mode)
	require.True(t, opt.HasThread)
	assert.Equal(t, "my_thread", opt.ThreadName)
}

func TestParseOption_UnknownModeInEqualsForm(t *testing.T) {
	_, err := ParseOption("bogus=thread")
	require.Error(t, err)
}

func TestParseOption_BareThreadName(t *testing.T) {
	opt, err := ParseOption("release/2026.08")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, opt.Mode)
	require.True(t, opt.HasThread)
	assert.Equal(t, "release_2026.08", opt.ThreadName)
}

func TestSanitizeThreadName_DropsDisallowedRunesAndTruncates(t *testing.T) {
	name, ok := sanitizeThreadName("a!b@c" + strings.Repeat("x", 100))
	require.True(t, ok)
	assert.LessOrEqual(t, len(name), 63)
	assert.Equal(t, "abc", name[:3])
}

func TestSanitizeThreadName_EmptyInputIsNotOK(t *testing.T) {
	_, ok := sanitizeThreadName("")
	assert.False(t, ok)
}

func TestSanitizeThreadName_AllDisallowedYieldsNotOK(t *testing.T) {
	_, ok := sanitizeThreadName("!!!")
	assert.False(t, ok)
}

func TestStatePath_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("TMPDIR", "")

	path, err := StatePath(42, Option{Mode: ModeAuto})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aicli", ".previous_response_id_s42"), path)

	info, statErr := os.Stat(filepath.Join(dir, "aicli"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestStatePath_FallsBackToTMPDIRThenTmp(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("TMPDIR", dir)

	path, err := StatePath(7, Option{Mode: ModeAuto})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aicli", ".previous_response_id_s7"), path)
}

func TestStatePath_IncludesThreadSuffixWhenPresent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	path, err := StatePath(1, Option{Mode: ModeNext, ThreadName: "feature_x", HasThread: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aicli", ".previous_response_id_s1_feature_x"), path)
}

func TestWriteThenReadID_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".previous_response_id_s1")

	require.NoError(t, WriteID(path, "resp_abc123"))

	id, ok, err := ReadID(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "resp_abc123", id)
}

func TestReadID_MissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".previous_response_id_snotfound")

	id, ok, err := ReadID(path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestWriteID_RejectsEmptyID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".previous_response_id_sempty")

	err := WriteID(path, "")
	require.Error(t, err)

	_, ok, readErr := ReadID(path)
	require.NoError(t, readErr)
	assert.False(t, ok)
}

func TestWriteID_LeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".previous_response_id_s9")

	require.NoError(t, WriteID(path, "resp_xyz"))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteID_OverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".previous_response_id_s3")

	require.NoError(t, WriteID(path, "resp_first"))
	require.NoError(t, WriteID(path, "resp_second"))

	id, ok, err := ReadID(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "resp_second", id)
}
