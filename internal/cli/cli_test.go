package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/smarttools/internal/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--quiet"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMergeCSV(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "name,age\nAlice,30\n")
	b := writeFile(t, dir, "b.csv", "name,city\nBob,Oslo\n")
	dest := filepath.Join(dir, "out.csv")

	out, err := execute(t, "merge", "csv", b, a, "-o", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "name,city,age\nBob,Oslo,\nAlice,,30\n", string(data))
	assert.Contains(t, out, "Wrote "+dest)
}

func TestMergeCSV_Strict(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "name,age\nAlice,30\n")
	b := writeFile(t, dir, "b.csv", "name,city\nBob,Oslo\n")

	_, err := execute(t, "merge", "csv", "--strict", a, b, "-o", filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.Equal(t, core.KindSchema, core.KindOf(err))
	assert.Contains(t, userError(err), "OP002")

	_, statErr := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no output on failure")
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	var sb bytes.Buffer
	sb.WriteString("id\n")
	for i := 0; i < 7; i++ {
		sb.WriteString("x\n")
	}
	input := writeFile(t, dir, "rows.csv", sb.String())

	out, err := execute(t, "split", input, "--rows", "3", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 files created successfully!")

	zr, err := zip.OpenReader(filepath.Join(dir, "split_files.zip"))
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"part_1.csv", "part_2.csv", "part_3.csv"}, names)
}

func TestSplit_InvalidRows(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "rows.csv", "id\n1\n")

	_, err := execute(t, "split", input, "--rows", "0")
	require.ErrorIs(t, err, core.ErrInvalidChunkSize)
	assert.Contains(t, userError(err), "OP001")
}

func TestConvert_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "people.csv", "name,age\nAlice,30\n")
	xlsx := filepath.Join(dir, "people.xlsx")
	back := filepath.Join(dir, "back.csv")

	out, err := execute(t, "convert", input, "-o", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "Converted to Excel successfully!")

	out, err = execute(t, "convert", xlsx, "-o", back)
	require.NoError(t, err)
	assert.Contains(t, out, "Converted to CSV successfully!")

	data, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "name,age\nAlice,30\n", string(data))
}

func TestConvertKind(t *testing.T) {
	tests := []struct {
		path    string
		want    core.OpKind
		wantErr bool
	}{
		{"data.csv", core.OpCSVToExcel, false},
		{"DATA.XLSX", core.OpExcelToCSV, false},
		{"notes.txt", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := convertKind(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgsAndInputs(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "merge", "pdf")
	require.Error(t, err, "merge needs at least one file")

	_, err = execute(t, "merge", "csv", filepath.Join(dir, "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)

	txt := writeFile(t, dir, "notes.txt", "hello")
	_, err = execute(t, "merge", "csv", txt)
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.Contains(t, userError(err), "notes.txt")
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "merged.csv", outputPath("", "merged.csv"))
	assert.Equal(t, filepath.Join(dir, "merged.csv"), outputPath(dir, "merged.csv"))
	assert.Equal(t, filepath.Join(dir, "x.csv"), outputPath(filepath.Join(dir, "x.csv"), "merged.csv"))
}

func TestBarReporter(t *testing.T) {
	var buf bytes.Buffer
	r := newBarReporter(&buf, "Test")

	r.Tick(1, 2)
	r.Tick(2, 2)
	r.Succeed(core.Result{})

	require.NotNil(t, r.bar)
	assert.True(t, r.bar.IsFinished())
}
