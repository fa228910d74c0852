package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerTracksProgress(t *testing.T) {
	m := NewManager(&bytes.Buffer{})
	m.Start("a", "a/1.bin", 100)
	m.Add("a", 40)
	m.Add("a", 60)
	m.Add("unknown", 5)

	info, ok := m.Snapshot("a")
	require.True(t, ok)
	assert.Equal(t, int64(100), info.Downloaded)
	assert.False(t, info.Complete)

	m.Finish("a", nil)
	info, _ = m.Snapshot("a")
	assert.True(t, info.Complete)
	assert.Equal(t, "success", info.Status)

	_, ok = m.Snapshot("unknown")
	assert.False(t, ok)
}

func TestManagerRecordsErrors(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(&out)
	m.Start("b", "missing/2.bin", -1)
	m.Finish("b", errors.New("resolve: resource not found (404)"))

	info, _ := m.Snapshot("b")
	assert.Equal(t, "error", info.Status)

	m.ShowErrors()
	assert.Contains(t, out.String(), "missing/2.bin")
	assert.Contains(t, out.String(), "resource not found (404)")
}

func TestManagerDisplayLifecycle(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(&out)
	m.displayTick = time.Millisecond
	m.StartDisplay()
	m.Start("c", "c.bin", 10)
	m.Add("c", 10)
	m.Finish("c", nil)
	m.StopDisplay()
	assert.Contains(t, out.String(), "c.bin")
}

func TestWriteSuccessLogReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	require.NoError(t, WriteSuccessLog(path, []string{"a/1.bin", "c/3.bin"}))
	require.NoError(t, WriteSuccessLog(path, []string{"a/1.bin"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a/1.bin\n", string(data))
}

func TestSummaryLine(t *testing.T) {
	assert.Contains(t, SummaryLine(time.Second, 0, 3, "x.log"), "Nothing downloaded")
	line := SummaryLine(1500*time.Millisecond, 2, 3, "x.log")
	assert.Contains(t, line, "2 of 3")
	assert.Contains(t, line, "x.log")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "2.86 MB", FormatBytes(3_000_000))
}
