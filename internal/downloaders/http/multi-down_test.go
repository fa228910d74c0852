package danzohttp

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/symfetch/internal/pool"
	"github.com/tanq16/symfetch/internal/testutils"
	"github.com/tanq16/symfetch/internal/utils"
)

type recordingObserver struct {
	mu       sync.Mutex
	started  map[string]int64
	added    map[string]int64
	finished map[string]error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		started:  map[string]int64{},
		added:    map[string]int64{},
		finished: map[string]error{},
	}
}

func (o *recordingObserver) Start(id, label string, total int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started[id] = total
}

func (o *recordingObserver) Add(id string, n int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.added[id] += n
}

func (o *recordingObserver) Finish(id string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[id] = err
}

func newTestDownloader(t *testing.T, mode utils.Mode, chunk int64, progress utils.ProgressObserver) *Downloader {
	t.Helper()
	p, err := pool.New(4)
	require.NoError(t, err)
	return NewDownloader(http.DefaultClient, p, progress, Options{
		Mode:       mode,
		ChunkSize:  chunk,
		BufferSize: 1024,
	})
}

func TestRangeDownloadMatchesSource(t *testing.T) {
	data := testutils.GenerateTestData(3_000_000)
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{Name: "a/1.bin", Data: data}})
	obs := newRecordingObserver()
	d := newTestDownloader(t, utils.ModeRange, 1_048_576, obs)

	dest := filepath.Join(t.TempDir(), "1.bin")
	out, err := d.Download(context.Background(), "item-1", srv.URL+"/a/1.bin", dest)
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, int64(3_000_000), out.Bytes)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.ElementsMatch(t, []string{"bytes=0-1048575", "bytes=1048576-2097151", "bytes=2097152-2999999"}, srv.Ranges("/a/1.bin"))
	assert.Equal(t, int64(3_000_000), obs.started["item-1"])
	assert.Equal(t, int64(3_000_000), obs.added["item-1"])
	assert.NoError(t, obs.finished["item-1"])
}

func TestRangeDownloadOrderIndependentOfCompletion(t *testing.T) {
	data := testutils.GenerateTestData(10 * 1000)
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{
		Name: "slow-first.bin",
		Data: data,
		// earlier ranges finish last
		RangeDelay: func(start int64) time.Duration {
			return time.Duration(10-start/1000) * 3 * time.Millisecond
		},
	}})
	d := newTestDownloader(t, utils.ModeRange, 1000, nil)

	dest := filepath.Join(t.TempDir(), "out.bin")
	_, err := d.Download(context.Background(), "id", srv.URL+"/slow-first.bin", dest)
	require.NoError(t, err)

	ranged, err := os.ReadFile(dest)
	require.NoError(t, err)

	sd := newTestDownloader(t, utils.ModeStream, 1000, nil)
	streamDest := filepath.Join(t.TempDir(), "stream.bin")
	_, err = sd.Download(context.Background(), "id2", srv.URL+"/slow-first.bin", streamDest)
	require.NoError(t, err)
	streamed, err := os.ReadFile(streamDest)
	require.NoError(t, err)

	assert.Equal(t, streamed, ranged)
	assert.Equal(t, data, ranged)
}

func TestZeroLengthResource(t *testing.T) {
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{Name: "empty.bin", Data: []byte{}}})
	for _, mode := range []utils.Mode{utils.ModeRange, utils.ModeStream} {
		t.Run(string(mode), func(t *testing.T) {
			d := newTestDownloader(t, mode, 512, nil)
			dest := filepath.Join(t.TempDir(), "empty.bin")
			out, err := d.Download(context.Background(), "id", srv.URL+"/empty.bin", dest)
			require.NoError(t, err)
			assert.Zero(t, out.Bytes)
			info, err := os.Stat(dest)
			require.NoError(t, err)
			assert.Zero(t, info.Size())
		})
	}
}

func TestRangeDownloadRejectsIgnoredRange(t *testing.T) {
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{
		Name:        "full.bin",
		Data:        testutils.GenerateTestData(4096),
		IgnoreRange: true,
	}})
	d := newTestDownloader(t, utils.ModeRange, 1024, nil)
	dest := filepath.Join(t.TempDir(), "full.bin")
	out, err := d.Download(context.Background(), "id", srv.URL+"/full.bin", dest)
	assert.ErrorIs(t, err, ErrRangeNotHonored)
	assert.True(t, IsStage(err, StageFetch))
	assert.False(t, out.Succeeded())
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no output file when a range failed")
}

func TestShortBodyFailsVerification(t *testing.T) {
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{
		Name:      "short.bin",
		Data:      testutils.GenerateTestData(4096),
		ShortBody: 10,
	}})
	for _, mode := range []utils.Mode{utils.ModeRange, utils.ModeStream} {
		t.Run(string(mode), func(t *testing.T) {
			d := newTestDownloader(t, mode, 1024, nil)
			_, err := d.Download(context.Background(), "id", srv.URL+"/short.bin", filepath.Join(t.TempDir(), "short.bin"))
			assert.ErrorIs(t, err, ErrSizeMismatch)
			assert.True(t, IsStage(err, StageAssemble))
		})
	}
}

func TestDownloadResolveFailureReportsProgress(t *testing.T) {
	srv := testutils.StartTestHTTPServer(t, nil)
	obs := newRecordingObserver()
	d := newTestDownloader(t, utils.ModeRange, 1024, obs)
	out, err := d.Download(context.Background(), "gone", srv.URL+"/missing/2.bin", filepath.Join(t.TempDir(), "2.bin"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsStage(err, StageResolve))
	assert.Equal(t, err, out.Err)
	assert.ErrorIs(t, obs.finished["gone"], ErrNotFound)
}

func TestDownloadDefaultsToResolvedName(t *testing.T) {
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{
		Name:        "get",
		Data:        []byte("payload"),
		Disposition: `attachment; filename="named.txt"`,
	}})
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	d := newTestDownloader(t, utils.ModeRange, 4, nil)
	out, err := d.Download(context.Background(), "id", srv.URL+"/get", "")
	require.NoError(t, err)
	assert.Equal(t, "named.txt", out.Path)
	got, err := os.ReadFile("named.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestDownloadOverwritesExistingFile(t *testing.T) {
	srv := testutils.StartTestHTTPServer(t, []testutils.TestFile{{Name: "f.bin", Data: []byte("new")}})
	dest := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(dest, []byte("much older and longer content"), 0o644))
	d := newTestDownloader(t, utils.ModeRange, 2, nil)
	_, err := d.Download(context.Background(), "id", srv.URL+"/f.bin", dest)
	require.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
