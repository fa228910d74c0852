package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	danzohttp "github.com/tanq16/symfetch/internal/downloaders/http"
	"github.com/tanq16/symfetch/internal/output"
	"github.com/tanq16/symfetch/internal/utils"
)

// Submitter accepts outer work. Submit blocks while the pool is saturated.
type Submitter interface {
	Submit(ctx context.Context, task func()) error
	Wait()
}

// Publisher receives every successfully downloaded file.
type Publisher interface {
	Publish(ctx context.Context, localPath, fragment string) error
}

type Options struct {
	BaseURL    string
	OutputDir  string
	LogPath    string
	Pool       Submitter
	Downloader *danzohttp.Downloader
	Mirror     Publisher              // optional
	Progress   utils.ProgressObserver // optional, should be the downloader's observer
}

type BatchResult struct {
	Total     int
	Succeeded []string        // in the order completions were observed
	Failed    []utils.Outcome // diagnostics only
	Elapsed   time.Duration
	LogPath   string // empty when nothing was written
}

func (r *BatchResult) NothingDownloaded() bool {
	return len(r.Succeeded) == 0
}

// Run downloads every entry independently on the shared pool. A failing
// entry never affects the others. The success log is written only when at
// least one entry made it; the returned error covers that write alone.
func Run(ctx context.Context, entries []string, opts Options) (*BatchResult, error) {
	log := utils.GetLogger("scheduler")
	if opts.Progress == nil {
		opts.Progress = utils.NopObserver{}
	}
	if opts.LogPath == "" {
		opts.LogPath = utils.DefaultLogFile
	}
	log.Info().Int("total", len(entries)).Str("base", opts.BaseURL).Msg("Initiating batch")
	startTime := time.Now()

	outcomes := make(chan *utils.Outcome, len(entries))
	for _, uri := range entries {
		uri := uri
		id := uuid.NewString()
		err := opts.Pool.Submit(ctx, func() {
			outcomes <- processItem(ctx, id, uri, opts)
		})
		if err != nil {
			outcomes <- &utils.Outcome{ID: id, URI: uri, Err: fmt.Errorf("not scheduled: %w", err)}
		}
	}
	opts.Pool.Wait()
	close(outcomes)

	result := &BatchResult{Total: len(entries)}
	for out := range outcomes {
		if out.Succeeded() {
			result.Succeeded = append(result.Succeeded, out.URI)
			continue
		}
		result.Failed = append(result.Failed, *out)
	}
	result.Elapsed = time.Since(startTime)
	log.Info().Int("succeeded", len(result.Succeeded)).Int("failed", len(result.Failed)).Dur("elapsed", result.Elapsed).Msg("Batch finished")

	if result.NothingDownloaded() {
		return result, nil
	}
	if err := output.WriteSuccessLog(opts.LogPath, result.Succeeded); err != nil {
		return result, err
	}
	result.LogPath = opts.LogPath
	return result, nil
}

func processItem(ctx context.Context, id, uri string, opts Options) *utils.Outcome {
	log := utils.GetLogger("scheduler").With().Str("id", id).Str("uri", uri).Logger()
	fail := func(err error) *utils.Outcome {
		opts.Progress.Start(id, uri, -1)
		opts.Progress.Finish(id, err)
		log.Warn().Err(err).Msg("Item not downloaded")
		return &utils.Outcome{ID: id, URI: uri, Err: err}
	}

	rawURL, err := utils.ItemURL(opts.BaseURL, uri)
	if err != nil {
		return fail(err)
	}
	outputPath, err := utils.ItemOutputPath(opts.OutputDir, uri)
	if err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fail(fmt.Errorf("error creating output directory: %w", err))
	}

	out, err := opts.Downloader.Download(ctx, id, rawURL, outputPath)
	out.URI = uri
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Item not downloaded")
		return out
	}
	if opts.Mirror != nil {
		if err := opts.Mirror.Publish(ctx, outputPath, uri); err != nil {
			out.Err = err
			opts.Progress.Finish(id, err)
			log.Warn().Err(err).Msg("Mirror upload failed")
			return out
		}
	}
	log.Debug().Str("output", outputPath).Int64("bytes", out.Bytes).Msg("Item downloaded")
	return out
}
