package danzohttp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/tanq16/symfetch/internal/utils"
)

// ForkJoiner runs n indexed tasks and returns when all have finished. The
// batch pool satisfies it, so range fetches share the run's worker limit.
type ForkJoiner interface {
	ForkJoin(n int, task func(i int))
}

type Options struct {
	Mode       utils.Mode
	ChunkSize  int64
	BufferSize int
	UserAgent  string
}

// Downloader turns one URL into one local file: resolve, plan, fetch, assemble.
type Downloader struct {
	resolver *Resolver
	fetcher  *Fetcher
	pool     ForkJoiner
	progress utils.ProgressObserver
	opts     Options
}

func NewDownloader(client utils.HTTPDoer, pool ForkJoiner, progress utils.ProgressObserver, opts Options) *Downloader {
	if opts.Mode == "" {
		opts.Mode = utils.ModeRange
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = utils.DefaultChunkSize
	}
	if progress == nil {
		progress = utils.NopObserver{}
	}
	return &Downloader{
		resolver: NewResolver(client, opts.UserAgent),
		fetcher:  NewFetcher(client, opts.UserAgent, opts.BufferSize),
		pool:     pool,
		progress: progress,
		opts:     opts,
	}
}

// Download fetches rawURL into outputPath, or into the resolved file name in
// the working directory when outputPath is empty. The returned outcome is
// always populated; its Err matches the returned error. Nothing is retried.
func (d *Downloader) Download(ctx context.Context, id, rawURL, outputPath string) (*utils.Outcome, error) {
	log := utils.GetLogger("http-downloader").With().Str("id", id).Logger()
	out := &utils.Outcome{ID: id, URL: rawURL, Path: outputPath}
	fail := func(err error) (*utils.Outcome, error) {
		out.Err = err
		log.Debug().Err(err).Str("url", rawURL).Msg("Download failed")
		d.progress.Finish(id, err)
		return out, err
	}

	res, err := d.resolver.Resolve(ctx, rawURL)
	if err != nil {
		d.progress.Start(id, labelFor(outputPath, rawURL), -1)
		return fail(stageErr(StageResolve, err))
	}
	out.Name = res.Name
	if out.Path == "" {
		out.Path = res.Name
	}
	d.progress.Start(id, out.Path, res.Length)

	switch d.opts.Mode {
	case utils.ModeStream:
		log.Debug().Str("output", out.Path).Msg("Stream download")
		out.Bytes, err = d.streamTo(ctx, id, res, out.Path)
	default:
		log.Debug().Str("output", out.Path).Int64("chunkSize", d.opts.ChunkSize).Msg("Range download")
		out.Bytes, err = d.rangesTo(ctx, id, res, out.Path)
	}
	if err != nil {
		return fail(err)
	}
	log.Debug().Str("output", out.Path).Int64("bytes", out.Bytes).Msg("Download completed successfully")
	d.progress.Finish(id, nil)
	return out, nil
}

func (d *Downloader) rangesTo(ctx context.Context, id string, res *RemoteResource, path string) (int64, error) {
	ranges, err := PlanRanges(res.Length, d.opts.ChunkSize)
	if err != nil {
		return 0, stageErr(StagePlan, err)
	}

	chunks := make([]*Chunk, len(ranges))
	errs := make([]error, len(ranges))
	var failed atomic.Bool
	d.pool.ForkJoin(len(ranges), func(i int) {
		// an item is all-or-nothing, so ranges not yet started after a failure are skipped
		if failed.Load() {
			return
		}
		c, err := d.fetcher.FetchRange(ctx, res, ranges[i])
		if err != nil {
			errs[i] = err
			failed.Store(true)
			return
		}
		chunks[i] = &c
		d.progress.Add(id, int64(len(c.Data)))
	})
	if failed.Load() {
		for _, err := range errs {
			if err != nil {
				return 0, stageErr(StageFetch, err)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, stageErr(StageAssemble, fmt.Errorf("error creating output file: %w", err))
	}
	written, err := AssembleChunks(f, res.Length, chunks)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("error closing output file: %w", closeErr)
	}
	if err != nil {
		return written, stageErr(StageAssemble, err)
	}
	return written, nil
}

func (d *Downloader) streamTo(ctx context.Context, id string, res *RemoteResource, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, stageErr(StageAssemble, fmt.Errorf("error creating output file: %w", err))
	}
	written, err := d.fetcher.Stream(ctx, res, f, func(n int64) {
		d.progress.Add(id, n)
	})
	closeErr := f.Close()
	if err != nil {
		return written, stageErr(StageFetch, err)
	}
	if closeErr != nil {
		return written, stageErr(StageAssemble, fmt.Errorf("error closing output file: %w", closeErr))
	}
	if err := VerifyLength(res.Length, written); err != nil {
		return written, stageErr(StageAssemble, err)
	}
	return written, nil
}

func labelFor(outputPath, rawURL string) string {
	if outputPath != "" {
		return outputPath
	}
	return rawURL
}

// IsStage reports whether err failed in the given stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
