package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

// Source is a named file to parse. Open is called once by a worker.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource returns a Source backed by a local path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Result is the outcome for one source.
type Result struct {
	Name  string
	Table dataset.Table
	Err   error
}

// ParseAll parses sources with a bounded worker pool. Results keep input order; per-file errors are
// reported in Result.Err rather than aborting the batch.
func ParseAll(ctx context.Context, sources []Source, workerCount int) ([]Result, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	results := make([]Result, len(sources))
	jobs := make(chan int, len(sources))
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				src := sources[idx]
				t, err := parseSource(src)
				if err != nil {
					log.Warn().Err(err).Int("worker", workerID).Str("file", src.Name).Msg("failed to parse file")
				}
				results[idx] = Result{Name: src.Name, Table: t, Err: err}
			}
		}(i)
	}

	for i := range sources {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

func parseSource(src Source) (dataset.Table, error) {
	rc, err := src.Open()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer rc.Close()
	return Parse(src.Name, rc)
}

// MergeResults concatenates successful tables and returns the first error if any source failed.
func MergeResults(results []Result) (dataset.Table, error) {
	tables := make([]dataset.Table, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return dataset.Table{}, r.Err
		}
		tables = append(tables, r.Table)
	}
	if len(tables) == 0 {
		return dataset.Table{}, ErrNoRows
	}
	return Merge(tables...), nil
}
