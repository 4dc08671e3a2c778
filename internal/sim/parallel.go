package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/mount"
)

// Job is one offline run in a batch.
type Job struct {
	Name   string
	Source harness.Source
}

type JobResult struct {
	Name   string
	Result *Result
	Err    error
}

// Batch runs many input sources through the same mount and plant, each
// with its own metric set.
type Batch struct {
	dec     *mount.Decoupler
	plant   PlantConfig
	workers int
}

func NewBatch(dec *mount.Decoupler, plant PlantConfig, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{dec: dec, plant: plant, workers: workers}
}

// Run returns results in job order. A failing job does not stop the others.
func (b *Batch) Run(ctx context.Context, jobs []Job, cfg Config) []JobResult {
	results := make([]JobResult, len(jobs))
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < b.workers && w < len(jobs); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				s := New(b.dec, jobs[i].Source, b.plant)
				for _, m := range DefaultMetrics() {
					s.AddMetric(m)
				}
				res, err := s.Run(ctx, cfg)
				results[i] = JobResult{Name: jobs[i].Name, Result: res, Err: err}
			}
		}()
	}

	for i := range jobs {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return results
}
