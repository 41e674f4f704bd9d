package rating

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync/atomic"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/metrics"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/tomb.v2"
)

// ErrNotRunning is returned when Recompute is called before Start or after Stop.
var ErrNotRunning = errors.New("rating aggregator is not running")

const (
	queueSize  = 64
	jobTimeout = 10 * time.Second
)

// RatingSource reads the ratings of every review of a trainer.
type RatingSource interface {
	RatingsByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]int, error)
}

// RatingSink stores a trainer's aggregate.
type RatingSink interface {
	SetRating(ctx context.Context, trainerID primitive.ObjectID, summary domain.RatingSummary) error
}

type job struct {
	ctx       context.Context
	trainerID primitive.ObjectID
	done      chan result
}

type result struct {
	summary domain.RatingSummary
	err     error
}

// Aggregator recomputes trainer aggregates through per-trainer single-writer queues.
//
// A trainer id always hashes to the same worker, so the read-all and the write of two
// recomputations for one trainer never interleave.
type Aggregator struct {
	t       tomb.Tomb
	queues  []chan job
	source  RatingSource
	sink    RatingSink
	metrics *metrics.Metrics
	log     zerolog.Logger
	running atomic.Bool
}

func NewAggregator(source RatingSource, sink RatingSink, workers int, m *metrics.Metrics, logger zerolog.Logger) *Aggregator {
	if workers <= 0 {
		workers = 1
	}
	queues := make([]chan job, workers)
	for i := range queues {
		queues[i] = make(chan job, queueSize)
	}
	return &Aggregator{
		queues:  queues,
		source:  source,
		sink:    sink,
		metrics: m,
		log:     logger,
	}
}

// Start launches the workers. It must be called once.
func (a *Aggregator) Start() {
	for i := range a.queues {
		q := a.queues[i]
		a.t.Go(func() error {
			a.run(q)
			return nil
		})
	}
	a.running.Store(true)
	a.log.Info().Int("workers", len(a.queues)).Msg("rating aggregator started")
}

// Stop kills the workers and waits for them. Jobs still queued are answered with ErrNotRunning.
func (a *Aggregator) Stop() error {
	if !a.running.Swap(false) {
		return nil
	}
	a.t.Kill(nil)
	err := a.t.Wait()
	for _, q := range a.queues {
		drain(q)
	}
	a.log.Info().Msg("rating aggregator stopped")
	return err
}

// Recompute recalculates and stores the aggregate of trainerID and returns it.
// The caller blocks until the job is done or ctx ends. A job already queued still
// runs when ctx ends so the stored aggregate converges.
func (a *Aggregator) Recompute(ctx context.Context, trainerID primitive.ObjectID) (domain.RatingSummary, error) {
	if !a.running.Load() {
		return domain.RatingSummary{}, ErrNotRunning
	}
	j := job{ctx: ctx, trainerID: trainerID, done: make(chan result, 1)}

	select {
	case a.queues[a.shard(trainerID)] <- j:
	case <-ctx.Done():
		return domain.RatingSummary{}, ctx.Err()
	case <-a.t.Dying():
		return domain.RatingSummary{}, ErrNotRunning
	}

	select {
	case r := <-j.done:
		return r.summary, r.err
	case <-ctx.Done():
		return domain.RatingSummary{}, ctx.Err()
	case <-a.t.Dead():
		// A send that raced with Stop may land after the final drain.
		select {
		case r := <-j.done:
			return r.summary, r.err
		default:
			return domain.RatingSummary{}, ErrNotRunning
		}
	}
}

func (a *Aggregator) shard(trainerID primitive.ObjectID) int {
	h := fnv.New32a()
	_, _ = h.Write(trainerID[:])
	return int(h.Sum32() % uint32(len(a.queues)))
}

func (a *Aggregator) run(q chan job) {
	for {
		select {
		case <-a.t.Dying():
			return
		case j := <-q:
			summary, err := a.compute(j)
			j.done <- result{summary: summary, err: err}
		}
	}
}

func (a *Aggregator) compute(j job) (domain.RatingSummary, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), jobTimeout)
	defer cancel()

	summary, err := a.recompute(ctx, j.trainerID)
	a.metrics.RatingRecomputeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.RatingRecomputeFailures.Inc()
		a.log.Error().Err(err).Str("trainer_id", j.trainerID.Hex()).Msg("rating recompute failed")
		return domain.RatingSummary{}, err
	}
	a.log.Debug().
		Str("trainer_id", j.trainerID.Hex()).
		Float64("rating", summary.Rating).
		Int("reviews_count", summary.ReviewsCount).
		Msg("rating recomputed")
	return summary, nil
}

func (a *Aggregator) recompute(ctx context.Context, trainerID primitive.ObjectID) (domain.RatingSummary, error) {
	ratings, err := a.source.RatingsByTrainer(ctx, trainerID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("read ratings: %w", err)
	}
	summary := Summarize(ratings)
	if err := a.sink.SetRating(ctx, trainerID, summary); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("write aggregate: %w", err)
	}
	return summary, nil
}

func drain(q chan job) {
	for {
		select {
		case j := <-q:
			j.done <- result{err: ErrNotRunning}
		default:
			return
		}
	}
}
