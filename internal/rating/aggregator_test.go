package rating

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/metrics"
	"trackify/api/internal/repository/repotest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func startAggregator(t *testing.T, source RatingSource, sink RatingSink, workers int) *Aggregator {
	t.Helper()
	a := NewAggregator(source, sink, workers, metrics.New(), zerolog.Nop())
	a.Start()
	t.Cleanup(func() { require.NoError(t, a.Stop()) })
	return a
}

func addReview(t *testing.T, reviews *repotest.Reviews, trainerID primitive.ObjectID, rating int) primitive.ObjectID {
	t.Helper()
	id, err := reviews.Create(context.Background(), &domain.Review{TrainerID: trainerID, UserID: primitive.NewObjectID(), Rating: rating})
	require.NoError(t, err)
	return id
}

func TestAggregator_Scenarios(t *testing.T) {
	ctx := context.Background()
	reviews := repotest.NewReviews()
	trainers := repotest.NewTrainers()
	trainer := trainers.Put(domain.Trainer{Name: "Tess"})
	a := startAggregator(t, reviews, trainers, 2)

	// Zero reviews, then one five star review.
	first := addReview(t, reviews, trainer.ID, 5)
	s, err := a.Recompute(ctx, trainer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RatingSummary{Rating: 5, ReviewsCount: 1}, s)

	// [5] -> [3,5] -> [3,5,4]
	require.NoError(t, reviews.Delete(ctx, first))
	addReview(t, reviews, trainer.ID, 3)
	addReview(t, reviews, trainer.ID, 5)
	s, err = a.Recompute(ctx, trainer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RatingSummary{Rating: 4, ReviewsCount: 2}, s)

	last := addReview(t, reviews, trainer.ID, 4)
	s, err = a.Recompute(ctx, trainer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RatingSummary{Rating: 4, ReviewsCount: 3}, s)

	stored, _ := trainers.Get(trainer.ID)
	require.Equal(t, 4.0, stored.Rating)
	require.Equal(t, 3, stored.ReviewsCount)

	// Deleting every review resets to exactly zero.
	require.NoError(t, reviews.Delete(ctx, last))
	all, err := reviews.GetByTrainerID(ctx, trainer.ID)
	require.NoError(t, err)
	for _, r := range all {
		require.NoError(t, reviews.Delete(ctx, r.ID))
	}
	s, err = a.Recompute(ctx, trainer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RatingSummary{}, s)

	stored, _ = trainers.Get(trainer.ID)
	require.Equal(t, 0.0, stored.Rating)
	require.Equal(t, 0, stored.ReviewsCount)
}

func TestAggregator_ConcurrentWritesConverge(t *testing.T) {
	ctx := context.Background()
	reviews := repotest.NewReviews()
	trainers := repotest.NewTrainers()
	trainer := trainers.Put(domain.Trainer{Name: "Tess"})
	a := startAggregator(t, reviews, trainers, 4)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := reviews.Create(ctx, &domain.Review{TrainerID: trainer.ID, UserID: primitive.NewObjectID(), Rating: rating})
			assert.NoError(t, err)
			_, err = a.Recompute(ctx, trainer.ID)
			assert.NoError(t, err)
		}(i%5 + 1)
	}
	wg.Wait()

	ratings, err := reviews.RatingsByTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	stored, _ := trainers.Get(trainer.ID)
	require.Equal(t, Summarize(ratings), domain.RatingSummary{Rating: stored.Rating, ReviewsCount: stored.ReviewsCount})
	require.Equal(t, 50, stored.ReviewsCount)
	require.Equal(t, 3.0, stored.Rating)
}

// overlapSource records the largest number of concurrent reads per trainer.
type overlapSource struct {
	mu       sync.Mutex
	inflight map[primitive.ObjectID]int
	max      int32
}

func (s *overlapSource) RatingsByTrainer(_ context.Context, id primitive.ObjectID) ([]int, error) {
	s.mu.Lock()
	s.inflight[id]++
	if n := int32(s.inflight[id]); n > atomic.LoadInt32(&s.max) {
		atomic.StoreInt32(&s.max, n)
	}
	s.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	s.mu.Lock()
	s.inflight[id]--
	s.mu.Unlock()
	return []int{5}, nil
}

type nopSink struct{}

func (nopSink) SetRating(context.Context, primitive.ObjectID, domain.RatingSummary) error { return nil }

func TestAggregator_SerializesPerTrainer(t *testing.T) {
	src := &overlapSource{inflight: map[primitive.ObjectID]int{}}
	a := startAggregator(t, src, nopSink{}, 8)
	trainerID := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Recompute(context.Background(), trainerID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&src.max))
}

type failingSink struct{}

func (failingSink) SetRating(context.Context, primitive.ObjectID, domain.RatingSummary) error {
	return errors.New("write failed")
}

func TestAggregator_ReportsWriteFailure(t *testing.T) {
	reviews := repotest.NewReviews()
	a := startAggregator(t, reviews, failingSink{}, 1)

	_, err := a.Recompute(context.Background(), primitive.NewObjectID())
	require.Error(t, err)
	require.Contains(t, err.Error(), "write aggregate")
}

func TestAggregator_NotRunning(t *testing.T) {
	a := NewAggregator(repotest.NewReviews(), repotest.NewTrainers(), 1, metrics.New(), zerolog.Nop())
	_, err := a.Recompute(context.Background(), primitive.NewObjectID())
	require.ErrorIs(t, err, ErrNotRunning)

	a.Start()
	require.NoError(t, a.Stop())
	_, err = a.Recompute(context.Background(), primitive.NewObjectID())
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestAggregator_CallerContextCancelled(t *testing.T) {
	a := startAggregator(t, repotest.NewReviews(), repotest.NewTrainers(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Recompute(ctx, primitive.NewObjectID())
	require.Error(t, err)
}

func TestAggregator_JobQueuedDuringShutdownIsAnswered(t *testing.T) {
	a := NewAggregator(repotest.NewReviews(), repotest.NewTrainers(), 1, metrics.New(), zerolog.Nop())
	a.Start()
	// Workers gone but Stop has not drained yet: a send can still land in the queue.
	a.t.Kill(nil)
	require.NoError(t, a.t.Wait())

	for i := 0; i < 20; i++ {
		errc := make(chan error, 1)
		go func() {
			_, err := a.Recompute(context.Background(), primitive.NewObjectID())
			errc <- err
		}()
		select {
		case err := <-errc:
			require.ErrorIs(t, err, ErrNotRunning)
		case <-time.After(2 * time.Second):
			t.Fatal("Recompute blocked after the workers stopped")
		}
	}
	require.NoError(t, a.Stop())
}
