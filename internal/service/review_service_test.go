package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"trackify/api/internal/domain"
	"trackify/api/internal/metrics"
	"trackify/api/internal/rating"
	"trackify/api/internal/repository/repotest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewFixture struct {
	reviews  *repotest.Reviews
	trainers *repotest.Trainers
	svc      ReviewService
	trainer  domain.Trainer
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	f := &reviewFixture{reviews: repotest.NewReviews(), trainers: repotest.NewTrainers()}
	agg := rating.NewAggregator(f.reviews, f.trainers, 4, metrics.New(), zerolog.Nop())
	agg.Start()
	t.Cleanup(func() { require.NoError(t, agg.Stop()) })
	f.svc = NewReviewService(f.reviews, f.trainers, agg, zerolog.Nop())
	f.trainer = f.trainers.Put(domain.Trainer{Name: "Tess", Specialization: "Yoga", IsActive: true})
	return f
}

func (f *reviewFixture) stored(t *testing.T) domain.Trainer {
	t.Helper()
	tr, ok := f.trainers.Get(f.trainer.ID)
	require.True(t, ok)
	return tr
}

func TestReviewCreate_RecomputesAggregate(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	author := userPrincipal(domain.RoleUser)

	res, err := f.svc.Create(ctx, author, ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 5, Comment: " Great "})
	require.NoError(t, err)
	require.Equal(t, "Uma User", res.Review.UserName)
	require.Equal(t, "Great", res.Review.Comment)
	require.Equal(t, author.ID(), res.Review.UserID)
	require.Equal(t, &domain.RatingSummary{Rating: 5, ReviewsCount: 1}, res.Trainer)

	res, err = f.svc.Create(ctx, userPrincipal(domain.RoleUser), ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 3, Comment: "ok", UserName: "Anon"})
	require.NoError(t, err)
	require.Equal(t, "Anon", res.Review.UserName)
	require.Equal(t, &domain.RatingSummary{Rating: 4, ReviewsCount: 2}, res.Trainer)

	tr := f.stored(t)
	require.Equal(t, 4.0, tr.Rating)
	require.Equal(t, 2, tr.ReviewsCount)
}

func TestReviewCreate_Validation(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	author := userPrincipal(domain.RoleUser)

	cases := []ReviewInput{
		{TrainerID: "nope", Rating: 5, Comment: "x"},
		{TrainerID: f.trainer.ID.Hex(), Rating: 0, Comment: "x"},
		{TrainerID: f.trainer.ID.Hex(), Rating: 6, Comment: "x"},
		{TrainerID: f.trainer.ID.Hex(), Rating: 4, Comment: "  "},
		{TrainerID: f.trainer.ID.Hex(), Rating: 4, Comment: strings.Repeat("a", 1001)},
	}
	for _, in := range cases {
		_, err := f.svc.Create(ctx, author, in)
		requireKind(t, err, KindValidation)
	}

	_, err := f.svc.Create(ctx, author, ReviewInput{TrainerID: primitive.NewObjectID().Hex(), Rating: 4, Comment: "x"})
	requireKind(t, err, KindNotFound)

	n, _ := f.reviews.Count(ctx)
	require.Zero(t, n)
}

func TestReviewUpdateDelete_Scenario(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	alice := userPrincipal(domain.RoleUser)
	bob := userPrincipal(domain.RoleUser)

	first, err := f.svc.Create(ctx, alice, ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 5, Comment: "a"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, bob, ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 4, Comment: "b"})
	require.NoError(t, err)

	three := 3
	res, err := f.svc.Update(ctx, alice, first.Review.ID.Hex(), ReviewUpdate{Rating: &three})
	require.NoError(t, err)
	require.Equal(t, 3, res.Review.Rating)
	require.Equal(t, "a", res.Review.Comment)
	require.Equal(t, &domain.RatingSummary{Rating: 3.5, ReviewsCount: 2}, res.Trainer)

	// Someone else's review.
	one := 1
	_, err = f.svc.Update(ctx, bob, first.Review.ID.Hex(), ReviewUpdate{Rating: &one})
	requireKind(t, err, KindAuthorization)
	_, err = f.svc.Delete(ctx, bob, first.Review.ID.Hex())
	requireKind(t, err, KindAuthorization)

	res, err = f.svc.Delete(ctx, alice, first.Review.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, &domain.RatingSummary{Rating: 4, ReviewsCount: 1}, res.Trainer)

	_, err = f.svc.Delete(ctx, alice, first.Review.ID.Hex())
	requireKind(t, err, KindNotFound)
}

func TestReviewModeration_ByRoleAdmin(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, userPrincipal(domain.RoleUser), ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 2, Comment: "meh"})
	require.NoError(t, err)

	res, err := f.svc.Delete(ctx, adminPrincipal(domain.Permissions{}, false), created.Review.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, &domain.RatingSummary{}, res.Trainer)

	tr := f.stored(t)
	require.Equal(t, 0.0, tr.Rating)
	require.Equal(t, 0, tr.ReviewsCount)
}

func TestReviewCreate_AggregateFailureStillSucceeds(t *testing.T) {
	f := newReviewFixture(t)
	f.trainers.SetRatingErr = errBoom

	res, err := f.svc.Create(context.Background(), userPrincipal(domain.RoleUser), ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 5, Comment: "x"})
	require.NoError(t, err)
	require.NotNil(t, res.Review)
	require.Nil(t, res.Trainer)

	n, _ := f.reviews.Count(context.Background())
	require.Equal(t, int64(1), n)
}

func TestReviewCreate_ConcurrentConverges(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Create(ctx, userPrincipal(domain.RoleUser), ReviewInput{
				TrainerID: f.trainer.ID.Hex(),
				Rating:    i%5 + 1,
				Comment:   "concurrent",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	tr := f.stored(t)
	require.Equal(t, 40, tr.ReviewsCount)
	require.Equal(t, 3.0, tr.Rating)
}

func TestReviewList_IsMine(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	alice := userPrincipal(domain.RoleUser)

	_, err := f.svc.Create(ctx, alice, ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 5, Comment: "first"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, userPrincipal(domain.RoleUser), ReviewInput{TrainerID: f.trainer.ID.Hex(), Rating: 4, Comment: "second"})
	require.NoError(t, err)

	anon, err := f.svc.ListForTrainer(ctx, f.trainer.ID.Hex(), nil)
	require.NoError(t, err)
	require.Len(t, anon, 2)
	for _, v := range anon {
		require.Nil(t, v.IsMine)
	}

	views, err := f.svc.ListForTrainer(ctx, f.trainer.ID.Hex(), alice)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "second", views[0].Comment)
	require.False(t, *views[0].IsMine)
	require.True(t, *views[1].IsMine)

	_, err = f.svc.ListForTrainer(ctx, primitive.NewObjectID().Hex(), nil)
	requireKind(t, err, KindNotFound)
}
