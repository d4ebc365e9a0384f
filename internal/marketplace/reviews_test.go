package marketplace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService() *Service {
	return &Service{
		ID:       primitive.NewObjectID(),
		Title:    "Deep cleaning",
		Provider: primitive.NewObjectID(),
		Price:    80,
		Status:   ServiceAvailable,
		Reviews:  []Review{},
	}
}

func TestAddReviewRecomputesMeanRating(t *testing.T) {
	svc := newTestService()
	now := time.Now()

	require.NoError(t, svc.AddReview(primitive.NewObjectID(), 5, "great", now))
	assert.Equal(t, 5.0, svc.Rating)

	require.NoError(t, svc.AddReview(primitive.NewObjectID(), 2, "late arrival", now))
	assert.Equal(t, 3.5, svc.Rating)

	require.NoError(t, svc.AddReview(primitive.NewObjectID(), 4, "solid", now))
	assert.InDelta(t, 11.0/3.0, svc.Rating, 1e-9)
	assert.Len(t, svc.Reviews, 3)
}

func TestAddReviewOnePerUser(t *testing.T) {
	svc := newTestService()
	reviewer := primitive.NewObjectID()
	now := time.Now()

	require.NoError(t, svc.AddReview(reviewer, 4, "good", now))
	ratingBefore := svc.Rating

	err := svc.AddReview(reviewer, 1, "changed my mind", now)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.Equal(t, ratingBefore, svc.Rating)
	assert.Len(t, svc.Reviews, 1)
}

func TestAddReviewValidatesInput(t *testing.T) {
	svc := newTestService()
	now := time.Now()

	assert.ErrorIs(t, svc.AddReview(primitive.NewObjectID(), 0, "too low", now), ErrValidation)
	assert.ErrorIs(t, svc.AddReview(primitive.NewObjectID(), 6, "too high", now), ErrValidation)
	assert.ErrorIs(t, svc.AddReview(primitive.NewObjectID(), 3, "", now), ErrValidation)
	assert.Empty(t, svc.Reviews)
	assert.Equal(t, 0.0, svc.Rating)
}
