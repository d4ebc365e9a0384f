package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/db"
)

type AddReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// AddReview appends a review to a service and persists the recomputed
// mean rating. One review per user per service.
// POST /api/v1/services/:id/review
func AddReview(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	req := new(AddReviewRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	ctx := context.Background()

	var svc Service
	err = db.Services().FindOne(ctx, bson.M{"_id": id}).Decode(&svc)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		zap.L().Error("failed to fetch service", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}

	if err := svc.AddReview(actor.ID, req.Rating, req.Comment, time.Now().UTC()); err != nil {
		return lifecycleError(c, err)
	}

	_, err = db.Services().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"reviews":    svc.Reviews,
			"rating":     svc.Rating,
			"updated_at": svc.UpdatedAt,
		}},
	)
	if err != nil {
		zap.L().Error("failed to persist review", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add review"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "review added", "rating": svc.Rating})
}
