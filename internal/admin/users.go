package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/user"
)

// GET /admin/users
func ListUsers(c echo.Context) error {
	ctx := context.Background()

	cursor, err := db.Users().Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		zap.L().Error("failed to fetch users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer cursor.Close(ctx)

	var users []user.User
	if err := cursor.All(ctx, &users); err != nil {
		zap.L().Error("failed to decode users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}

	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user provider admin"`
}

// PUT /admin/users/:id/role
func UpdateUserRole(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	req := new(UpdateRoleRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	res, err := db.Users().UpdateOne(context.Background(),
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": req.Role, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		zap.L().Error("failed to update role", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update role"})
	}
	if res.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "user_id": id.Hex(), "role": req.Role})
}
