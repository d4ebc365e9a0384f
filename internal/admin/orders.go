package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/marketplace"
)

// GET /admin/orders?status=
func ListOrders(c echo.Context) error {
	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		if !marketplace.Status(status).Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
		}
		filter["status"] = status
	}

	ctx := context.Background()

	cursor, err := db.Orders().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		zap.L().Error("failed to fetch orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch orders"})
	}
	defer cursor.Close(ctx)

	var orders []marketplace.Order
	if err := cursor.All(ctx, &orders); err != nil {
		zap.L().Error("failed to decode orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch orders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}
