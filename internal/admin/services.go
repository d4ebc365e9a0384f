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

// GET /admin/services?status=
// Unlike the storefront listing this includes unavailable services.
func ListServices(c echo.Context) error {
	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		if status != marketplace.ServiceAvailable && status != marketplace.ServiceUnavailable {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown service status"})
		}
		filter["status"] = status
	}

	ctx := context.Background()

	cursor, err := db.Services().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		zap.L().Error("failed to fetch services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer cursor.Close(ctx)

	var services []marketplace.Service
	if err := cursor.All(ctx, &services); err != nil {
		zap.L().Error("failed to decode services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}

	return c.JSON(http.StatusOK, echo.Map{"services": services})
}
