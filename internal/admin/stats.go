package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/marketplace"
	"github.com/dailyserve/lifehub/internal/user"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	users, _ := db.Users().CountDocuments(ctx, bson.M{})
	providers, _ := db.Users().CountDocuments(ctx, bson.M{"role": user.RoleProvider})
	categories, _ := db.Categories().CountDocuments(ctx, bson.M{})
	services, _ := db.Services().CountDocuments(ctx, bson.M{})
	orders, _ := db.Orders().CountDocuments(ctx, bson.M{})
	completed, _ := db.Orders().CountDocuments(ctx, bson.M{"status": marketplace.StatusCompleted})

	return c.JSON(http.StatusOK, echo.Map{
		"users":            users,
		"providers":        providers,
		"categories":       categories,
		"services":         services,
		"orders":           orders,
		"completed_orders": completed,
	})
}
