package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/db"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CreateCategory adds a category. Admin only; name must be unique.
// POST /api/v1/categories
func CreateCategory(c echo.Context) error {
	req := new(CategoryRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	now := time.Now().UTC()
	cat := Category{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := db.Categories().InsertOne(context.Background(), &cat)
	if mongo.IsDuplicateKeyError(err) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category name already exists"})
	}
	if err != nil {
		zap.L().Error("failed to create category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create category"})
	}
	cat.ID = res.InsertedID.(primitive.ObjectID)

	return c.JSON(http.StatusCreated, &cat)
}

// categoryListItem carries the member service summaries the storefront
// shows under each category.
type categoryListItem struct {
	Category
	Services []ServiceSummary `json:"services"`
}

// GetCategories lists all categories with their member services resolved
// by query, not by stored id lists.
// GET /api/v1/categories
func GetCategories(c echo.Context) error {
	ctx := context.Background()

	cursor, err := db.Categories().Find(ctx, bson.M{})
	if err != nil {
		zap.L().Error("failed to fetch categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch categories"})
	}
	defer cursor.Close(ctx)

	var cats []Category
	if err := cursor.All(ctx, &cats); err != nil {
		zap.L().Error("failed to decode categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch categories"})
	}

	members, err := servicesByCategory(ctx)
	if err != nil {
		zap.L().Error("failed to fetch category members", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch categories"})
	}

	items := make([]categoryListItem, 0, len(cats))
	for _, cat := range cats {
		svcs := members[cat.ID]
		if svcs == nil {
			svcs = []ServiceSummary{}
		}
		items = append(items, categoryListItem{Category: cat, Services: svcs})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": items})
}

func servicesByCategory(ctx context.Context) (map[primitive.ObjectID][]ServiceSummary, error) {
	cursor, err := db.Services().Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"title": 1, "price": 1, "category": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var svcs []Service
	if err := cursor.All(ctx, &svcs); err != nil {
		return nil, err
	}

	out := map[primitive.ObjectID][]ServiceSummary{}
	for _, s := range svcs {
		out[s.Category] = append(out[s.Category], ServiceSummary{ID: s.ID, Title: s.Title, Price: s.Price})
	}
	return out, nil
}

// GetCategory returns one category with its member services.
// GET /api/v1/categories/:id
func GetCategory(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	ctx := context.Background()

	var cat Category
	err = db.Categories().FindOne(ctx, bson.M{"_id": id}).Decode(&cat)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}
	if err != nil {
		zap.L().Error("failed to fetch category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch category"})
	}

	cursor, err := db.Services().Find(ctx, bson.M{"category": id},
		options.Find().SetProjection(bson.M{"title": 1, "price": 1, "images": 1}))
	if err != nil {
		zap.L().Error("failed to fetch category services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch category"})
	}
	defer cursor.Close(ctx)

	var svcs []ServiceSummary
	if err := cursor.All(ctx, &svcs); err != nil {
		zap.L().Error("failed to decode category services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch category"})
	}
	if svcs == nil {
		svcs = []ServiceSummary{}
	}

	return c.JSON(http.StatusOK, categoryListItem{Category: cat, Services: svcs})
}

// UpdateCategory renames or re-describes a category. Admin only; renames
// still honor the unique name constraint.
// PUT /api/v1/categories/:id
func UpdateCategory(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Description != "" {
		set["description"] = req.Description
	}
	if req.Icon != "" {
		set["icon"] = req.Icon
	}

	var updated Category
	err = db.Categories().FindOneAndUpdate(context.Background(),
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}
	if mongo.IsDuplicateKeyError(err) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category name already exists"})
	}
	if err != nil {
		zap.L().Error("failed to update category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update category"})
	}

	return c.JSON(http.StatusOK, &updated)
}

// DeleteCategory removes a category, refusing while services still
// reference it.
// DELETE /api/v1/categories/:id
func DeleteCategory(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	ctx := context.Background()

	count, err := db.Services().CountDocuments(ctx, bson.M{"category": id})
	if err != nil {
		zap.L().Error("failed to count category services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete category"})
	}
	if count > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category still has services and cannot be deleted"})
	}

	res, err := db.Categories().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		zap.L().Error("failed to delete category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete category"})
	}
	if res.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}
