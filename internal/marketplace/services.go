package marketplace

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/user"
)

type CreateServiceRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Price       float64  `json:"price" validate:"min=0"`
	Duration    int      `json:"duration" validate:"min=1"`
	Images      []string `json:"images" validate:"required,min=1"`
}

// CreateService lists a new offering. Provider role enforced by the route.
// POST /api/v1/services
func CreateService(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateServiceRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	categoryID, err := primitive.ObjectIDFromHex(req.Category)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	ctx := context.Background()
	if err := db.Categories().FindOne(ctx, bson.M{"_id": categoryID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		zap.L().Error("failed to fetch category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch category"})
	}

	now := time.Now().UTC()
	svc := Service{
		Title:       req.Title,
		Description: req.Description,
		Category:    categoryID,
		Provider:    actor.ID,
		Price:       req.Price,
		Duration:    req.Duration,
		Images:      req.Images,
		Status:      ServiceAvailable,
		Rating:      0,
		Reviews:     []Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := db.Services().InsertOne(ctx, &svc)
	if err != nil {
		zap.L().Error("failed to create service", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service"})
	}
	svc.ID = res.InsertedID.(primitive.ObjectID)

	return c.JSON(http.StatusCreated, &svc)
}

// serviceListItem carries the resolved provider and category names the
// storefront renders next to each card.
type serviceListItem struct {
	Service
	ProviderInfo *user.Summary `json:"providerInfo,omitempty"`
	CategoryName string        `json:"categoryName,omitempty"`
}

// GetServices is the public storefront listing with filtering, sorting
// and pagination.
// GET /api/v1/services?category=&search=&sortBy=&page=&limit=
func GetServices(c echo.Context) error {
	filter := bson.M{}
	if cat := c.QueryParam("category"); cat != "" {
		id, err := primitive.ObjectIDFromHex(cat)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
		}
		filter["category"] = id
	}
	if search := c.QueryParam("search"); search != "" {
		filter["title"] = bson.M{"$regex": primitive.Regex{Pattern: search, Options: "i"}}
	}

	sort := bson.D{{Key: "created_at", Value: -1}}
	switch c.QueryParam("sortBy") {
	case "price_asc":
		sort = bson.D{{Key: "price", Value: 1}}
	case "price_desc":
		sort = bson.D{{Key: "price", Value: -1}}
	case "rating":
		sort = bson.D{{Key: "rating", Value: -1}}
	case "newest", "":
		// default
	}

	page := 1
	limit := 10
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	ctx := context.Background()

	total, err := db.Services().CountDocuments(ctx, filter)
	if err != nil {
		zap.L().Error("failed to count services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}

	cursor, err := db.Services().Find(ctx, filter, options.Find().
		SetSort(sort).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		zap.L().Error("failed to fetch services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer cursor.Close(ctx)

	var services []Service
	if err := cursor.All(ctx, &services); err != nil {
		zap.L().Error("failed to decode services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}

	items, err := resolveServices(ctx, services)
	if err != nil {
		zap.L().Error("failed to resolve service references", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"services": items,
		"pagination": echo.Map{
			"total": total,
			"page":  page,
			"pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func resolveServices(ctx context.Context, services []Service) ([]serviceListItem, error) {
	providerIDs := make([]primitive.ObjectID, 0, len(services))
	categoryIDs := make([]primitive.ObjectID, 0, len(services))
	for _, s := range services {
		providerIDs = append(providerIDs, s.Provider)
		categoryIDs = append(categoryIDs, s.Category)
	}

	providers, err := fetchUserSummaries(ctx, providerIDs)
	if err != nil {
		return nil, err
	}

	categoryNames := map[primitive.ObjectID]string{}
	if len(categoryIDs) > 0 {
		cursor, err := db.Categories().Find(ctx,
			bson.M{"_id": bson.M{"$in": categoryIDs}},
			options.Find().SetProjection(bson.M{"name": 1}))
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var cats []Category
		if err := cursor.All(ctx, &cats); err != nil {
			return nil, err
		}
		for _, cat := range cats {
			categoryNames[cat.ID] = cat.Name
		}
	}

	items := make([]serviceListItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceListItem{
			Service:      s,
			ProviderInfo: providers[s.Provider],
			CategoryName: categoryNames[s.Category],
		})
	}
	return items, nil
}

// GetService returns one service with provider and category resolved.
// GET /api/v1/services/:id
func GetService(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
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

	items, err := resolveServices(ctx, []Service{svc})
	if err != nil {
		zap.L().Error("failed to resolve service references", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}
	return c.JSON(http.StatusOK, &items[0])
}

type UpdateServiceRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	Duration    *int     `json:"duration" validate:"omitempty,min=1"`
	Images      []string `json:"images" validate:"omitempty,min=1"`
	Status      string   `json:"status" validate:"omitempty,oneof=available unavailable"`
}

// UpdateService lets the owning provider edit the offering, including
// flipping availability.
// PUT /api/v1/services/:id
func UpdateService(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	req := new(UpdateServiceRequest)
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

	if svc.Provider != actor.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not own this service"})
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if req.Title != "" {
		set["title"] = req.Title
	}
	if req.Description != "" {
		set["description"] = req.Description
	}
	if req.Category != "" {
		categoryID, err := primitive.ObjectIDFromHex(req.Category)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		if err := db.Categories().FindOne(ctx, bson.M{"_id": categoryID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
			}
			zap.L().Error("failed to fetch category", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch category"})
		}
		set["category"] = categoryID
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.Duration != nil {
		set["duration"] = *req.Duration
	}
	if len(req.Images) > 0 {
		set["images"] = req.Images
	}
	if req.Status != "" {
		set["status"] = req.Status
	}

	var updated Service
	err = db.Services().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		zap.L().Error("failed to update service", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}

	return c.JSON(http.StatusOK, &updated)
}

// DeleteService removes an offering. Owner or admin only. Existing orders
// keep their price and provider snapshots.
// DELETE /api/v1/services/:id
func DeleteService(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
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

	if svc.Provider != actor.ID && !actor.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not own this service"})
	}

	if _, err := db.Services().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		zap.L().Error("failed to delete service", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete service"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted"})
}
