package marketplace

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/user"
)

// actorFromContext pulls the authenticated identity the JWT middleware
// stored on the request.
func actorFromContext(c echo.Context) (Actor, bool) {
	uid, _ := c.Get("user_id").(string)
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return Actor{}, false
	}
	role, _ := c.Get("role").(string)
	return Actor{ID: id, Role: role}, true
}

func fetchServiceSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*ServiceSummary, error) {
	out := make(map[primitive.ObjectID]*ServiceSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := db.Services().Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"title": 1, "price": 1, "images": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var summaries []ServiceSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	for i := range summaries {
		out[summaries[i].ID] = &summaries[i]
	}
	return out, nil
}

func fetchUserSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*user.Summary, error) {
	out := make(map[primitive.ObjectID]*user.Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := db.Users().Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "phone": 1, "avatar": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var summaries []user.Summary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	for i := range summaries {
		out[summaries[i].ID] = &summaries[i]
	}
	return out, nil
}

// resolveOrders attaches service, buyer and provider summaries to a batch
// of orders. Missing referenced records (e.g. a since-deleted service)
// leave the field empty rather than failing the response.
func resolveOrders(ctx context.Context, orders []Order) ([]OrderView, error) {
	serviceIDs := make([]primitive.ObjectID, 0, len(orders))
	userIDs := make([]primitive.ObjectID, 0, len(orders)*2)
	for _, o := range orders {
		serviceIDs = append(serviceIDs, o.Service)
		userIDs = append(userIDs, o.User, o.Provider)
	}

	services, err := fetchServiceSummaries(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	users, err := fetchUserSummaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{
			Order:        o,
			ServiceInfo:  services[o.Service],
			BuyerInfo:    users[o.User],
			ProviderInfo: users[o.Provider],
		})
	}
	return views, nil
}
