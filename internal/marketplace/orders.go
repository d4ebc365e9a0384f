package marketplace

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/middleware"
)

type CreateOrderRequest struct {
	ServiceID     string    `json:"serviceId" validate:"required"`
	Quantity      int       `json:"quantity" validate:"omitempty,min=1"`
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
	Address       string    `json:"address" validate:"required"`
	Phone         string    `json:"phone" validate:"required"`
	PaymentMethod string    `json:"paymentMethod" validate:"required,oneof=wechat alipay card"`
	Notes         string    `json:"notes"`
}

// =========================
// CreateOrder - Buyer places an order against an available service
// =========================
// POST /api/v1/orders
func CreateOrder(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateOrderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	serviceID, err := primitive.ObjectIDFromHex(req.ServiceID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	ctx := context.Background()

	var svc Service
	err = db.Services().FindOne(ctx, bson.M{"_id": serviceID}).Decode(&svc)
	if err == mongo.ErrNoDocuments {
		middleware.RecordOrderOperation("create", false)
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		zap.L().Error("failed to fetch service", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}
	if svc.Status != ServiceAvailable {
		middleware.RecordOrderOperation("create", false)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service is currently unavailable"})
	}

	now := time.Now().UTC()
	order := Order{
		Service:       svc.ID,
		User:          actor.ID,
		Provider:      svc.Provider, // snapshot, never re-resolved
		TotalPrice:    TotalPrice(svc.Price, req.Quantity),
		Quantity:      req.Quantity,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		PaymentMethod: req.PaymentMethod,
		ScheduledDate: req.ScheduledDate,
		Address:       req.Address,
		Phone:         req.Phone,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	res, err := db.Orders().InsertOne(ctx, &order)
	if err != nil {
		zap.L().Error("failed to create order", zap.Error(err))
		middleware.RecordOrderOperation("create", false)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	middleware.RecordOrderOperation("create", true)
	return c.JSON(http.StatusCreated, &order)
}

// =========================
// GetUserOrders - Buyer's own orders, newest first
// =========================
// GET /api/v1/orders/user
func GetUserOrders(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return listOrdersBy(c, bson.M{"user": actor.ID})
}

// =========================
// GetProviderOrders - Orders assigned to the provider, newest first
// =========================
// GET /api/v1/orders/provider
func GetProviderOrders(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return listOrdersBy(c, bson.M{"provider": actor.ID})
}

func listOrdersBy(c echo.Context, filter bson.M) error {
	ctx := context.Background()

	cursor, err := db.Orders().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		zap.L().Error("failed to fetch orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch orders"})
	}
	defer cursor.Close(ctx)

	var orders []Order
	if err := cursor.All(ctx, &orders); err != nil {
		zap.L().Error("failed to decode orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch orders"})
	}

	views, err := resolveOrders(ctx, orders)
	if err != nil {
		zap.L().Error("failed to resolve order references", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": views})
}

// =========================
// GetOrder - Single order with resolved references
// =========================
// GET /api/v1/orders/:id
func GetOrder(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	order, errResp := findOrder(c)
	if order == nil {
		return errResp
	}
	if !order.CanView(actor) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have access to this order"})
	}

	ctx := context.Background()
	views, err := resolveOrders(ctx, []Order{*order})
	if err != nil {
		zap.L().Error("failed to resolve order references", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	return c.JSON(http.StatusOK, &views[0])
}

type UpdateOrderStatusRequest struct {
	Status        string `json:"status" validate:"omitempty,oneof=pending confirmed in_progress completed cancelled"`
	PaymentStatus string `json:"paymentStatus" validate:"omitempty,oneof=unpaid paid refunded"`
}

// =========================
// UpdateOrderStatus - Provider or admin moves the order forward
// =========================
// PUT /api/v1/orders/:id/status
func UpdateOrderStatus(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(UpdateOrderStatusRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	order, errResp := findOrder(c)
	if order == nil {
		return errResp
	}

	if err := order.ApplyStatus(actor, Status(req.Status), PaymentStatus(req.PaymentStatus), time.Now().UTC()); err != nil {
		middleware.RecordOrderOperation("update_status", false)
		return lifecycleError(c, err)
	}

	set := bson.M{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"updated_at":     order.UpdatedAt,
	}
	if order.CompletionDate != nil {
		set["completion_date"] = order.CompletionDate
	}
	if err := persistOrder(order.ID, set); err != nil {
		middleware.RecordOrderOperation("update_status", false)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}

	middleware.RecordOrderOperation("update_status", true)
	return c.JSON(http.StatusOK, order)
}

// =========================
// CancelOrder - Buyer, provider or admin cancels before work starts
// =========================
// PUT /api/v1/orders/:id/cancel
func CancelOrder(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	order, errResp := findOrder(c)
	if order == nil {
		return errResp
	}

	if err := order.Cancel(actor, time.Now().UTC()); err != nil {
		middleware.RecordOrderOperation("cancel", false)
		return lifecycleError(c, err)
	}

	set := bson.M{"status": order.Status, "updated_at": order.UpdatedAt}
	if err := persistOrder(order.ID, set); err != nil {
		middleware.RecordOrderOperation("cancel", false)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel order"})
	}

	middleware.RecordOrderOperation("cancel", true)
	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled"})
}

type PayOrderRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=wechat alipay card"`
	TransactionID string `json:"transactionId"`
}

// =========================
// PayOrder - Buyer pays; payment forces a pending order into confirmed
// =========================
// POST /api/v1/orders/:id/pay
func PayOrder(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(PayOrderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	order, errResp := findOrder(c)
	if order == nil {
		return errResp
	}

	txn := req.TransactionID
	if txn == "" {
		txn = uuid.New().String()
	}

	if err := order.Pay(actor, req.PaymentMethod, txn, time.Now().UTC()); err != nil {
		middleware.RecordOrderOperation("pay", false)
		return lifecycleError(c, err)
	}

	set := bson.M{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"payment_method": order.PaymentMethod,
		"payment_date":   order.PaymentDate,
		"transaction_id": order.TransactionID,
		"updated_at":     order.UpdatedAt,
	}
	if err := persistOrder(order.ID, set); err != nil {
		middleware.RecordOrderOperation("pay", false)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}

	middleware.RecordOrderOperation("pay", true)
	return c.JSON(http.StatusOK, echo.Map{"message": "payment successful", "order": order})
}

// findOrder loads the order addressed by the :id path parameter. On
// failure it has already written the response; the caller just returns
// the second value.
func findOrder(c echo.Context) (*Order, error) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	var order Order
	err = db.Orders().FindOne(context.Background(), bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		zap.L().Error("failed to fetch order", zap.Error(err))
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	return &order, nil
}

func persistOrder(id primitive.ObjectID, set bson.M) error {
	_, err := db.Orders().UpdateOne(context.Background(), bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		zap.L().Error("failed to persist order", zap.String("order_id", id.Hex()), zap.Error(err))
	}
	return err
}

// lifecycleError maps core errors onto HTTP responses.
func lifecycleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission for this order"})
	case errors.Is(err, ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order status does not allow this operation"})
	case errors.Is(err, ErrAlreadyPaid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is already paid"})
	case errors.Is(err, ErrAlreadyReviewed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you have already reviewed this service"})
	case errors.Is(err, ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed"})
	default:
		zap.L().Error("unexpected lifecycle error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
}
