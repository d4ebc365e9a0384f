package marketplace

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dailyserve/lifehub/internal/user"
)

const (
	ServiceAvailable   = "available"
	ServiceUnavailable = "unavailable"
)

// Category groups services. Deleting one is refused while any service
// still references it.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Review is embedded in its service document. One per user per service.
type Review struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Service is a sellable offering owned by a provider.
type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    primitive.ObjectID `bson:"category" json:"category"`
	Provider    primitive.ObjectID `bson:"provider" json:"provider"`
	Price       float64            `bson:"price" json:"price"`
	Duration    int                `bson:"duration" json:"duration"`
	Images      []string           `bson:"images" json:"images"`
	Status      string             `bson:"status" json:"status"`
	Rating      float64            `bson:"rating" json:"rating"`
	Reviews     []Review           `bson:"reviews" json:"reviews"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ServiceSummary is the slim shape embedded in order responses.
type ServiceSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Title  string             `bson:"title" json:"title"`
	Price  float64            `bson:"price" json:"price"`
	Images []string           `bson:"images,omitempty" json:"images,omitempty"`
}

// Order is the central entity. Price, provider, address and phone are
// snapshots taken at creation time and never re-resolved.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Service        primitive.ObjectID `bson:"service" json:"service"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	Provider       primitive.ObjectID `bson:"provider" json:"provider"`
	TotalPrice     float64            `bson:"total_price" json:"totalPrice"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Status         Status             `bson:"status" json:"status"`
	PaymentStatus  PaymentStatus      `bson:"payment_status" json:"paymentStatus"`
	PaymentMethod  string             `bson:"payment_method" json:"paymentMethod"`
	ScheduledDate  time.Time          `bson:"scheduled_date" json:"scheduledDate"`
	CompletionDate *time.Time         `bson:"completion_date,omitempty" json:"completionDate,omitempty"`
	PaymentDate    *time.Time         `bson:"payment_date,omitempty" json:"paymentDate,omitempty"`
	TransactionID  string             `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`
	Address        string             `bson:"address" json:"address"`
	Phone          string             `bson:"phone" json:"phone"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// OrderView is an order with its referenced service and user records
// resolved for responses.
type OrderView struct {
	Order
	ServiceInfo  *ServiceSummary `json:"serviceInfo,omitempty"`
	BuyerInfo    *user.Summary   `json:"buyerInfo,omitempty"`
	ProviderInfo *user.Summary   `json:"providerInfo,omitempty"`
}
