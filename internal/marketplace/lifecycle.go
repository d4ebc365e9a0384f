package marketplace

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dailyserve/lifehub/internal/user"
)

// Status is the fulfillment state of an order. Transitions are strictly
// forward along pending -> confirmed -> in_progress -> completed, with
// cancellation allowed only before work starts.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus tracks payment independently of fulfillment.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyReviewed   = errors.New("service already reviewed by this user")
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// Terminal states admit no further transition.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal single step from s.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return s == StatusPending || s == StatusConfirmed
	}
	return statusRank[next] == statusRank[s]+1
}

func (p PaymentStatus) Valid() bool {
	return p == PaymentUnpaid || p == PaymentPaid || p == PaymentRefunded
}

// ValidPaymentMethod reports whether m is one of the accepted channels.
func ValidPaymentMethod(m string) bool {
	return m == "wechat" || m == "alipay" || m == "card"
}

// TotalPrice is computed once at creation and never recomputed when the
// service price later changes.
func TotalPrice(price float64, quantity int) float64 {
	return price * float64(quantity)
}

// Actor is whoever is performing an order operation.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == user.RoleAdmin }

func (o *Order) IsBuyer(a Actor) bool    { return o.User == a.ID }
func (o *Order) IsProvider(a Actor) bool { return o.Provider == a.ID }

// CanView: buyer, provider and admin all may read the order.
func (o *Order) CanView(a Actor) bool {
	return o.IsBuyer(a) || o.IsProvider(a) || a.IsAdmin()
}

// Cancelable: orders that have started or finished cannot be cancelled.
func (o *Order) Cancelable() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// ApplyStatus performs the provider/admin status update. Either field may
// be empty to leave it untouched. Transition to completed stamps
// CompletionDate; nothing else ever sets it.
func (o *Order) ApplyStatus(a Actor, next Status, payment PaymentStatus, now time.Time) error {
	if !o.IsProvider(a) && !a.IsAdmin() {
		return ErrForbidden
	}

	if next != "" {
		if !o.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}
		o.Status = next
		if next == StatusCompleted {
			t := now
			o.CompletionDate = &t
		}
	}

	if payment != "" {
		if !payment.Valid() {
			return ErrValidation
		}
		o.PaymentStatus = payment
	}

	o.UpdatedAt = now
	return nil
}

// Cancel marks the order cancelled. Buyer, provider and admin may all
// cancel, but only before the work starts.
func (o *Order) Cancel(a Actor, now time.Time) error {
	if !o.CanView(a) {
		return ErrForbidden
	}
	if !o.Cancelable() {
		return ErrInvalidTransition
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	return nil
}

// Pay records payment. Buyer-only. A second call fails with ErrAlreadyPaid
// and leaves the first payment's date and transaction id intact. Paying
// forces a pending order into confirmed; an already-confirmed or started
// order keeps its fulfillment state.
func (o *Order) Pay(a Actor, method, transactionID string, now time.Time) error {
	if !o.IsBuyer(a) {
		return ErrForbidden
	}
	if o.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	if o.Status.Terminal() {
		return ErrInvalidTransition
	}
	if method != "" {
		if !ValidPaymentMethod(method) {
			return ErrValidation
		}
		o.PaymentMethod = method
	}

	o.PaymentStatus = PaymentPaid
	t := now
	o.PaymentDate = &t
	o.TransactionID = transactionID
	if o.Status == StatusPending {
		o.Status = StatusConfirmed
	}
	o.UpdatedAt = now
	return nil
}

// AddReview appends a review and recomputes the mean rating. A user gets
// at most one review per service; a rejected duplicate leaves the
// aggregate untouched.
func (s *Service) AddReview(userID primitive.ObjectID, rating int, comment string, now time.Time) error {
	if rating < 1 || rating > 5 || comment == "" {
		return ErrValidation
	}
	for _, r := range s.Reviews {
		if r.User == userID {
			return ErrAlreadyReviewed
		}
	}

	s.Reviews = append(s.Reviews, Review{
		User:      userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
	})

	sum := 0
	for _, r := range s.Reviews {
		sum += r.Rating
	}
	s.Rating = float64(sum) / float64(len(s.Reviews))
	s.UpdatedAt = now
	return nil
}
