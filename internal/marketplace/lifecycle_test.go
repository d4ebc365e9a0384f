package marketplace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dailyserve/lifehub/internal/user"
)

func newTestOrder(buyer, provider primitive.ObjectID) *Order {
	return &Order{
		ID:            primitive.NewObjectID(),
		Service:       primitive.NewObjectID(),
		User:          buyer,
		Provider:      provider,
		TotalPrice:    100,
		Quantity:      1,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		PaymentMethod: "card",
	}
}

func TestTotalPrice(t *testing.T) {
	assert.Equal(t, 400.0, TotalPrice(200, 2))
	assert.Equal(t, 0.0, TotalPrice(0, 5))
	assert.InDelta(t, 59.97, TotalPrice(19.99, 3), 1e-9)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},

		// no skipping ahead
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, false},

		// no going back
		{StatusConfirmed, StatusPending, false},
		{StatusInProgress, StatusConfirmed, false},
		{StatusCompleted, StatusInProgress, false},

		// started or finished work cannot be cancelled
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},

		// terminal states admit nothing
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCompleted, false},

		// unknown statuses are rejected outright
		{StatusPending, Status("shipped"), false},
		{StatusPending, Status(""), false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestApplyStatusAuthorization(t *testing.T) {
	buyer := primitive.NewObjectID()
	provider := primitive.NewObjectID()
	o := newTestOrder(buyer, provider)
	now := time.Now()

	// buyer may not drive fulfillment status
	err := o.ApplyStatus(Actor{ID: buyer, Role: user.RoleUser}, StatusConfirmed, "", now)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, StatusPending, o.Status)

	// unrelated provider may not either
	err = o.ApplyStatus(Actor{ID: primitive.NewObjectID(), Role: user.RoleProvider}, StatusConfirmed, "", now)
	assert.ErrorIs(t, err, ErrForbidden)

	// the order's provider may
	err = o.ApplyStatus(Actor{ID: provider, Role: user.RoleProvider}, StatusConfirmed, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)

	// so may any admin
	err = o.ApplyStatus(Actor{ID: primitive.NewObjectID(), Role: user.RoleAdmin}, StatusInProgress, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, o.Status)
}

func TestCompletionDateStampedOnlyOnCompleted(t *testing.T) {
	provider := primitive.NewObjectID()
	o := newTestOrder(primitive.NewObjectID(), provider)
	actor := Actor{ID: provider, Role: user.RoleProvider}
	now := time.Now()

	require.NoError(t, o.ApplyStatus(actor, StatusConfirmed, "", now))
	assert.Nil(t, o.CompletionDate)

	require.NoError(t, o.ApplyStatus(actor, StatusInProgress, "", now))
	assert.Nil(t, o.CompletionDate)

	done := now.Add(time.Hour)
	require.NoError(t, o.ApplyStatus(actor, StatusCompleted, "", done))
	require.NotNil(t, o.CompletionDate)
	assert.Equal(t, done, *o.CompletionDate)
}

func TestApplyStatusRejectsOutOfOrder(t *testing.T) {
	provider := primitive.NewObjectID()
	o := newTestOrder(primitive.NewObjectID(), provider)
	actor := Actor{ID: provider, Role: user.RoleProvider}

	err := o.ApplyStatus(actor, StatusCompleted, "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPending, o.Status)
	assert.Nil(t, o.CompletionDate)
}

func TestApplyStatusUpdatesPaymentStatus(t *testing.T) {
	provider := primitive.NewObjectID()
	o := newTestOrder(primitive.NewObjectID(), provider)
	o.PaymentStatus = PaymentPaid
	actor := Actor{ID: provider, Role: user.RoleProvider}

	// refund without touching fulfillment status
	require.NoError(t, o.ApplyStatus(actor, "", PaymentRefunded, time.Now()))
	assert.Equal(t, PaymentRefunded, o.PaymentStatus)
	assert.Equal(t, StatusPending, o.Status)

	err := o.ApplyStatus(actor, "", PaymentStatus("voided"), time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelRules(t *testing.T) {
	buyer := primitive.NewObjectID()
	provider := primitive.NewObjectID()
	now := time.Now()

	// buyer, provider and admin can all cancel a pending order
	for _, actor := range []Actor{
		{ID: buyer, Role: user.RoleUser},
		{ID: provider, Role: user.RoleProvider},
		{ID: primitive.NewObjectID(), Role: user.RoleAdmin},
	} {
		o := newTestOrder(buyer, provider)
		require.NoError(t, o.Cancel(actor, now))
		assert.Equal(t, StatusCancelled, o.Status)
	}

	// outsiders cannot
	o := newTestOrder(buyer, provider)
	err := o.Cancel(Actor{ID: primitive.NewObjectID(), Role: user.RoleUser}, now)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, StatusPending, o.Status)

	// started or finished orders stay as they are
	for _, status := range []Status{StatusInProgress, StatusCompleted} {
		o := newTestOrder(buyer, provider)
		o.Status = status
		err := o.Cancel(Actor{ID: buyer, Role: user.RoleUser}, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, status, o.Status)
	}
}

func TestPayBuyerOnly(t *testing.T) {
	buyer := primitive.NewObjectID()
	provider := primitive.NewObjectID()
	now := time.Now()

	// neither the provider nor an unrelated admin may pay
	for _, actor := range []Actor{
		{ID: provider, Role: user.RoleProvider},
		{ID: primitive.NewObjectID(), Role: user.RoleAdmin},
	} {
		o := newTestOrder(buyer, provider)
		err := o.Pay(actor, "wechat", "txn-1", now)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	}

	o := newTestOrder(buyer, provider)
	require.NoError(t, o.Pay(Actor{ID: buyer, Role: user.RoleUser}, "wechat", "txn-1", now))
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, "wechat", o.PaymentMethod)
	assert.Equal(t, "txn-1", o.TransactionID)
	require.NotNil(t, o.PaymentDate)
}

func TestPayTwiceKeepsFirstPayment(t *testing.T) {
	buyer := primitive.NewObjectID()
	o := newTestOrder(buyer, primitive.NewObjectID())
	actor := Actor{ID: buyer, Role: user.RoleUser}

	first := time.Now()
	require.NoError(t, o.Pay(actor, "alipay", "txn-first", first))

	err := o.Pay(actor, "card", "txn-second", first.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, "txn-first", o.TransactionID)
	assert.Equal(t, "alipay", o.PaymentMethod)
	assert.Equal(t, first, *o.PaymentDate)
}

func TestPayTerminalOrderRejected(t *testing.T) {
	buyer := primitive.NewObjectID()
	now := time.Now()

	for _, status := range []Status{StatusCancelled, StatusCompleted} {
		o := newTestOrder(buyer, primitive.NewObjectID())
		o.Status = status
		err := o.Pay(Actor{ID: buyer, Role: user.RoleUser}, "card", "txn", now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	}
}

func TestPayKeepsFulfillmentStateWhenAlreadyConfirmed(t *testing.T) {
	buyer := primitive.NewObjectID()
	provider := primitive.NewObjectID()
	o := newTestOrder(buyer, provider)

	// provider confirmed before the buyer paid
	require.NoError(t, o.ApplyStatus(Actor{ID: provider, Role: user.RoleProvider}, StatusConfirmed, "", time.Now()))
	require.NoError(t, o.Pay(Actor{ID: buyer, Role: user.RoleUser}, "card", "txn", time.Now()))
	assert.Equal(t, StatusConfirmed, o.Status)
}

func TestPayRejectsUnknownMethod(t *testing.T) {
	buyer := primitive.NewObjectID()
	o := newTestOrder(buyer, primitive.NewObjectID())

	err := o.Pay(Actor{ID: buyer, Role: user.RoleUser}, "cash", "txn", time.Now())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
}

// The storefront's happy path: order a $200 service twice, pay by wechat,
// then cancel while still confirmed.
func TestOrderScenario(t *testing.T) {
	buyer := primitive.NewObjectID()
	provider := primitive.NewObjectID()
	now := time.Now()

	o := &Order{
		Service:       primitive.NewObjectID(),
		User:          buyer,
		Provider:      provider,
		TotalPrice:    TotalPrice(200, 2),
		Quantity:      2,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		PaymentMethod: "card",
	}
	require.Equal(t, 400.0, o.TotalPrice)

	buyerActor := Actor{ID: buyer, Role: user.RoleUser}
	require.NoError(t, o.Pay(buyerActor, "wechat", "txn-42", now))
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, StatusConfirmed, o.Status)

	// confirmed orders are still cancellable
	require.NoError(t, o.Cancel(buyerActor, now))
	assert.Equal(t, StatusCancelled, o.Status)

	// the price snapshot survives it all
	assert.Equal(t, 400.0, o.TotalPrice)
}
