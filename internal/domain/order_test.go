package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testOrder(t OrderType) *Order {
	tableID := uuid.New()
	o := &Order{
		ID:         uuid.New(),
		LocationID: uuid.New(),
		Number:     1,
		Type:       t,
		Status:     OrderPending,
		Discount:   decimal.Zero,
		Tip:        decimal.Zero,
		CreatedBy:  uuid.New(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if t == OrderTypeDineIn {
		o.TableID = &tableID
	}
	o.Items = []OrderItem{
		{ID: uuid.New(), OrderID: o.ID, Name: "Margherita", Quantity: 2, UnitPrice: dec("10.00"), LineTotal: dec("20.00"), Status: ItemPending},
		{ID: uuid.New(), OrderID: o.ID, Name: "Cola", Quantity: 1, UnitPrice: dec("5.00"), LineTotal: dec("5.00"), Status: ItemPending},
	}
	return o
}

func TestOrderValidate(t *testing.T) {
	t.Run("valid dine-in", func(t *testing.T) {
		assert.NoError(t, testOrder(OrderTypeDineIn).Validate())
	})

	t.Run("dine-in requires table", func(t *testing.T) {
		o := testOrder(OrderTypeDineIn)
		o.TableID = nil
		err := o.Validate()
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("takeaway without table is fine", func(t *testing.T) {
		assert.NoError(t, testOrder(OrderTypeTakeaway).Validate())
	})

	t.Run("empty order rejected", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		o.Items = nil
		assert.Equal(t, KindValidation, KindOf(o.Validate()))
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		o.Type = "drive_through"
		assert.Equal(t, KindValidation, KindOf(o.Validate()))
	})

	t.Run("customer name too long", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		for len(o.CustomerName) <= 100 {
			o.CustomerName += "x"
		}
		assert.Equal(t, KindValidation, KindOf(o.Validate()))
	})

	t.Run("zero quantity item rejected", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		o.Items[0].Quantity = 0
		assert.Equal(t, KindValidation, KindOf(o.Validate()))
	})

	t.Run("negative discount rejected", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		o.Discount = dec("-1")
		assert.Equal(t, KindValidation, KindOf(o.Validate()))
	})
}

func TestRecomputeTotals(t *testing.T) {
	o := testOrder(OrderTypeTakeaway)

	o.RecomputeTotals(dec("0.08"))
	assert.True(t, o.Subtotal.Equal(dec("25.00")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Tax.Equal(dec("2.00")), "tax %s", o.Tax)
	assert.True(t, o.Total.Equal(dec("27.00")), "total %s", o.Total)

	// Cancelled items drop out of every total.
	o.Items[0].Status = ItemCancelled
	o.RecomputeTotals(dec("0.08"))
	assert.True(t, o.Subtotal.Equal(dec("5.00")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Tax.Equal(dec("0.40")), "tax %s", o.Tax)
	assert.True(t, o.Total.Equal(dec("5.40")), "total %s", o.Total)

	// Discount and tip adjust the grand total only.
	o.Discount = dec("1.00")
	o.Tip = dec("2.50")
	o.RecomputeTotals(dec("0.08"))
	assert.True(t, o.Total.Equal(dec("6.90")), "total %s", o.Total)
	assert.True(t, o.Subtotal.Equal(dec("5.00")))
}

func TestAdvanceTo(t *testing.T) {
	actor := Identity{UserID: uuid.New(), Name: "Aliya", Role: RoleWaiter}
	now := time.Now()

	t.Run("normal progression stamps each step once", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		for _, s := range []OrderStatus{OrderConfirmed, OrderPreparing, OrderReady, OrderServed, OrderCompleted} {
			require.NoError(t, o.AdvanceTo(s, actor, now))
		}
		require.NotNil(t, o.ConfirmedAt)
		require.NotNil(t, o.PreparingAt)
		require.NotNil(t, o.ReadyAt)
		require.NotNil(t, o.ServedAt)
		require.NotNil(t, o.CompletedAt)
		require.NotNil(t, o.ServedBy)
		assert.Equal(t, actor.UserID, *o.ServedBy)
	})

	t.Run("skipping ahead is allowed", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		require.NoError(t, o.AdvanceTo(OrderCompleted, actor, now))
		assert.Equal(t, OrderCompleted, o.Status)
		assert.Nil(t, o.ConfirmedAt)
	})

	t.Run("moving backwards is allowed before terminal", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		require.NoError(t, o.AdvanceTo(OrderReady, actor, now))
		first := *o.ReadyAt
		require.NoError(t, o.AdvanceTo(OrderPreparing, actor, now))
		require.NoError(t, o.AdvanceTo(OrderReady, actor, now.Add(time.Minute)))
		// Re-entering a status keeps the first stamp.
		assert.Equal(t, first, *o.ReadyAt)
	})

	t.Run("completed is immutable", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		require.NoError(t, o.AdvanceTo(OrderCompleted, actor, now))
		err := o.AdvanceTo(OrderPreparing, actor, now)
		assert.Equal(t, KindInvalidTransition, KindOf(err))
	})

	t.Run("cancelled is immutable", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		require.NoError(t, o.AdvanceTo(OrderCancelled, actor, now))
		err := o.AdvanceTo(OrderConfirmed, actor, now)
		assert.Equal(t, KindInvalidTransition, KindOf(err))
	})

	t.Run("cancellation cascades to items", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		o.Items[0].Status = ItemPreparing
		require.NoError(t, o.AdvanceTo(OrderCancelled, actor, now))
		for _, item := range o.Items {
			assert.Equal(t, ItemCancelled, item.Status)
			assert.NotNil(t, item.CancelledAt)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		err := o.AdvanceTo("teleported", actor, now)
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestAdvanceItem(t *testing.T) {
	now := time.Now()

	t.Run("item moves through kitchen states", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		id := o.Items[0].ID
		for _, s := range []ItemStatus{ItemSentToKitchen, ItemPreparing, ItemReady, ItemServed} {
			item, err := o.AdvanceItem(id, s, now)
			require.NoError(t, err)
			assert.Equal(t, s, item.Status)
		}
		assert.NotNil(t, o.Items[0].SentAt)
		assert.NotNil(t, o.Items[0].ServedAt)
		// The parent order is untouched by item progress.
		assert.Equal(t, OrderPending, o.Status)
	})

	t.Run("cancelled item is frozen", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		id := o.Items[0].ID
		_, err := o.AdvanceItem(id, ItemCancelled, now)
		require.NoError(t, err)
		_, err = o.AdvanceItem(id, ItemPreparing, now)
		assert.Equal(t, KindInvalidTransition, KindOf(err))
	})

	t.Run("terminal order blocks item changes", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		require.NoError(t, o.AdvanceTo(OrderCompleted, Identity{UserID: uuid.New()}, now))
		_, err := o.AdvanceItem(o.Items[0].ID, ItemReady, now)
		assert.Equal(t, KindInvalidTransition, KindOf(err))
	})

	t.Run("missing item", func(t *testing.T) {
		o := testOrder(OrderTypeTakeaway)
		_, err := o.AdvanceItem(uuid.New(), ItemReady, now)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestRecomputePaymentStatus(t *testing.T) {
	o := testOrder(OrderTypeTakeaway)
	o.RecomputeTotals(decimal.Zero)
	require.True(t, o.Total.Equal(dec("25.00")))

	o.RecomputePaymentStatus()
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)

	o.Payments = append(o.Payments, OrderPayment{Amount: dec("10.00")})
	o.RecomputePaymentStatus()
	assert.Equal(t, PaymentPartial, o.PaymentStatus)

	o.Payments = append(o.Payments, OrderPayment{Amount: dec("15.00")})
	o.RecomputePaymentStatus()
	assert.Equal(t, PaymentPaid, o.PaymentStatus)

	// Overpayment still reads as paid.
	o.Payments = append(o.Payments, OrderPayment{Amount: dec("5.00")})
	o.RecomputePaymentStatus()
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
}
