package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

// fakeLocationStore grants access to explicitly allowed
// (user, location) pairs.
type fakeLocationStore struct {
	allowed map[string]bool
	err     error
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{allowed: make(map[string]bool)}
}

func (s *fakeLocationStore) allow(userID, locationID uuid.UUID) {
	s.allowed[userID.String()+"/"+locationID.String()] = true
}

func (s *fakeLocationStore) HasLocationAccess(_ context.Context, userID, locationID uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[userID.String()+"/"+locationID.String()], nil
}

func newTestRouter() (*Router, *Registry, *fakeLocationStore) {
	registry := NewRegistry()
	locations := newFakeLocationStore()
	router := NewRouter(registry, locations, nil, logger.Nop())
	return router, registry, locations
}

func attach(router *Router, role domain.Role) *fakeSession {
	identity := domain.Identity{UserID: uuid.New(), Name: "test", Role: role}
	if role != domain.RoleCustomer {
		staffID := uuid.New()
		identity.StaffID = &staffID
	}
	s := newFakeSession(identity)
	router.Attach(s)
	return s
}

func TestAttachAutoJoinsPrivateRooms(t *testing.T) {
	router, registry, _ := newTestRouter()
	s := attach(router, domain.RoleWaiter)

	assert.True(t, registry.InRoom(s.ID(), UserRoom(s.Identity().UserID)))
	assert.True(t, registry.InRoom(s.ID(), StaffRoom(*s.Identity().StaffID)))

	router.Detach(s.ID())
	assert.Equal(t, 0, registry.Stats().Connections)
}

func TestJoinLocationAuthorized(t *testing.T) {
	router, registry, locations := newTestRouter()
	locationID := uuid.New()
	s := attach(router, domain.RoleWaiter)
	locations.allow(s.Identity().UserID, locationID)

	router.HandleCommand(context.Background(), s, Command{Action: ActionJoinLocation, LocationID: locationID})

	assert.True(t, registry.InRoom(s.ID(), LocationRoom(locationID)))
	// A waiter does not auto-join the kitchen room.
	assert.False(t, registry.InRoom(s.ID(), KitchenRoom(locationID)))
	assert.Equal(t, 1, s.countKind(domain.EventJoinedLocation))
}

func TestJoinLocationKitchenRoleAutoJoinsKitchen(t *testing.T) {
	router, registry, locations := newTestRouter()
	locationID := uuid.New()

	for _, role := range []domain.Role{domain.RoleKitchen, domain.RoleManager, domain.RoleOwner} {
		s := attach(router, role)
		locations.allow(s.Identity().UserID, locationID)
		router.HandleCommand(context.Background(), s, Command{Action: ActionJoinLocation, LocationID: locationID})

		assert.True(t, registry.InRoom(s.ID(), KitchenRoom(locationID)), "role %s", role)
		assert.Equal(t, 1, s.countKind(domain.EventJoinedKitchen), "role %s", role)
	}
}

func TestJoinLocationDenied(t *testing.T) {
	router, registry, _ := newTestRouter()
	locationID := uuid.New()
	s := attach(router, domain.RoleWaiter)

	router.HandleCommand(context.Background(), s, Command{Action: ActionJoinLocation, LocationID: locationID})

	assert.False(t, registry.InRoom(s.ID(), LocationRoom(locationID)))
	require.Equal(t, 1, s.countKind(domain.EventError))
	payload := s.received()[0].Payload.(domain.ErrorPayload)
	assert.Equal(t, domain.KindAuthorization, payload.Code)
}

func TestJoinLocationAccessCheckFailure(t *testing.T) {
	router, registry, locations := newTestRouter()
	locationID := uuid.New()
	s := attach(router, domain.RoleWaiter)
	locations.err = errors.New("connection refused")

	router.HandleCommand(context.Background(), s, Command{Action: ActionJoinLocation, LocationID: locationID})

	assert.False(t, registry.InRoom(s.ID(), LocationRoom(locationID)))
	require.Equal(t, 1, s.countKind(domain.EventError))
	payload := s.received()[0].Payload.(domain.ErrorPayload)
	assert.Equal(t, domain.KindTransientInfra, payload.Code)
}

func TestLeaveLocationAlsoLeavesKitchen(t *testing.T) {
	router, registry, locations := newTestRouter()
	locationID := uuid.New()
	s := attach(router, domain.RoleManager)
	locations.allow(s.Identity().UserID, locationID)

	router.HandleCommand(context.Background(), s, Command{Action: ActionJoinLocation, LocationID: locationID})
	router.HandleCommand(context.Background(), s, Command{Action: ActionLeaveLocation, LocationID: locationID})

	assert.False(t, registry.InRoom(s.ID(), LocationRoom(locationID)))
	assert.False(t, registry.InRoom(s.ID(), KitchenRoom(locationID)))
}

func TestOrderSubscribe(t *testing.T) {
	router, registry, _ := newTestRouter()
	orderID := uuid.New()
	s := attach(router, domain.RoleCustomer)

	router.HandleCommand(context.Background(), s, Command{Action: ActionOrderSubscribe, OrderID: orderID})
	assert.True(t, registry.InRoom(s.ID(), OrderRoom(orderID)))

	router.HandleCommand(context.Background(), s, Command{Action: ActionOrderUnsubscribe, OrderID: orderID})
	assert.False(t, registry.InRoom(s.ID(), OrderRoom(orderID)))
}

func TestUnknownAction(t *testing.T) {
	router, _, _ := newTestRouter()
	s := attach(router, domain.RoleWaiter)

	router.HandleCommand(context.Background(), s, Command{Action: "emote"})
	require.Equal(t, 1, s.countKind(domain.EventError))
}

func joinLocation(t *testing.T, router *Router, locations *fakeLocationStore, locationID uuid.UUID, role domain.Role) *fakeSession {
	t.Helper()
	s := attach(router, role)
	locations.allow(s.Identity().UserID, locationID)
	router.HandleCommand(context.Background(), s, Command{Action: ActionJoinLocation, LocationID: locationID})
	return s
}

func TestPendingOrderStaysOffKitchenDisplay(t *testing.T) {
	router, _, locations := newTestRouter()
	locationID := uuid.New()
	staff := joinLocation(t, router, locations, locationID, domain.RoleWaiter)
	cook := joinLocation(t, router, locations, locationID, domain.RoleKitchen)

	ctx := context.Background()
	orderID := uuid.New()
	router.Publish(ctx, domain.NewEvent(locationID, &orderID, time.Now(), domain.OrderCreatedPayload{
		OrderID: orderID, Number: 1, Status: domain.OrderPending,
	}))

	assert.Equal(t, 1, staff.countKind(domain.EventOrderCreated))
	// The cook is also in the location room, so the one delivery there
	// is expected; the point is no kitchen-room duplicate and nothing
	// extra for a pending order.
	assert.Equal(t, 1, cook.countKind(domain.EventOrderCreated))

	confirmedID := uuid.New()
	router.Publish(ctx, domain.NewEvent(locationID, &confirmedID, time.Now(), domain.OrderCreatedPayload{
		OrderID: confirmedID, Number: 2, Status: domain.OrderConfirmed,
	}))

	assert.Equal(t, 2, staff.countKind(domain.EventOrderCreated))
	// Location room + kitchen room, still once per room.
	assert.Equal(t, 3, cook.countKind(domain.EventOrderCreated))
}

func TestReadyOrderReachesCreator(t *testing.T) {
	router, _, locations := newTestRouter()
	locationID := uuid.New()
	creator := attach(router, domain.RoleCustomer)
	staff := joinLocation(t, router, locations, locationID, domain.RoleWaiter)

	orderID := uuid.New()
	router.Publish(context.Background(), domain.NewEvent(locationID, &orderID, time.Now(), domain.OrderStatusChangedPayload{
		OrderID:   orderID,
		OldStatus: domain.OrderPreparing,
		NewStatus: domain.OrderReady,
		CreatedBy: creator.Identity().UserID,
	}))

	// The creator is only in their private user room.
	assert.Equal(t, 1, creator.countKind(domain.EventOrderStatusChanged))
	assert.Equal(t, 1, staff.countKind(domain.EventOrderStatusChanged))

	// Non-ready transitions stay off the creator's room.
	router.Publish(context.Background(), domain.NewEvent(locationID, &orderID, time.Now(), domain.OrderStatusChangedPayload{
		OrderID:   orderID,
		OldStatus: domain.OrderReady,
		NewStatus: domain.OrderServed,
		CreatedBy: creator.Identity().UserID,
	}))
	assert.Equal(t, 1, creator.countKind(domain.EventOrderStatusChanged))
	assert.Equal(t, 2, staff.countKind(domain.EventOrderStatusChanged))
}

func TestOrderRoomDelivery(t *testing.T) {
	router, _, _ := newTestRouter()
	locationID := uuid.New()
	orderID := uuid.New()
	watcher := attach(router, domain.RoleCustomer)
	router.HandleCommand(context.Background(), watcher, Command{Action: ActionOrderSubscribe, OrderID: orderID})

	router.Publish(context.Background(), domain.NewEvent(locationID, &orderID, time.Now(), domain.OrderStatusChangedPayload{
		OrderID:   orderID,
		NewStatus: domain.OrderPreparing,
	}))
	assert.Equal(t, 1, watcher.countKind(domain.EventOrderStatusChanged))

	otherID := uuid.New()
	router.Publish(context.Background(), domain.NewEvent(locationID, &otherID, time.Now(), domain.OrderStatusChangedPayload{
		OrderID:   otherID,
		NewStatus: domain.OrderPreparing,
	}))
	assert.Equal(t, 1, watcher.countKind(domain.EventOrderStatusChanged))
}

func TestKitchenAlertOnlyReachesKitchen(t *testing.T) {
	router, _, locations := newTestRouter()
	locationID := uuid.New()
	staff := joinLocation(t, router, locations, locationID, domain.RoleWaiter)
	cook := joinLocation(t, router, locations, locationID, domain.RoleKitchen)

	router.Publish(context.Background(), domain.NewEvent(locationID, nil, time.Now(), domain.KitchenAlertPayload{
		Message: "fryer down",
	}))

	assert.Equal(t, 0, staff.countKind(domain.EventKitchenAlert))
	assert.Equal(t, 1, cook.countKind(domain.EventKitchenAlert))
}

func TestNotificationTargetsSingleUser(t *testing.T) {
	router, _, locations := newTestRouter()
	locationID := uuid.New()
	target := attach(router, domain.RoleCustomer)
	staff := joinLocation(t, router, locations, locationID, domain.RoleWaiter)

	router.Publish(context.Background(), domain.NewEvent(locationID, nil, time.Now(), domain.NotificationPayload{
		UserID: target.Identity().UserID,
		Title:  "Order ready",
	}))

	assert.Equal(t, 1, target.countKind(domain.EventNotification))
	assert.Equal(t, 0, staff.countKind(domain.EventNotification))
}

func TestStaffClockReachesLocationRoom(t *testing.T) {
	router, _, locations := newTestRouter()
	locationID := uuid.New()
	staff := joinLocation(t, router, locations, locationID, domain.RoleWaiter)
	cook := joinLocation(t, router, locations, locationID, domain.RoleKitchen)

	router.Publish(context.Background(), domain.NewEvent(locationID, nil, time.Now(), domain.StaffClockPayload{
		In:     true,
		UserID: staff.Identity().UserID,
	}))

	assert.Equal(t, 1, staff.countKind(domain.EventStaffClockIn))
	// Once via the location room only; the kitchen room is not an
	// audience for presence.
	assert.Equal(t, 1, cook.countKind(domain.EventStaffClockIn))
}

func TestRunWithoutBrokerWaitsForContext(t *testing.T) {
	router, _, _ := newTestRouter()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
