package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

// Router resolves room membership commands and fans lifecycle events
// out to the rooms relevant to their audience. With a broker
// configured it also bridges events across instances; without one
// (or when the broker fails) it keeps serving local fan-out.
type Router struct {
	registry  *Registry
	locations interfaces.LocationStore
	broker    interfaces.Broker
	logger    logger.Logger
}

func NewRouter(registry *Registry, locations interfaces.LocationStore, broker interfaces.Broker, lgr logger.Logger) *Router {
	return &Router{
		registry:  registry,
		locations: locations,
		broker:    broker,
		logger:    lgr,
	}
}

// Attach registers a freshly authenticated session and auto-joins its
// private per-user room (and staff room when a staff id is bound).
func (r *Router) Attach(s Session) {
	r.registry.Register(s)
	id := s.Identity()
	r.registry.Join(s.ID(), UserRoom(id.UserID))
	if id.StaffID != nil {
		r.registry.Join(s.ID(), StaffRoom(*id.StaffID))
	}
	r.logger.Debug("connection_attached", "Realtime connection attached", "", map[string]interface{}{
		"session_id": s.ID(),
		"user_id":    id.UserID.String(),
		"role":       string(id.Role),
	})
}

func (r *Router) Detach(sessionID string) {
	r.registry.Unregister(sessionID)
	r.logger.Debug("connection_detached", "Realtime connection detached", "", map[string]interface{}{
		"session_id": sessionID,
	})
}

// HandleCommand executes one room-membership command. Authorization
// failures are answered with an error event on the connection and
// leave membership unchanged; they never close the connection.
func (r *Router) HandleCommand(ctx context.Context, s Session, cmd Command) {
	switch cmd.Action {
	case ActionJoinLocation:
		if !r.authorize(ctx, s, cmd.LocationID) {
			return
		}
		r.registry.Join(s.ID(), LocationRoom(cmd.LocationID))
		r.ack(s, cmd.LocationID, false)
		if s.Identity().Role.KitchenRole() {
			r.registry.Join(s.ID(), KitchenRoom(cmd.LocationID))
			r.ack(s, cmd.LocationID, true)
		}

	case ActionLeaveLocation:
		r.registry.Leave(s.ID(), LocationRoom(cmd.LocationID))
		r.registry.Leave(s.ID(), KitchenRoom(cmd.LocationID))

	case ActionJoinKitchen:
		if !r.authorize(ctx, s, cmd.LocationID) {
			return
		}
		r.registry.Join(s.ID(), KitchenRoom(cmd.LocationID))
		r.ack(s, cmd.LocationID, true)

	case ActionLeaveKitchen:
		r.registry.Leave(s.ID(), KitchenRoom(cmd.LocationID))

	case ActionOrderSubscribe:
		// Authenticated connections may watch individual orders; ids
		// are not guessable business data on their own.
		r.registry.Join(s.ID(), OrderRoom(cmd.OrderID))

	case ActionOrderUnsubscribe:
		r.registry.Leave(s.ID(), OrderRoom(cmd.OrderID))

	default:
		s.Deliver(errorEvent(domain.KindValidation, "unknown action "+cmd.Action))
	}
}

func (r *Router) authorize(ctx context.Context, s Session, locationID uuid.UUID) bool {
	ok, err := r.locations.HasLocationAccess(ctx, s.Identity().UserID, locationID)
	if err != nil {
		r.logger.Error("location_access_check_failed", "Failed to check location access", "", map[string]interface{}{
			"location_id": locationID.String(),
		}, err)
		s.Deliver(errorEvent(domain.KindTransientInfra, "could not verify location access"))
		return false
	}
	if !ok {
		s.Deliver(errorEvent(domain.KindAuthorization, "no access to location "+locationID.String()))
		return false
	}
	return true
}

func (r *Router) ack(s Session, locationID uuid.UUID, kitchen bool) {
	room := LocationRoom(locationID)
	if kitchen {
		room = KitchenRoom(locationID)
	}
	s.Deliver(domain.NewEvent(locationID, nil, time.Now(), domain.JoinedRoomPayload{
		Kitchen:    kitchen,
		LocationID: locationID,
		Room:       room,
	}))
}

// Publish fans the event out locally and hands it to the broker for
// other instances. It is the lifecycle engine's EventPublisher;
// broker failure degrades to local-only delivery and is never
// surfaced to the caller.
func (r *Router) Publish(ctx context.Context, event domain.Event) {
	r.fanout(event)
	if r.broker == nil {
		return
	}
	if err := r.broker.Publish(ctx, event); err != nil {
		r.logger.Error("broker_publish_failed", "Event not relayed to other instances", "", map[string]interface{}{
			"event": string(event.Kind),
		}, err)
	}
}

// Run bridges remote events into local fan-out until ctx ends.
// Remote events are fanned out locally only, never re-published.
func (r *Router) Run(ctx context.Context) error {
	if r.broker == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.broker.Subscribe(ctx, r.fanout)
}

func (r *Router) fanout(event domain.Event) {
	for _, room := range r.roomsFor(event) {
		r.registry.Broadcast(room, event)
	}
}

// roomsFor encodes the audience of each event kind. Each listed room
// receives the event exactly once.
func (r *Router) roomsFor(event domain.Event) []string {
	location := LocationRoom(event.LocationID)
	kitchen := KitchenRoom(event.LocationID)

	var rooms []string
	switch p := event.Payload.(type) {
	case domain.OrderCreatedPayload:
		rooms = append(rooms, location)
		// A pending order awaiting confirmation stays off the
		// kitchen display.
		if p.Status == domain.OrderConfirmed {
			rooms = append(rooms, kitchen)
		}

	case domain.OrderStatusChangedPayload:
		rooms = append(rooms, location, kitchen)
		// The creator learns their order can be served.
		if p.NewStatus == domain.OrderReady {
			rooms = append(rooms, UserRoom(p.CreatedBy))
		}

	case domain.NotificationPayload:
		return []string{UserRoom(p.UserID)}

	case domain.KitchenAlertPayload:
		return []string{kitchen}

	case domain.StaffClockPayload:
		return []string{location}

	case domain.JoinedRoomPayload, domain.ErrorPayload:
		// Connection-management events are delivered directly to a
		// single session, never fanned out.
		return nil

	default:
		// Remaining lifecycle events (item changes, cancellation,
		// payment, table status) share the location+kitchen pattern.
		rooms = append(rooms, location, kitchen)
	}

	if event.OrderID != nil {
		rooms = append(rooms, OrderRoom(*event.OrderID))
	}
	return rooms
}

func errorEvent(kind domain.Kind, message string) domain.Event {
	return domain.Event{
		Kind:       domain.EventError,
		OccurredAt: time.Now(),
		Payload:    domain.ErrorPayload{Code: kind, Message: message},
	}
}
