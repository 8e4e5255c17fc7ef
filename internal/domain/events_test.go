package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventEnvelopeRoundTrip(t *testing.T) {
	locationID := uuid.New()
	orderID := uuid.New()
	at := time.Now().UTC().Truncate(time.Millisecond)

	event := NewEvent(locationID, &orderID, at, OrderStatusChangedPayload{
		OrderID:   orderID,
		Number:    42,
		OldStatus: OrderConfirmed,
		NewStatus: OrderReady,
		ActorID:   uuid.New(),
		ActorName: "Dana",
		CreatedBy: uuid.New(),
	})
	require.Equal(t, EventOrderStatusChanged, event.Kind)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Contains(t, env, "event")
	assert.Contains(t, env, "data")

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, event.Kind, decoded.Kind)
	assert.Equal(t, event.LocationID, decoded.LocationID)
	require.NotNil(t, decoded.OrderID)
	assert.Equal(t, orderID, *decoded.OrderID)

	payload, ok := decoded.Payload.(OrderStatusChangedPayload)
	require.True(t, ok, "payload decoded as %T", decoded.Payload)
	assert.Equal(t, OrderReady, payload.NewStatus)
	assert.Equal(t, "Dana", payload.ActorName)
}

func TestStaffClockKinds(t *testing.T) {
	in := StaffClockPayload{In: true, UserID: uuid.New()}
	out := StaffClockPayload{UserID: in.UserID}
	assert.Equal(t, EventStaffClockIn, in.EventKind())
	assert.Equal(t, EventStaffClockOut, out.EventKind())

	// The In flag survives a round trip via the kind, not the body.
	raw, err := json.Marshal(NewEvent(uuid.New(), nil, time.Now(), in))
	require.NoError(t, err)
	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	payload, ok := decoded.Payload.(StaffClockPayload)
	require.True(t, ok)
	assert.True(t, payload.In)
	assert.Equal(t, EventStaffClockIn, decoded.Kind)
}

func TestEventUnknownKind(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"event":"order:vaporized","location_id":"`+uuid.New().String()+`","occurred_at":"2025-01-01T00:00:00Z","data":{}}`), &e)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
