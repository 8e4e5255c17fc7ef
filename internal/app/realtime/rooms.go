package realtime

import "github.com/google/uuid"

// Room names. A room is a named fan-out topic; events published to a
// room reach every connection currently joined to it.

func UserRoom(userID uuid.UUID) string { return "user:" + userID.String() }

func StaffRoom(staffID uuid.UUID) string { return "staff:" + staffID.String() }

func LocationRoom(locationID uuid.UUID) string { return "location:" + locationID.String() }

func KitchenRoom(locationID uuid.UUID) string { return "kitchen:" + locationID.String() }

func OrderRoom(orderID uuid.UUID) string { return "order:" + orderID.String() }
