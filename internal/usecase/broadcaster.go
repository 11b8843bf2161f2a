package usecase

import (
	"time"

	"github.com/qrave1/anonspeak/internal/domain/events"
	"github.com/qrave1/anonspeak/internal/domain/models"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
)

// broadcaster рассылки по снимкам реестра. Снимки берутся до отправки, реестр не блокируется на сети.
type broadcaster struct {
	registry memory.RoomRegistry
	wsRepo   memory.WebsocketConnectionRepository
}

// notifyDeparture user-left и users-update оставшимся в комнате
func (b broadcaster) notifyDeparture(dep models.Departure) {
	if dep.Room.Deleted || len(dep.Room.Members) == 0 {
		return
	}

	b.wsRepo.WriteMany(dep.Room.ConnIDs(), events.New(events.TypeUserLeft, events.UserLeftEvent{
		UserID: dep.Session.ID,
		Name:   dep.Session.Name,
	}))
	b.sendUsersUpdate(dep.Room)
}

func (b broadcaster) notifyRoomDeleted(state models.RoomState) {
	b.wsRepo.WriteMany(state.ConnIDs(), events.New(events.TypeRoomDeleted, events.RoomRef{
		ID:   state.Room.ID,
		Name: state.Room.Name,
		Code: state.Room.Code,
	}))
	b.broadcastRooms()
	b.broadcastOnlineUsers()
}

func (b broadcaster) sendUsersUpdate(state models.RoomState) {
	b.wsRepo.WriteMany(state.ConnIDs(), events.Outbound{
		Type: events.TypeUsersUpdate,
		Rev:  state.Revision,
		Data: state.Members,
	})
}

func (b broadcaster) broadcastRooms() {
	b.wsRepo.Broadcast(events.New(events.TypeRoomsUpdate, b.registry.PublicRooms()))
}

func (b broadcaster) broadcastOnlineUsers() {
	b.wsRepo.Broadcast(events.New(events.TypeOnlineUsers, b.registry.OnlineUsers()))
}

func (b broadcaster) stats(uptime time.Duration) events.StatsResult {
	stats := b.registry.Stats()

	return events.StatsResult{
		Result:           events.OK,
		CurrentUsers:     stats.CurrentUsers,
		TotalRooms:       stats.TotalRooms,
		TotalConnections: len(b.wsRepo.GetAllConnected()),
		AvgRoomSize:      stats.AvgRoomSize,
		UptimeMs:         uptime.Milliseconds(),
	}
}
