package dto

import (
	"github.com/pion/webrtc/v4"

	"github.com/qrave1/anonspeak/internal/domain/events"
	"github.com/qrave1/anonspeak/internal/domain/models"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ListRoomsResponse struct {
	Rooms []models.RoomSummary `json:"rooms"`
}

func NewListRoomsResponse(rooms []models.RoomSummary) ListRoomsResponse {
	if rooms == nil {
		rooms = []models.RoomSummary{}
	}

	return ListRoomsResponse{Rooms: rooms}
}

type RoomResponse struct {
	Room models.RoomSummary `json:"room"`
}

type IceServersResponse struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

type StatsResponse struct {
	CurrentUsers     int     `json:"currentUsers"`
	TotalRooms       int     `json:"totalRooms"`
	TotalConnections int     `json:"totalConnections"`
	AvgRoomSize      float64 `json:"avgRoomSize"`
	UptimeMs         int64   `json:"uptimeMs"`
}

func NewStatsResponse(s events.StatsResult) StatsResponse {
	return StatsResponse{
		CurrentUsers:     s.CurrentUsers,
		TotalRooms:       s.TotalRooms,
		TotalConnections: s.TotalConnections,
		AvgRoomSize:      s.AvgRoomSize,
		UptimeMs:         s.UptimeMs,
	}
}
