package studio

import (
	"github.com/raveai/server/internal/repository/connection"
)

const (
	OutputTypeState            = "STATE"
	OutputTypeDeckUpdated      = "DECK_UPDATED"
	OutputTypePlayerUpdated    = "PLAYER_UPDATED"
	OutputTypeVolumeUpdated    = "VOLUME_UPDATED"
	OutputTypeSelectionUpdated = "SELECTION_UPDATED"
	OutputTypeMashupProcessing = "MASHUP_PROCESSING"
	OutputTypeMashupCreated    = "MASHUP_CREATED"
	OutputTypeWaveformFrame    = "WAVEFORM_FRAME"
	OutputTypeError            = "ERROR"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Broadcast writes out to every conn. A failed write is logged and does not
// stop delivery to the others. The failed conn is closed so its read loop
// ends and disconnects it.
func (s *service) Broadcast(conns []*connection.Conn, out Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(out); err != nil {
			s.logger.Debug("failed to write message",
				"session_id", conn.SessionID(),
				"conn_id", conn.ID(),
				"type", out.Type,
				"error", err,
			)
			conn.Close()
		}
	}
}

func (s *service) broadcastToSession(sessionID string, out Output) {
	s.Broadcast(s.connRepo.GetConns(sessionID), out)
}
