package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamFarmSaved = "stream:farm:saved"
)

// FarmSavedEvent - событие о сохранении фермы (insert или update)
type FarmSavedEvent struct {
	EventID uuid.UUID `json:"event_id"`
	FarmID  int64     `json:"farm_id"`
	Code    string    `json:"cod_fazenda"`
	Owner   string    `json:"owner"`
	AreaHa  float64   `json:"area_ha"`
	Parcels int       `json:"parcels"`
	Updated bool      `json:"updated"`
	SavedAt time.Time `json:"saved_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
