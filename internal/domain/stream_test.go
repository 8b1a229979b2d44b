package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// воркер статистики и внешние подписчики читают событие по этим ключам
func TestFarmSavedEvent_WireFormat(t *testing.T) {
	event := FarmSavedEvent{
		EventID: uuid.MustParse("0b0f8d3c-8a55-4b8e-9d3e-2f7a4a1c6b10"),
		FarmID:  12,
		Code:    "FZ-12",
		Owner:   "João",
		AreaHa:  87.25,
		Parcels: 5,
		Updated: true,
		SavedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "0b0f8d3c-8a55-4b8e-9d3e-2f7a4a1c6b10", fields["event_id"])
	assert.Equal(t, 12.0, fields["farm_id"])
	assert.Equal(t, "FZ-12", fields["cod_fazenda"])
	assert.Equal(t, true, fields["updated"])
	assert.Equal(t, "2024-03-01T12:00:00Z", fields["saved_at"])
}
