package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/selection"
)

// TopicSlotConfirmed receives one message per confirmed match.
const TopicSlotConfirmed = "meetmatch.slot.confirmed.v1"

// Event is the envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type slotConfirmedPayload struct {
	ConfirmationID string   `json:"confirmation_id"`
	SelectedIDs    []string `json:"selected_ids"`
	DayIndex       int      `json:"day_index"`
	HourIndex      int      `json:"hour_index"`
	Label24h       string   `json:"label_24h"`
	Label12h       string   `json:"label_12h"`
	ShareText      string   `json:"share_text"`
	ConfirmedAt    string   `json:"confirmed_at"`
}

func SlotConfirmedEvent(c selection.Confirmation) (Event, error) {
	payload, err := json.Marshal(slotConfirmedPayload{
		ConfirmationID: c.ID,
		SelectedIDs:    c.SelectedIDs,
		DayIndex:       c.DayIndex,
		HourIndex:      c.HourIndex,
		Label24h:       c.Label24h,
		Label12h:       c.Label12h,
		ShareText:      c.ShareText(),
		ConfirmedAt:    c.ConfirmedAt.Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, fmt.Errorf("encode slot confirmed payload: %w", err)
	}
	return Event{
		AggregateType: "confirmation",
		AggregateID:   c.ID,
		EventType:     TopicSlotConfirmed,
		Payload:       payload,
	}, nil
}
