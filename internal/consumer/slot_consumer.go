package consumer

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/slotwise/parking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// catalogSlot is the shape the catalog service publishes. The availability
// flag is deliberately absent: it belongs to this service and must never be
// overwritten by catalog syncs.
type catalogSlot struct {
	ID      uint   `json:"id"`
	Label   string `json:"label"`
	Zone    string `json:"zone"`
	Enabled bool   `json:"enabled"`
}

type SlotConsumer struct {
	db *gorm.DB
}

func NewSlotConsumer(db *gorm.DB) *SlotConsumer {
	return &SlotConsumer{db: db}
}

// Start listens for catalog messages and upserts slots into the local table.
func (sc *SlotConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			sc.handleMessage(msg)
		}
		log.Println("[SlotConsumer] channel closed, stopping consumer")
	}()
}

func (sc *SlotConsumer) handleMessage(msg amqp.Delivery) {
	var payload catalogSlot
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		log.Printf("[SlotConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	slot := models.Slot{
		ID:          payload.ID,
		Label:       payload.Label,
		Zone:        payload.Zone,
		Enabled:     payload.Enabled,
		IsAvailable: true,
	}

	// Upsert: insert or update on conflict (same ID from the catalog).
	// is_available is excluded from the update set on purpose.
	result := sc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "zone", "enabled", "updated_at"}),
	}).Create(&slot)

	if result.Error != nil {
		log.Printf("[SlotConsumer] failed to upsert slot %d: %v", payload.ID, result.Error)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[SlotConsumer] synced slot %d: %s", payload.ID, payload.Label)
	msg.Ack(false)
}
