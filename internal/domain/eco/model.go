package eco

import (
	"time"

	"github.com/google/uuid"
)

// Waste report lifecycle is deliberately flat: reported -> collected.
const (
	ReportStatusReported  = "reported"
	ReportStatusCollected = "collected"
)

type WasteReport struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	WasteType   string    `json:"waste_type"`
	Amount      float64   `json:"amount"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Facility struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	AcceptedTypes string    `json:"accepted_types"`
	Contact       string    `json:"contact"`
	CreatedAt     time.Time `json:"created_at"`
}

type TrainingModule struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}
