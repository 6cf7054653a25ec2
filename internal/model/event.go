package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type ExperienceType string

const (
	ExperienceWorkshop      ExperienceType = "workshop"
	ExperienceDemonstration ExperienceType = "demonstration"
	ExperienceVisit         ExperienceType = "visit"
	ExperienceFair          ExperienceType = "fair"
)

func (t ExperienceType) Valid() bool {
	switch t {
	case ExperienceWorkshop, ExperienceDemonstration, ExperienceVisit, ExperienceFair:
		return true
	}
	return false
}

const DefaultMaxParticipants = 10

type Location struct {
	Address   string  `gorm:"size:255" json:"address"`
	City      string  `gorm:"size:120" json:"city"`
	Region    string  `gorm:"size:120;index" json:"region"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type Event struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	ArtisanID   string   `gorm:"size:36;index;not null" json:"artisanId"`
	Title       string   `gorm:"size:200;not null" json:"title"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Location    Location `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Images      []string `gorm:"serializer:json" json:"images"`

	StartDate time.Time `gorm:"index;not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`

	MaxParticipants     int `gorm:"not null" json:"maxParticipants"`
	CurrentParticipants int `gorm:"not null" json:"currentParticipants"`

	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsFree          bool            `gorm:"not null" json:"isFree"`
	DurationMinutes int             `gorm:"not null" json:"durationMinutes"`
	ExperienceType  ExperienceType  `gorm:"size:32;index;not null" json:"experienceType"`

	IsApproved      bool   `gorm:"index;not null" json:"isApproved"`
	ApprovedBy      string `gorm:"size:36" json:"approvedBy,omitempty"`
	RejectionReason string `gorm:"type:text" json:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *Event) IsFull() bool {
	return e.CurrentParticipants >= e.MaxParticipants
}

func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartDate)
}

func (e *Event) HasEnded(now time.Time) bool {
	return now.After(e.EndDate)
}

func (e *Event) SpotsLeft() int {
	if left := e.MaxParticipants - e.CurrentParticipants; left > 0 {
		return left
	}
	return 0
}

// MarshalJSON adds the derived booking fields clients render.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	now := time.Now()
	return json.Marshal(struct {
		plain
		IsFull     bool `json:"isFull"`
		HasStarted bool `json:"hasStarted"`
		HasEnded   bool `json:"hasEnded"`
		SpotsLeft  int  `json:"spotsLeft"`
	}{
		plain:      plain(e),
		IsFull:     e.IsFull(),
		HasStarted: e.HasStarted(now),
		HasEnded:   e.HasEnded(now),
		SpotsLeft:  e.SpotsLeft(),
	})
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCanceled  ReservationStatus = "canceled"
)

type Reservation struct {
	ID                   string            `gorm:"primaryKey;size:36" json:"id"`
	EventID              string            `gorm:"size:36;index;not null" json:"eventId"`
	UserID               string            `gorm:"size:36;index;not null" json:"userId"`
	FullName             string            `gorm:"size:120;not null" json:"fullName"`
	Email                string            `gorm:"size:255;not null" json:"email"`
	PhoneNumber          string            `gorm:"size:40" json:"phoneNumber,omitempty"`
	NumberOfParticipants int               `gorm:"not null" json:"numberOfParticipants"`
	SpecialRequirements  string            `gorm:"type:text" json:"specialRequirements,omitempty"`
	Status               ReservationStatus `gorm:"size:16;index;not null;default:pending" json:"status"`
	PromoCode            string            `gorm:"size:32" json:"promoCode,omitempty"`
	PromoCodeSent        bool              `gorm:"not null" json:"promoCodeSent"`
	Event                *Event            `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}
