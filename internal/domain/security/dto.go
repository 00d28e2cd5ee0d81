package security

import (
	"math"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
)

// Location is the geo position resolved for a request by the edge proxy or the client.
type Location struct {
	Country   string   `json:"country"`
	City      string   `json:"city"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (l *Location) Validate() error {
	var errs validator.ValidationErrors

	if l.Latitude != nil && !inRange(*l.Latitude, 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "location.latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if l.Longitude != nil && !inRange(*l.Longitude, 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "location.longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// inRange also rejects NaN, which fails every comparison.
func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

// LoginAttempt is a successful authentication waiting to be scored.
type LoginAttempt struct {
	UserID    string
	IPAddress string
	UserAgent string
	Location  Location
	At        time.Time
}

// Event returns the attempt as a scorer input.
func (a LoginAttempt) Event() GeoLoginEvent {
	return GeoLoginEvent{
		Country:   a.Location.Country,
		City:      a.Location.City,
		Latitude:  a.Location.Latitude,
		Longitude: a.Location.Longitude,
		Timestamp: a.At,
	}
}

type AlertFilter struct {
	Level  *RiskLevel `json:"level,omitempty"`
	UserID *string    `json:"user_id,omitempty"`
	Page   int        `json:"page"`
	Limit  int        `json:"limit"`
}

// Normalize clamps paging to sane defaults.
func (f *AlertFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type AlertResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	UserEmail       string     `json:"user_email,omitempty"`
	Level           RiskLevel  `json:"level"`
	Reason          RiskReason `json:"reason"`
	DistanceKm      *float64   `json:"distance_km,omitempty"`
	SpeedKmh        *float64   `json:"speed_kmh,omitempty"`
	Country         string     `json:"country"`
	City            string     `json:"city"`
	PreviousCountry *string    `json:"previous_country,omitempty"`
	PreviousCity    *string    `json:"previous_city,omitempty"`
	IPAddress       string     `json:"ip_address"`
	Notified        bool       `json:"notified"`
	CreatedAt       string     `json:"created_at"`
}

type ListAlertsResponse struct {
	Alerts     []AlertResponse `json:"alerts"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

// AlertEvent is pushed to connected administrators.
type AlertEvent struct {
	Event string        `json:"event"`
	Data  AlertResponse `json:"data"`
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ToResponse maps an alert for the API.
func ToResponse(a Alert) AlertResponse {
	resp := AlertResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Level:           a.Level,
		Reason:          a.Reason,
		DistanceKm:      a.DistanceKm,
		SpeedKmh:        a.SpeedKmh,
		Country:         a.Country,
		City:            a.City,
		PreviousCountry: a.PreviousCountry,
		PreviousCity:    a.PreviousCity,
		IPAddress:       a.IPAddress,
		Notified:        a.NotifiedAt != nil,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.UserEmail != nil {
		resp.UserEmail = *a.UserEmail
	}
	return resp
}
