package security

import (
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/utils"
)

// ImpossibleTravelSpeedKmh approximates commercial flight speed. Two logins
// implying faster travel than this are flagged.
const ImpossibleTravelSpeedKmh = 900.0

type RiskLevel string

const (
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

type RiskReason string

const (
	ReasonNone             RiskReason = "none"
	ReasonNewCountry       RiskReason = "new_country"
	ReasonImpossibleTravel RiskReason = "impossible_travel"
)

// GeoLoginEvent is where and when a login happened. Coordinates are optional.
type GeoLoginEvent struct {
	Country   string
	City      string
	Latitude  *float64
	Longitude *float64
	Timestamp time.Time
}

// HasCoordinates reports whether both latitude and longitude are known.
func (e GeoLoginEvent) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// RiskAssessment is the outcome of comparing a login with the one before it.
// DistanceKm and SpeedKmh are set only when they were computed.
type RiskAssessment struct {
	Level      RiskLevel  `json:"level"`
	Reason     RiskReason `json:"reason"`
	DistanceKm *float64   `json:"distance_km,omitempty"`
	SpeedKmh   *float64   `json:"speed_kmh,omitempty"`
}

// IsHigh reports whether administrators must be notified.
func (a RiskAssessment) IsHigh() bool {
	return a.Level == RiskHigh
}

// ScoreLogin compares current with the previous login of the same identity
// using the default speed limit. A nil previous means a first login.
func ScoreLogin(previous *GeoLoginEvent, current GeoLoginEvent) RiskAssessment {
	return ScoreLoginWithLimit(previous, current, ImpossibleTravelSpeedKmh)
}

// ScoreLoginWithLimit is ScoreLogin with an explicit speed limit in km/h.
//
// A country change is checked first and wins over the travel check.
// Impossible travel needs coordinates on both events and a positive elapsed time.
func ScoreLoginWithLimit(previous *GeoLoginEvent, current GeoLoginEvent, maxSpeedKmh float64) RiskAssessment {
	if previous == nil {
		return RiskAssessment{Level: RiskLow, Reason: ReasonNone}
	}

	if previous.Country != current.Country {
		return RiskAssessment{Level: RiskHigh, Reason: ReasonNewCountry}
	}

	if !previous.HasCoordinates() || !current.HasCoordinates() {
		return RiskAssessment{Level: RiskLow, Reason: ReasonNone}
	}

	distance := utils.HaversineDistanceKm(*previous.Latitude, *previous.Longitude, *current.Latitude, *current.Longitude)
	assessment := RiskAssessment{Level: RiskLow, Reason: ReasonNone, DistanceKm: &distance}

	elapsedHours := current.Timestamp.Sub(previous.Timestamp).Hours()
	if elapsedHours <= 0 {
		return assessment
	}

	speed := distance / elapsedHours
	assessment.SpeedKmh = &speed
	if speed > maxSpeedKmh {
		assessment.Level = RiskHigh
		assessment.Reason = ReasonImpossibleTravel
	}

	return assessment
}
