package security

import "time"

// LoginSession is one successful login with its resolved location.
type LoginSession struct {
	ID         string
	UserID     string
	IPAddress  string
	UserAgent  string
	Country    string
	City       string
	Latitude   *float64
	Longitude  *float64
	LoggedInAt time.Time
}

// Geo returns the session as a scorer input.
func (s LoginSession) Geo() GeoLoginEvent {
	return GeoLoginEvent{
		Country:   s.Country,
		City:      s.City,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Timestamp: s.LoggedInAt,
	}
}

// Alert is the persisted result of scoring one login.
type Alert struct {
	ID              string
	UserID          string
	SessionID       string
	Level           RiskLevel
	Reason          RiskReason
	DistanceKm      *float64
	SpeedKmh        *float64
	Country         string
	City            string
	PreviousCountry *string
	PreviousCity    *string
	IPAddress       string
	NotifiedAt      *time.Time
	CreatedAt       time.Time

	// Joined fields
	UserEmail  *string
	LoggedInAt time.Time // login_sessions.logged_in_at
}
