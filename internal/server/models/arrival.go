package models

import "time"

// Location is an optional geolocation captured by the kiosk.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Device describes the client that produced the check-in.
type Device struct {
	Type    string `json:"type,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
}

// Arrival is one check-in event. Lateness fields are derived from
// ArrivalTime and Cutoff when the record is created and never change.
type Arrival struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"studentId"`
	ExternalID  string        `json:"externalUserId"`
	Name        string        `json:"name"`
	Cohort      string        `json:"cohort"`
	Timestamp   time.Time     `json:"timestamp"`
	ArrivalDate string        `json:"arrivalDate"`
	Method      CheckinMethod `json:"method"`
	ArrivalTime string        `json:"arrivalTime"`
	Cutoff      string        `json:"cutoff"`
	IsLate      bool          `json:"isLate"`
	MinutesLate int           `json:"minutesLate"`
	Notes       string        `json:"notes,omitempty"`
	Location    *Location     `json:"location,omitempty"`
	Device      *Device       `json:"device,omitempty"`
}

// ArrivalFilter narrows arrival listings. Zero values mean "any".
type ArrivalFilter struct {
	From     time.Time
	To       time.Time
	Cohort   string
	Method   CheckinMethod
	LateOnly bool
	Limit    int
	Offset   int
}

// DailyStats summarises one calendar day of arrivals.
type DailyStats struct {
	Date     string                `json:"date"`
	Total    int                   `json:"total"`
	Late     int                   `json:"late"`
	OnTime   int                   `json:"onTime"`
	ByMethod map[CheckinMethod]int `json:"byMethod"`
}

// CheckinDetails is the optional context a kiosk or administrator attaches
// to a check-in.
type CheckinDetails struct {
	Notes    string
	Location *Location
	Device   *Device
}
