package beer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// creationDateLayout matches the short date the mobile client displays.
const creationDateLayout = "1/2/2006"

// Push notification types that carry an item to merge.
const (
	NotificationCreated = "created"
	NotificationUpdated = "updated"
)

// Item mirrors a beer record as stored by the backend.
type Item struct {
	ID           string    `json:"_id,omitempty"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	CreationDate string    `json:"creationDate,omitempty"`
	Favorite     bool      `json:"favorite"`
	Photo        *Photo    `json:"photo,omitempty"`
	Location     *Location `json:"location,omitempty"`
}

// Persisted reports whether the backend has assigned an identifier.
func (i Item) Persisted() bool {
	return strings.TrimSpace(i.ID) != ""
}

// Stamp sets CreationDate to the display form of now. Edits re-stamp the item.
func (i Item) Stamp(now time.Time) Item {
	i.CreationDate = now.Format(creationDateLayout)
	return i
}

// Clone returns a copy that shares no pointers with i.
func (i Item) Clone() Item {
	if i.Photo != nil {
		p := *i.Photo
		i.Photo = &p
	}
	if i.Location != nil {
		l := *i.Location
		if l.Coords.Altitude != nil {
			alt := *l.Coords.Altitude
			l.Coords.Altitude = &alt
		}
		i.Location = &l
	}
	return i
}

// Photo references an image stored on the device.
type Photo struct {
	Filepath    string `json:"filepath"`
	WebviewPath string `json:"webviewPath,omitempty"`
}

// Location is a captured position with its accuracy and capture time.
type Location struct {
	Coords    Coordinates `json:"coords"`
	Timestamp int64       `json:"timestamp"` // epoch milliseconds
}

// Coordinates holds the coordinate pair and accuracy in meters.
type Coordinates struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// NewLocation builds a Location captured at the given instant.
func NewLocation(lat, lng, accuracy float64, at time.Time) *Location {
	return &Location{
		Coords:    Coordinates{Latitude: lat, Longitude: lng, Accuracy: accuracy},
		Timestamp: at.UnixMilli(),
	}
}

// CapturedAt returns the capture time, or the zero time when unset.
func (l Location) CapturedAt() time.Time {
	if l.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(l.Timestamp)
}

// String renders the coordinate pair as "lat,lng".
func (l Location) String() string {
	return strconv.FormatFloat(l.Coords.Latitude, 'f', 5, 64) + "," +
		strconv.FormatFloat(l.Coords.Longitude, 'f', 5, 64)
}

// ParseCoordinates parses "lat,lng" as typed into the edit form.
func ParseCoordinates(value string) (lat, lng float64, err error) {
	parts := strings.Split(strings.TrimSpace(value), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinates %q: want lat,lng", value)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("longitude %v out of range", lng)
	}
	return lat, lng, nil
}

// Notification is a frame received on the push channel.
type Notification struct {
	Type string `json:"type"`
	Item Item   `json:"payload"`
}

// Merges reports whether the notification carries an item to merge.
func (n Notification) Merges() bool {
	return n.Type == NotificationCreated || n.Type == NotificationUpdated
}

type authorizationFrame struct {
	Type    string `json:"type"`
	Payload struct {
		Token string `json:"token"`
	} `json:"payload"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
