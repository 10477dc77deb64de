package domain

import "time"

type Event struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	EventDate   time.Time  `json:"eventDate"`
	Location    string     `json:"location,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func (e Event) Key() string {
	return idKey(e.ID)
}

func (e Event) ImageRef() string {
	return e.ImageURL
}

func (e Event) WithImage(ref string) Event {
	e.ImageURL = ref
	return e
}

// IsUpcoming reports whether the event starts at or after now.
func (e Event) IsUpcoming(now time.Time) bool {
	return !e.EventDate.Before(now)
}
