package domain

import (
	"strconv"
	"time"
)

// Member is a committee member.
type Member struct {
	ID       int64      `json:"id,omitempty"`
	Name     string     `json:"name"`
	Position string     `json:"position"`
	Bio      string     `json:"bio,omitempty"`
	ImageURL string     `json:"imageUrl,omitempty"`
	Active   bool       `json:"isActive"`
	JoinDate *time.Time `json:"joinDate,omitempty"`
}

func (m Member) Key() string {
	return idKey(m.ID)
}

func (m Member) ImageRef() string {
	return m.ImageURL
}

func (m Member) WithImage(ref string) Member {
	m.ImageURL = ref
	return m
}

func idKey(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
