package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/society-cms-go/internal/domain"
)

// This file is the one place that knows about the payload shapes the API has
// used over time. Everything past it only sees the canonical domain types.

// flexID accepts both JSON numbers and strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) int64() (int64, error) {
	if f == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected numeric id, got %q", string(f))
	}
	return id, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexTime accepts ISO strings with or without a zone, and the
// [year, month, day, hour, minute, second, nanos] arrays some JSON
// serializers emit for local date-times.
type flexTime struct {
	t *time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		f.t = nil
		return nil
	}

	if b[0] == '[' {
		var parts []int
		if err := json.Unmarshal(b, &parts); err != nil {
			return fmt.Errorf("invalid date array: %w", err)
		}
		if len(parts) < 3 {
			return fmt.Errorf("date array needs at least year, month, day")
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.UTC)
		f.t = &t
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	f.t = t
	return nil
}

func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

// localDateTime is the layout the backend expects on write.
const localDateTime = "2006-01-02T15:04:05"

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}

// ---- articles ----

type articleWire struct {
	ID               flexID   `json:"id"`
	Title            string   `json:"title"`
	Author           string   `json:"author"`
	Description      *string  `json:"description"`
	Summary          *string  `json:"summary"`
	Excerpt          *string  `json:"excerpt"`
	Content          *string  `json:"content"`
	FullContent      *string  `json:"fullContent"`
	ImageURL         string   `json:"imageUrl"`
	Tags             []string `json:"tags"`
	IsPublished      *bool    `json:"isPublished"`
	Published        *bool    `json:"published"`
	IsFeatured       *bool    `json:"isFeatured"`
	Featured         *bool    `json:"featured"`
	IsNewsletterSent *bool    `json:"isNewsletterSent"`
	NewsletterSent   *bool    `json:"newsletterSent"`
	CreatedAt        flexTime `json:"createdAt"`
	UpdatedAt        flexTime `json:"updatedAt"`
	PublishedAt      flexTime `json:"publishedAt"`
}

func (w articleWire) toDomain() domain.Article {
	return domain.Article{
		ID:             string(w.ID),
		Title:          w.Title,
		Author:         w.Author,
		Description:    firstString(w.Description, w.Summary, w.Excerpt),
		Content:        firstString(w.Content, w.FullContent),
		ImageURL:       w.ImageURL,
		Tags:           domain.NormalizeTags(w.Tags),
		Published:      firstBool(w.IsPublished, w.Published),
		Featured:       firstBool(w.IsFeatured, w.Featured),
		NewsletterSent: firstBool(w.IsNewsletterSent, w.NewsletterSent),
		CreatedAt:      w.CreatedAt.t,
		UpdatedAt:      w.UpdatedAt.t,
		PublishedAt:    w.PublishedAt.t,
	}
}

type articlePayload struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsPublished *bool    `json:"isPublished,omitempty"`
	IsFeatured  *bool    `json:"isFeatured,omitempty"`
}

// newArticlePayload only sends flags on create when they are set, so a plain
// draft goes out as just its text fields.
func newArticlePayload(a domain.Article, forUpdate bool) articlePayload {
	p := articlePayload{
		Title:       a.Title,
		Author:      a.Author,
		Description: a.Description,
		Content:     a.Content,
		ImageURL:    a.ImageURL,
		Tags:        domain.NormalizeTags(a.Tags),
	}
	if forUpdate {
		p.ID = a.ID
		p.IsPublished = boolPtr(a.Published)
		p.IsFeatured = boolPtr(a.Featured)
		return p
	}
	if a.Published {
		p.IsPublished = boolPtr(true)
	}
	if a.Featured {
		p.IsFeatured = boolPtr(true)
	}
	return p
}

// ---- members ----

type memberWire struct {
	ID          flexID   `json:"id"`
	Name        string   `json:"name"`
	Position    *string  `json:"position"`
	Title       *string  `json:"title"`
	Bio         *string  `json:"bio"`
	Description *string  `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	IsActive    *bool    `json:"isActive"`
	Active      *bool    `json:"active"`
	JoinDate    flexTime `json:"joinDate"`
}

func (w memberWire) toDomain() (domain.Member, error) {
	id, err := w.ID.int64()
	if err != nil {
		return domain.Member{}, err
	}
	active := true
	if w.IsActive != nil || w.Active != nil {
		active = firstBool(w.IsActive, w.Active)
	}
	return domain.Member{
		ID:       id,
		Name:     w.Name,
		Position: firstString(w.Position, w.Title),
		Bio:      firstString(w.Bio, w.Description),
		ImageURL: w.ImageURL,
		Active:   active,
		JoinDate: w.JoinDate.t,
	}, nil
}

type memberPayload struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Bio      string `json:"bio,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

func newMemberPayload(m domain.Member, forUpdate bool) memberPayload {
	p := memberPayload{
		Name:     m.Name,
		Position: m.Position,
		Bio:      m.Bio,
		ImageURL: m.ImageURL,
	}
	if forUpdate {
		p.ID = m.ID
		p.IsActive = boolPtr(m.Active)
	}
	return p
}

// ---- events ----

type eventWire struct {
	ID          flexID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	EventDate   flexTime `json:"eventDate"`
	Location    string   `json:"location"`
	CreatedAt   flexTime `json:"createdAt"`
	UpdatedAt   flexTime `json:"updatedAt"`
}

func (w eventWire) toDomain() (domain.Event, error) {
	id, err := w.ID.int64()
	if err != nil {
		return domain.Event{}, err
	}
	e := domain.Event{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		ImageURL:    w.ImageURL,
		Location:    w.Location,
		CreatedAt:   w.CreatedAt.t,
		UpdatedAt:   w.UpdatedAt.t,
	}
	if w.EventDate.t != nil {
		e.EventDate = *w.EventDate.t
	}
	return e, nil
}

type eventPayload struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	EventDate   string `json:"eventDate,omitempty"`
	Location    string `json:"location,omitempty"`
}

func newEventPayload(e domain.Event, forUpdate bool) eventPayload {
	p := eventPayload{
		Title:       e.Title,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		Location:    e.Location,
	}
	if !e.EventDate.IsZero() {
		p.EventDate = e.EventDate.Format(localDateTime)
	}
	if forUpdate {
		p.ID = e.ID
	}
	return p
}

// ---- newsletter ----

type subscriberWire struct {
	ID           flexID   `json:"id"`
	Email        string   `json:"email"`
	Verified     *bool    `json:"verified"`
	IsVerified   *bool    `json:"isVerified"`
	IsActive     *bool    `json:"isActive"`
	Active       *bool    `json:"active"`
	SubscribedAt flexTime `json:"subscribedAt"`
}

func (w subscriberWire) toDomain() (domain.Subscriber, error) {
	id, err := w.ID.int64()
	if err != nil {
		return domain.Subscriber{}, err
	}
	active := true
	if w.IsActive != nil || w.Active != nil {
		active = firstBool(w.IsActive, w.Active)
	}
	return domain.Subscriber{
		ID:           id,
		Email:        w.Email,
		Verified:     firstBool(w.Verified, w.IsVerified),
		Active:       active,
		SubscribedAt: w.SubscribedAt.t,
	}, nil
}

// ---- list helpers ----

func convertAll[W any, T any](wires []W, convert func(W) (T, error)) ([]T, error) {
	out := make([]T, 0, len(wires))
	for i, w := range wires {
		item, err := convert(w)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func articleFromWire(w articleWire) (domain.Article, error) {
	return w.toDomain(), nil
}

func memberFromWire(w memberWire) (domain.Member, error) {
	return w.toDomain()
}

func eventFromWire(w eventWire) (domain.Event, error) {
	return w.toDomain()
}

func subscriberFromWire(w subscriberWire) (domain.Subscriber, error) {
	return w.toDomain()
}
