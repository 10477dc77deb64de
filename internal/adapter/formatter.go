package adapter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/editor"
	"github.com/kapu/society-cms-go/internal/imageflow"
	"github.com/kapu/society-cms-go/internal/util"
)

const dateLayout = "2006-01-02 15:04"

// CommandInfo is one line of the help listing.
type CommandInfo struct {
	Name        string
	Description string
}

// DashboardSummary is the aggregate the dashboard command prints.
type DashboardSummary struct {
	Articles          int
	Published         int
	Featured          int
	Members           int
	ActiveMembers     int
	Events            int
	Upcoming          int
	Subscribers       int
	ActiveSubscribers int
	Problems          []string
}

// ResponseFormatter renders CLI output for CMS entities.
type ResponseFormatter struct {
	program     string
	baseURL     string
	placeholder string
}

// NewResponseFormatter creates a formatter. baseURL resolves server relative
// image paths.
func NewResponseFormatter(program, baseURL, placeholder string) *ResponseFormatter {
	if strings.TrimSpace(program) == "" {
		program = "cms"
	}
	return &ResponseFormatter{program: program, baseURL: baseURL, placeholder: placeholder}
}

type articleView struct {
	ID, Title, Author, Excerpt, Tags, Flags string
}

type articleDetailView struct {
	ID, Title, Author, Description, Body, Image, Tags, PublishedAt string
	Published, Featured, NewsletterSent                            bool
}

type memberView struct {
	ID, Name, Position, Bio, Image string
	Active                         bool
}

type eventView struct {
	ID, Title, When, Location, Description, Image string
}

type subscriberView struct {
	ID, Email, Since string
	Verified, Active bool
}

// FormatArticles renders a list with a plain-text excerpt per article.
func (f *ResponseFormatter) FormatArticles(heading string, articles []domain.Article) string {
	if len(articles) == 0 {
		return fmt.Sprintf("📰 No %s.", strings.ToLower(heading))
	}

	items := make([]articleView, 0, len(articles))
	for _, a := range articles {
		excerpt := a.Description
		if excerpt == "" {
			excerpt = editor.PlainText(a.Content)
		}
		items = append(items, articleView{
			ID:      a.ID,
			Title:   util.TruncateString(a.Title, constants.StringLimits.ListTitle),
			Author:  a.Author,
			Excerpt: util.TruncateString(excerpt, constants.StringLimits.Excerpt),
			Tags:    strings.Join(a.Tags, ", "),
			Flags:   articleFlags(a),
		})
	}
	return f.render("articles", struct {
		Heading string
		Items   []articleView
	}{heading, items})
}

func (f *ResponseFormatter) FormatArticle(a domain.Article) string {
	view := articleDetailView{
		ID:             a.ID,
		Title:          a.Title,
		Author:         a.Author,
		Description:    a.Description,
		Body:           editor.PlainText(a.Content),
		Image:          f.image(a.ImageURL),
		Tags:           strings.Join(a.Tags, ", "),
		Published:      a.Published,
		Featured:       a.Featured,
		NewsletterSent: a.NewsletterSent,
	}
	if a.PublishedAt != nil {
		view.PublishedAt = a.PublishedAt.Format(dateLayout)
	}
	return f.render("article", view)
}

func (f *ResponseFormatter) FormatMembers(heading string, members []domain.Member) string {
	if len(members) == 0 {
		return "👥 No committee members."
	}
	items := make([]memberView, 0, len(members))
	for _, m := range members {
		items = append(items, memberView{
			ID:       m.Key(),
			Name:     m.Name,
			Position: m.Position,
			Bio:      util.TruncateString(m.Bio, constants.StringLimits.Description),
			Image:    f.image(m.ImageURL),
			Active:   m.Active,
		})
	}
	return f.render("members", struct {
		Heading string
		Items   []memberView
	}{heading, items})
}

// FormatEvents lists events in date order.
func (f *ResponseFormatter) FormatEvents(heading string, events []domain.Event) string {
	if len(events) == 0 {
		return fmt.Sprintf("📅 No %s.", strings.ToLower(heading))
	}
	sorted := append([]domain.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EventDate.Before(sorted[j].EventDate)
	})

	items := make([]eventView, 0, len(sorted))
	for _, e := range sorted {
		items = append(items, eventView{
			ID:          e.Key(),
			Title:       util.TruncateString(e.Title, constants.StringLimits.ListTitle),
			When:        formatDate(e.EventDate),
			Location:    e.Location,
			Description: util.TruncateString(editor.PlainText(e.Description), constants.StringLimits.Description),
		})
	}
	return f.render("events", struct {
		Heading string
		Items   []eventView
	}{heading, items})
}

func (f *ResponseFormatter) FormatEvent(e domain.Event) string {
	return f.render("event", eventView{
		ID:          e.Key(),
		Title:       e.Title,
		When:        formatDate(e.EventDate),
		Location:    e.Location,
		Description: editor.PlainText(e.Description),
		Image:       f.image(e.ImageURL),
	})
}

func (f *ResponseFormatter) FormatSubscribers(subscribers []domain.Subscriber, active int) string {
	if len(subscribers) == 0 {
		return "✉️ No subscribers yet."
	}
	items := make([]subscriberView, 0, len(subscribers))
	for _, s := range subscribers {
		view := subscriberView{ID: s.Key(), Email: s.Email, Verified: s.Verified, Active: s.Active}
		if s.SubscribedAt != nil {
			view.Since = s.SubscribedAt.Format("2006-01-02")
		}
		items = append(items, view)
	}
	return f.render("subscribers", struct {
		Items  []subscriberView
		Active int
	}{items, active})
}

func (f *ResponseFormatter) FormatDashboard(summary DashboardSummary) string {
	return f.render("dashboard", summary)
}

func (f *ResponseFormatter) FormatHelp(commands []CommandInfo) string {
	return f.render("help", struct {
		Program  string
		Commands []CommandInfo
	}{f.program, commands})
}

// FormatSaved confirms a save and reports what happened to its image.
func (f *ResponseFormatter) FormatSaved(resource, id string, upload *imageflow.Upload) string {
	var sb strings.Builder
	if id == "" {
		sb.WriteString(fmt.Sprintf("✅ Saved %s", resource))
		id = "<id>"
	} else {
		sb.WriteString(fmt.Sprintf("✅ Saved %s %s", resource, id))
	}
	if upload == nil {
		return sb.String()
	}
	switch upload.Status {
	case imageflow.StatusFinalized:
		sb.WriteString(fmt.Sprintf("\n   image: %s", f.image(upload.FinalPath)))
	case imageflow.StatusOrphaned:
		sb.WriteString(fmt.Sprintf("\n⚠️ Image could not be finalized (%s).", upload.Err))
		sb.WriteString(fmt.Sprintf("\n   Retry with: %s %s finalize %s %s", f.program, resource, id, upload.TempPath))
	}
	return sb.String()
}

func (f *ResponseFormatter) FormatDone(message string) string {
	return "✅ " + message
}

func (f *ResponseFormatter) FormatError(message string) string {
	return "❌ " + message
}

func (f *ResponseFormatter) FormatVerification(result domain.VerificationResult) string {
	if result.OK() {
		if result.Message == "" {
			return "✅ Subscription verified."
		}
		return "✅ " + result.Message
	}
	if result.Message == "" {
		return "❌ Verification failed."
	}
	return "❌ " + result.Message
}

func (f *ResponseFormatter) image(ref string) string {
	return domain.ResolveImageURL(ref, f.baseURL, f.placeholder)
}

func (f *ResponseFormatter) render(name string, data any) string {
	out, err := executeFormatterTemplate(name, data)
	if err != nil {
		return f.FormatError("failed to render output: " + err.Error())
	}
	return out
}

func articleFlags(a domain.Article) string {
	var flags []string
	if a.Published {
		flags = append(flags, "published")
	} else {
		flags = append(flags, "draft")
	}
	if a.Featured {
		flags = append(flags, "★ featured")
	}
	if a.NewsletterSent {
		flags = append(flags, "✉ sent")
	}
	return strings.Join(flags, " · ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "date to be announced"
	}
	return t.Format(dateLayout)
}
