package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/imageflow"
)

func newTestFormatter() *ResponseFormatter {
	return NewResponseFormatter("cms", "https://cms.example.org", "/default-avatar.png")
}

func TestFormatArticlesUsesPlainTextExcerpt(t *testing.T) {
	out := newTestFormatter().FormatArticles("Articles", []domain.Article{{
		ID:        "7",
		Title:     "Ticks and Lyme disease",
		Content:   "<p>Ticks are <strong>everywhere</strong>.</p>",
		Published: true,
		Featured:  true,
	}})

	for _, want := range []string{"[7] Ticks and Lyme disease", "published · ★ featured", "Ticks are everywhere."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<strong>") {
		t.Fatalf("expected markup to be stripped:\n%s", out)
	}
}

func TestFormatArticlesEmpty(t *testing.T) {
	if got := newTestFormatter().FormatArticles("Featured articles", nil); got != "📰 No featured articles." {
		t.Fatalf("unexpected empty output %q", got)
	}
}

func TestFormatEventsSortsByDate(t *testing.T) {
	later := time.Date(2031, 6, 1, 18, 0, 0, 0, time.UTC)
	earlier := time.Date(2031, 5, 1, 18, 0, 0, 0, time.UTC)
	out := newTestFormatter().FormatEvents("Events", []domain.Event{
		{ID: 2, Title: "Summer lecture", EventDate: later},
		{ID: 1, Title: "Open day", EventDate: earlier, Location: "Main hall"},
	})

	first := strings.Index(out, "Open day")
	second := strings.Index(out, "Summer lecture")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected date order:\n%s", out)
	}
	if !strings.Contains(out, "2031-05-01 18:00 @ Main hall") {
		t.Fatalf("expected formatted date and location:\n%s", out)
	}
}

func TestFormatMembersResolvesImages(t *testing.T) {
	out := newTestFormatter().FormatMembers("Committee", []domain.Member{
		{ID: 1, Name: "Ada", Position: "Chair", ImageURL: "/uploads/members/1.png", Active: true},
		{ID: 2, Name: "Ben", Position: "Treasurer", Active: false},
	})

	for _, want := range []string{
		"https://cms.example.org/uploads/members/1.png",
		"/default-avatar.png",
		"Ben (Treasurer)  inactive",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSavedReportsImageOutcome(t *testing.T) {
	f := newTestFormatter()

	if got := f.FormatSaved("events", "3", nil); got != "✅ Saved events 3" {
		t.Fatalf("unexpected plain save %q", got)
	}

	finalized := f.FormatSaved("events", "3", &imageflow.Upload{
		Status:    imageflow.StatusFinalized,
		FinalPath: "/uploads/events/3.png",
	})
	if !strings.Contains(finalized, "https://cms.example.org/uploads/events/3.png") {
		t.Fatalf("expected final image url:\n%s", finalized)
	}

	orphan := f.FormatSaved("articles", "42", &imageflow.Upload{
		Status:   imageflow.StatusOrphaned,
		TempPath: "/uploads/articles/temp-9.png",
		Err:      "finalize failed",
	})
	if !strings.Contains(orphan, "cms articles finalize 42 /uploads/articles/temp-9.png") {
		t.Fatalf("expected retry hint:\n%s", orphan)
	}

	noID := f.FormatSaved("articles", "", &imageflow.Upload{
		Status:   imageflow.StatusOrphaned,
		TempPath: "/uploads/articles/temp-9.png",
		Err:      "no id",
	})
	if !strings.HasPrefix(noID, "✅ Saved articles\n") || !strings.Contains(noID, "cms articles finalize <id> /uploads/articles/temp-9.png") {
		t.Fatalf("expected placeholder id in retry hint:\n%s", noID)
	}
}

func TestFormatDashboardListsProblems(t *testing.T) {
	out := newTestFormatter().FormatDashboard(DashboardSummary{
		Articles:  3,
		Published: 2,
		Events:    4,
		Upcoming:  1,
		Problems:  []string{"subscribers: upstream down"},
	})

	for _, want := range []string{"articles:    3 (2 published, 0 featured)", "events:      4 (1 upcoming)", "⚠️ subscribers: upstream down"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHelpListsCommands(t *testing.T) {
	out := newTestFormatter().FormatHelp([]CommandInfo{
		{Name: "articles", Description: "List, write and publish articles"},
		{Name: "login", Description: "Log in as an administrator"},
	})
	if !strings.Contains(out, "Usage: cms <command>") || !strings.Contains(out, "login        Log in as an administrator") {
		t.Fatalf("unexpected help:\n%s", out)
	}
}

func TestFormatVerification(t *testing.T) {
	f := newTestFormatter()
	if got := f.FormatVerification(domain.VerificationResult{Status: "success"}); got != "✅ Subscription verified." {
		t.Fatalf("unexpected success output %q", got)
	}
	if got := f.FormatVerification(domain.VerificationResult{Status: "error", Message: "Token expired"}); got != "❌ Token expired" {
		t.Fatalf("unexpected failure output %q", got)
	}
}
