package command

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/adapter"
	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type DashboardCommand struct {
	deps *Dependencies
}

func NewDashboardCommand(deps *Dependencies) *DashboardCommand {
	return &DashboardCommand{deps: deps}
}

func (c *DashboardCommand) Name() string {
	return "dashboard"
}

func (c *DashboardCommand) Description() string {
	return "Summary of articles, members, events and subscribers"
}

func (c *DashboardCommand) Execute(ctx context.Context, inv *Invocation) error {
	if err := c.deps.requireAdmin(ctx, constants.Routes.AdminDashboard); err != nil {
		return err
	}

	var (
		problems   []string
		problemsMu sync.Mutex
	)
	report := func(section string, err error) {
		if err == nil {
			return
		}
		c.deps.Logger.Warn("Dashboard section failed", zap.String("section", section), zap.Error(err))
		problemsMu.Lock()
		problems = append(problems, section+": "+errors.HumanMessage(err, "failed to load"))
		problemsMu.Unlock()
	}

	// each section keeps whatever it loaded when another one fails
	p := pool.New().WithMaxGoroutines(4)
	p.Go(func() { report("articles", c.deps.Articles.FetchAll(ctx)) })
	p.Go(func() {
		err := c.deps.Members.FetchAll(ctx)
		if err == nil {
			err = c.deps.Members.FetchActive(ctx)
		}
		report("members", err)
	})
	p.Go(func() { report("events", c.deps.Events.RefreshAll(ctx)) })
	p.Go(func() { report("subscribers", c.deps.Newsletter.FetchAll(ctx)) })
	p.Wait()

	summary := adapter.DashboardSummary{
		Members:           len(c.deps.Members.Items()),
		ActiveMembers:     len(c.deps.Members.Active()),
		Events:            len(c.deps.Events.Items()),
		Upcoming:          len(c.deps.Events.Upcoming()),
		Subscribers:       len(c.deps.Newsletter.Items()),
		ActiveSubscribers: c.deps.Newsletter.ActiveCount(),
		Problems:          problems,
	}
	for _, a := range c.deps.Articles.Items() {
		summary.Articles++
		if a.Published {
			summary.Published++
		}
		if a.Featured {
			summary.Featured++
		}
	}

	return c.deps.println(inv, c.deps.Formatter.FormatDashboard(summary))
}
