package command

import (
	"context"
	"flag"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
)

func NewEventsCommand(deps *Dependencies) Command {
	c := &eventsCommand{deps: deps}
	return &resourceCommand{
		deps:        deps,
		name:        "events",
		description: "List and manage events",
		route:       constants.Routes.AdminEvents,
		defaultVerb: "upcoming",
		verbs: map[string]subcommand{
			"list":     {usage: "list", run: c.list},
			"upcoming": {usage: "upcoming", run: c.upcoming},
			"past":     {usage: "past", run: c.past},
			"show":     {usage: "show <id>", run: c.show},
			"create":   {usage: `create --title T --description D --date "2025-05-01 18:00" [--location L] [--image F]`, admin: true, run: c.create},
			"update":   {usage: "update <id> [--title T] [--date D] ...", admin: true, run: c.update},
			"delete":   {usage: "delete <id>", admin: true, run: c.remove},
			"finalize": {usage: "finalize <id> <tempPath>", admin: true, run: c.finalize},
		},
	}
}

type eventsCommand struct {
	deps *Dependencies
}

type eventInput struct {
	title, description, date, location, image string
}

func (in *eventInput) bind(fs *flag.FlagSet) {
	fs.StringVar(&in.title, "title", "", "event title")
	fs.StringVar(&in.description, "description", "", "event description")
	fs.StringVar(&in.date, "date", "", "start date and time, local")
	fs.StringVar(&in.location, "location", "", "venue")
	fs.StringVar(&in.image, "image", "", "poster image file")
}

func (in *eventInput) apply(e domain.Event, set map[string]bool) (domain.Event, error) {
	if set["title"] {
		e.Title = in.title
	}
	if set["description"] {
		e.Description = in.description
	}
	if set["location"] {
		e.Location = in.location
	}
	if set["date"] {
		date, err := parseDate(in.date)
		if err != nil {
			return e, err
		}
		e.EventDate = date
	}
	return e, nil
}

func (c *eventsCommand) list(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Events.FetchAll(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatEvents("Events", c.deps.Events.Items()))
}

func (c *eventsCommand) upcoming(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Events.FetchUpcoming(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatEvents("Upcoming events", c.deps.Events.Upcoming()))
}

func (c *eventsCommand) past(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Events.FetchPast(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatEvents("Past events", c.deps.Events.Past()))
}

func (c *eventsCommand) show(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "events show <id>"); err != nil {
		return err
	}
	event, err := c.deps.Events.FetchByID(ctx, args[0])
	if err != nil {
		return err
	}
	defer c.deps.Events.ClearSelected()
	return c.deps.println(inv, c.deps.Formatter.FormatEvent(event))
}

func (c *eventsCommand) create(ctx context.Context, inv *Invocation, args []string) error {
	var in eventInput
	fs := newFlagSet("events create", inv)
	in.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	draft, err := in.apply(domain.Event{}, visited(fs))
	if err != nil {
		return err
	}
	return c.save(ctx, inv, draft, in.image)
}

func (c *eventsCommand) update(ctx context.Context, inv *Invocation, args []string) error {
	positional, flagArgs := splitArgs(args)
	if err := requireArgs(positional, 1, "events update <id> [flags]"); err != nil {
		return err
	}

	var in eventInput
	fs := newFlagSet("events update", inv)
	in.bind(fs)
	if err := fs.Parse(flagArgs); err != nil {
		return err
	}

	existing, err := c.deps.Events.FetchByID(ctx, positional[0])
	if err != nil {
		return err
	}
	defer c.deps.Events.ClearSelected()

	draft, err := in.apply(existing, visited(fs))
	if err != nil {
		return err
	}
	return c.save(ctx, inv, draft, in.image)
}

func (c *eventsCommand) save(ctx context.Context, inv *Invocation, draft domain.Event, imagePath string) error {
	ed := c.deps.EventEditor
	ed.Load(draft)
	if imagePath != "" {
		file, err := readImage(imagePath)
		if err != nil {
			return err
		}
		if err := ed.SelectImage(ctx, file); err != nil {
			ed.Cancel()
			return err
		}
	}

	saved, err := ed.Submit(ctx)
	if err != nil {
		ed.Cancel()
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatSaved("events", saved.Key(), lastUpload(ed)))
}

func (c *eventsCommand) remove(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "events delete <id>"); err != nil {
		return err
	}
	if err := c.deps.Events.Delete(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Deleted event "+args[0]))
}

func (c *eventsCommand) finalize(ctx context.Context, inv *Invocation, args []string) error {
	return c.deps.finalizeOrphan(ctx, inv, c.deps.EventImages, "events", args, c.deps.Events.Refresh)
}
