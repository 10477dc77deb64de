package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/editor"
	"github.com/kapu/society-cms-go/internal/guard"
	"github.com/kapu/society-cms-go/internal/imageflow"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// subcommand is one verb of a resource command.
type subcommand struct {
	usage string
	admin bool
	run   func(ctx context.Context, inv *Invocation, args []string) error
}

// resourceCommand dispatches "<resource> <verb> ..." to its subcommands.
type resourceCommand struct {
	deps        *Dependencies
	name        string
	description string
	route       string
	verbs       map[string]subcommand
	defaultVerb string
}

func (c *resourceCommand) Name() string {
	return c.name
}

func (c *resourceCommand) Description() string {
	return c.description
}

func (c *resourceCommand) Execute(ctx context.Context, inv *Invocation) error {
	verb := c.defaultVerb
	args := inv.Args
	if len(args) > 0 {
		verb = strings.ToLower(args[0])
		args = args[1:]
	}
	if verb == "help" || verb == "" {
		return c.printUsage(inv.Out)
	}

	sub, ok := c.verbs[verb]
	if !ok {
		_ = c.printUsage(inv.Err)
		return fmt.Errorf("%w: %s %s", ErrUnknownCommand, c.name, verb)
	}
	if sub.admin {
		if err := c.deps.requireAdmin(ctx, c.route); err != nil {
			return err
		}
	}
	return sub.run(ctx, inv, args)
}

func (c *resourceCommand) printUsage(w io.Writer) error {
	verbs := make([]string, 0, len(c.verbs))
	for verb := range c.verbs {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s\n\n", c.name, c.description))
	for _, verb := range verbs {
		sub := c.verbs[verb]
		marker := ""
		if sub.admin {
			marker = " (admin)"
		}
		sb.WriteString(fmt.Sprintf("  %s %s%s\n", c.name, sub.usage, marker))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// requireAdmin runs the session guard for route the way a page mount would.
func (d *Dependencies) requireAdmin(ctx context.Context, route string) error {
	d.Router.Navigate(route)
	d.Guard.Check(ctx)

	decision := d.Guard.Enter(route)
	if decision.Outcome != guard.Render {
		return errors.NewAuthError(`not logged in, run "login" first`, map[string]any{
			"route": route,
		})
	}
	return nil
}

func (d *Dependencies) println(inv *Invocation, text string) error {
	_, err := fmt.Fprintln(inv.Out, text)
	return err
}

func newFlagSet(name string, inv *Invocation) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(inv.Err)
	return fs
}

// visited reports the flags that were given explicitly.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// splitArgs separates leading positional arguments from flags so that
// "update 7 --title x" parses like "update --title x 7".
func splitArgs(args []string) (positional, flags []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return positional, args[i:]
		}
		positional = append(positional, arg)
	}
	return positional, nil
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return errors.NewValidationError("usage: "+usage, "args", strings.Join(args, " "))
	}
	return nil
}

func readImage(path string) (domain.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageFile{}, errors.NewValidationError("cannot read image file: "+err.Error(), "image", path)
	}
	return domain.ImageFile{Name: filepath.Base(path), Data: data}, nil
}

// readContent loads a content file. Markdown files are rendered to HTML.
func readContent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewValidationError("cannot read content file: "+err.Error(), "content-file", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return editor.MarkdownToHTML(string(data))
	}
	return string(data), nil
}

var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate reads a date given on the command line in local time.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateInputLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewValidationError(`date must look like "2025-05-01 18:00"`, "date", value)
}

// finalizeOrphan retries a temp image that a previous run left behind.
func (d *Dependencies) finalizeOrphan(ctx context.Context, inv *Invocation, uploader *imageflow.Uploader, resource string, args []string, refresh func(context.Context) error) error {
	if err := requireArgs(args, 2, resource+" finalize <id> <tempPath>"); err != nil {
		return err
	}
	tracked, err := uploader.Track(args[0], args[1])
	if err != nil {
		return err
	}
	up, err := uploader.Retry(ctx, tracked.ID)
	if err != nil {
		return err
	}
	if err := refresh(ctx); err != nil {
		d.Logger.Warn("Refresh after manual finalize failed", zap.Error(err))
	}
	return d.println(inv, d.Formatter.FormatSaved(resource, args[0], &up))
}

type uploadReporter interface {
	LastUpload() (imageflow.Upload, bool)
}

func lastUpload(ed uploadReporter) *imageflow.Upload {
	up, ok := ed.LastUpload()
	if !ok {
		return nil
	}
	return &up
}
