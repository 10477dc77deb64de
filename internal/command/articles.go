package command

import (
	"context"
	"flag"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/util"
)

func NewArticlesCommand(deps *Dependencies) Command {
	c := &articlesCommand{deps: deps}
	return &resourceCommand{
		deps:        deps,
		name:        "articles",
		description: "List, write and publish articles",
		route:       constants.Routes.AdminArticles,
		defaultVerb: "list",
		verbs: map[string]subcommand{
			"list":      {usage: "list", admin: true, run: c.list},
			"published": {usage: "published", run: c.published},
			"featured":  {usage: "featured", run: c.featured},
			"show":      {usage: "show <id>", run: c.show},
			"create":    {usage: "create --title T --content-file F [--image P] [--publish]", admin: true, run: c.create},
			"update":    {usage: "update <id> [--title T] [--image P] [--published=false] ...", admin: true, run: c.update},
			"delete":    {usage: "delete <id>", admin: true, run: c.remove},
			"publish":   {usage: "publish <id>   (toggle)", admin: true, run: c.togglePublish},
			"feature":   {usage: "feature <id>   (toggle)", admin: true, run: c.toggleFeature},
			"finalize":  {usage: "finalize <id> <tempPath>", admin: true, run: c.finalize},
		},
	}
}

type articlesCommand struct {
	deps *Dependencies
}

type articleInput struct {
	title, author, description, content, contentFile, tags, image string
	published, featured                                          bool
}

func (in *articleInput) bind(fs *flag.FlagSet) {
	fs.StringVar(&in.title, "title", "", "article title")
	fs.StringVar(&in.author, "author", "", "author name")
	fs.StringVar(&in.description, "description", "", "short summary")
	fs.StringVar(&in.content, "content", "", "content as HTML")
	fs.StringVar(&in.contentFile, "content-file", "", "read content from a file (.md is rendered to HTML)")
	fs.StringVar(&in.tags, "tags", "", "comma-separated tags")
	fs.StringVar(&in.image, "image", "", "cover image file")
	fs.BoolVar(&in.published, "publish", false, "publish after saving")
	fs.BoolVar(&in.published, "published", false, "desired published state")
	fs.BoolVar(&in.featured, "featured", false, "feature on the home page")
}

// apply copies the given flags onto a. Unset flags leave a untouched.
func (in *articleInput) apply(a domain.Article, set map[string]bool) (domain.Article, error) {
	if set["title"] {
		a.Title = in.title
	}
	if set["author"] {
		a.Author = in.author
	}
	if set["description"] {
		a.Description = in.description
	}
	if set["content"] {
		a.Content = in.content
	}
	if set["content-file"] {
		content, err := readContent(in.contentFile)
		if err != nil {
			return a, err
		}
		a.Content = content
	}
	if set["tags"] {
		a.Tags = domain.NormalizeTags(util.ParseCommaSeparated(in.tags))
	}
	if set["featured"] {
		a.Featured = in.featured
	}
	return a, nil
}

func (c *articlesCommand) list(ctx context.Context, inv *Invocation, args []string) error {
	if err := c.deps.Articles.FetchAll(ctx); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatArticles("Articles", c.deps.Articles.Items()))
}

func (c *articlesCommand) published(ctx context.Context, inv *Invocation, args []string) error {
	articles, err := c.deps.ArticleService.ListPublished(ctx)
	if err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatArticles("Published articles", articles))
}

func (c *articlesCommand) featured(ctx context.Context, inv *Invocation, args []string) error {
	articles, err := c.deps.ArticleService.ListFeatured(ctx)
	if err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatArticles("Featured articles", articles))
}

func (c *articlesCommand) show(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "articles show <id>"); err != nil {
		return err
	}
	article, err := c.deps.Articles.LoadByID(ctx, args[0])
	if err != nil {
		return err
	}
	defer c.deps.Articles.ClearCurrent()
	return c.deps.println(inv, c.deps.Formatter.FormatArticle(article))
}

func (c *articlesCommand) create(ctx context.Context, inv *Invocation, args []string) error {
	var in articleInput
	fs := newFlagSet("articles create", inv)
	in.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := visited(fs)

	draft, err := in.apply(domain.Article{}, set)
	if err != nil {
		return err
	}
	return c.save(ctx, inv, draft, in, set)
}

func (c *articlesCommand) update(ctx context.Context, inv *Invocation, args []string) error {
	positional, flagArgs := splitArgs(args)
	if err := requireArgs(positional, 1, "articles update <id> [flags]"); err != nil {
		return err
	}

	var in articleInput
	fs := newFlagSet("articles update", inv)
	in.bind(fs)
	if err := fs.Parse(flagArgs); err != nil {
		return err
	}
	set := visited(fs)

	existing, err := c.deps.Articles.LoadByID(ctx, positional[0])
	if err != nil {
		return err
	}
	defer c.deps.Articles.ClearCurrent()

	draft, err := in.apply(existing, set)
	if err != nil {
		return err
	}
	return c.save(ctx, inv, draft, in, set)
}

// save runs the form flow. Publishing goes through the store afterwards so
// that it also sends the newsletter.
func (c *articlesCommand) save(ctx context.Context, inv *Invocation, draft domain.Article, in articleInput, set map[string]bool) error {
	ed := c.deps.ArticleEditor
	ed.Load(draft)

	if set["image"] {
		file, err := readImage(in.image)
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
	if err := c.deps.println(inv, c.deps.Formatter.FormatSaved("articles", saved.ID, lastUpload(ed))); err != nil {
		return err
	}

	wantPublished := set["publish"] || set["published"]
	if wantPublished && in.published != saved.Published {
		published := in.published
		if err := c.deps.Articles.Patch(ctx, saved.ID, domain.ArticlePatch{Published: &published}); err != nil {
			return err
		}
		state := "Unpublished"
		if published {
			state = "Published"
		}
		return c.deps.println(inv, c.deps.Formatter.FormatDone(state+" article "+saved.ID))
	}
	return nil
}

func (c *articlesCommand) remove(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "articles delete <id>"); err != nil {
		return err
	}
	if err := c.deps.Articles.Delete(ctx, args[0]); err != nil {
		return err
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone("Deleted article "+args[0]))
}

func (c *articlesCommand) togglePublish(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "articles publish <id>"); err != nil {
		return err
	}
	id := args[0]
	if err := c.deps.Articles.FetchAll(ctx); err != nil {
		return err
	}
	if err := c.deps.Articles.TogglePublish(ctx, id); err != nil {
		return err
	}
	article, _ := c.deps.Articles.Find(id)
	state := "Unpublished"
	if article.Published {
		state = "Published"
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone(state+" article "+id))
}

func (c *articlesCommand) toggleFeature(ctx context.Context, inv *Invocation, args []string) error {
	if err := requireArgs(args, 1, "articles feature <id>"); err != nil {
		return err
	}
	id := args[0]
	if err := c.deps.Articles.FetchAll(ctx); err != nil {
		return err
	}
	if err := c.deps.Articles.ToggleFeature(ctx, id); err != nil {
		return err
	}
	article, _ := c.deps.Articles.Find(id)
	state := "Unfeatured"
	if article.Featured {
		state = "Featured"
	}
	return c.deps.println(inv, c.deps.Formatter.FormatDone(state+" article "+id))
}

func (c *articlesCommand) finalize(ctx context.Context, inv *Invocation, args []string) error {
	return c.deps.finalizeOrphan(ctx, inv, c.deps.ArticleImages, "articles", args, c.deps.Articles.Refresh)
}
