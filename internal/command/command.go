package command

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/adapter"
	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/editor"
	"github.com/kapu/society-cms-go/internal/guard"
	"github.com/kapu/society-cms-go/internal/imageflow"
	"github.com/kapu/society-cms-go/internal/navigation"
	"github.com/kapu/society-cms-go/internal/service"
	"github.com/kapu/society-cms-go/internal/session"
	"github.com/kapu/society-cms-go/internal/store"
)

// Invocation is one run of a command: its remaining arguments and where to
// read and write.
type Invocation struct {
	Args []string
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, inv *Invocation) error
}

type Dependencies struct {
	Session *session.Session
	Guard   *guard.Guard
	Router  *navigation.Router

	Articles   *store.ArticleStore
	Members    *store.MemberStore
	Events     *store.EventStore
	Newsletter *store.NewsletterStore

	ArticleService    *service.ArticleService
	NewsletterService *service.NewsletterService

	ArticleEditor *editor.Editor[domain.Article]
	MemberEditor  *editor.Editor[domain.Member]
	EventEditor   *editor.Editor[domain.Event]

	ArticleImages *imageflow.Uploader
	MemberImages  *imageflow.Uploader
	EventImages   *imageflow.Uploader

	Formatter *adapter.ResponseFormatter
	Logger    *zap.Logger
}
