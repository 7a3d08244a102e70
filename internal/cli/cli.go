package cli

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/fakturlab/faktur/internal/config"
	"github.com/fakturlab/faktur/internal/document"
	"github.com/fakturlab/faktur/internal/domain/invoice"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/pdf"
	"github.com/fakturlab/faktur/internal/pubsub"
	"github.com/fakturlab/faktur/internal/pubsub/memory"
	"github.com/fakturlab/faktur/internal/repository"
	"github.com/fakturlab/faktur/internal/service"
)

// NewApp builds the faktur command line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "faktur",
		Usage: "local invoice builder with live PDF output",
		Commands: []*cli.Command{
			showCommand(),
			setCommand(),
			itemCommand(),
			logoCommand(),
			renderCommand(),
			watchCommand(),
			resetCommand(),
		},
	}
}

// runtime wires the application objects for one command invocation.
type runtime struct {
	cfg      *config.Configuration
	log      *logger.Logger
	repo     repository.InvoiceRepository
	bus      pubsub.PubSub
	model    *document.Model
	session  *service.Session
	renderer pdf.Renderer
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	defaults := invoice.Defaults{
		Currency:      cfg.Invoice.Currency,
		SenderName:    cfg.Invoice.SenderName,
		SenderAddress: cfg.Invoice.SenderAddress,
	}

	repo := repository.NewFileRepository(cfg.StoragePath(), defaults, log)
	bus := memory.NewPubSub(log)

	model, err := document.NewModel(ctx, repo, bus, log)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		bus:      bus,
		model:    model,
		session:  service.NewSession(model, log),
		renderer: pdf.NewRenderer(log),
	}, nil
}

func (r *runtime) defaults() invoice.Defaults {
	return invoice.Defaults{
		Currency:      r.cfg.Invoice.Currency,
		SenderName:    r.cfg.Invoice.SenderName,
		SenderAddress: r.cfg.Invoice.SenderAddress,
	}
}

func (r *runtime) close() {
	if err := r.bus.Close(); err != nil {
		r.log.Debugf("closing change bus: %v", err)
	}
}
