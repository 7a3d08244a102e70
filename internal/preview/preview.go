package preview

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/fakturlab/faktur/internal/document"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/logger"
	"github.com/fakturlab/faktur/internal/pdf"
	"github.com/fakturlab/faktur/internal/pubsub"
	"github.com/fakturlab/faktur/internal/repository"
)

// Previewer keeps a rendered PDF in sync with the invoice. It renders
// once on start and again on every change event, so the output file
// always reflects the latest committed state.
type Previewer struct {
	subscriber pubsub.Subscriber
	repo       repository.InvoiceRepository
	renderer   pdf.Renderer
	output     string
	log        *logger.Logger
}

// New creates a Previewer writing to output.
func New(
	subscriber pubsub.Subscriber,
	repo repository.InvoiceRepository,
	renderer pdf.Renderer,
	output string,
	log *logger.Logger,
) *Previewer {
	return &Previewer{
		subscriber: subscriber,
		repo:       repo,
		renderer:   renderer,
		output:     output,
		log:        log,
	}
}

// Run subscribes to the change topic and re-renders until ctx is
// cancelled or the subscription closes. A failed render is logged and
// the loop keeps going; the previous output file stays in place.
func (p *Previewer) Run(ctx context.Context) error {
	msgs, err := p.subscriber.Subscribe(ctx, document.TopicInvoiceUpdated)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not subscribe to invoice changes").
			Mark(ierr.ErrSystem)
	}

	if err := p.render(ctx); err != nil {
		p.log.Errorf("initial preview render failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			msg.Ack()

			var ev document.ChangeEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				p.log.Warnf("ignoring malformed change event: %v", err)
			} else {
				p.log.Debugf("re-rendering preview after %s", ev.Op)
			}

			if err := p.render(ctx); err != nil {
				p.log.Errorf("preview render failed: %v", err)
			}
		}
	}
}

func (p *Previewer) render(ctx context.Context) error {
	inv, err := p.repo.Load(ctx)
	if err != nil {
		return err
	}

	data, err := p.renderer.RenderInvoicePDF(inv)
	if err != nil {
		return err
	}

	// written via a temp file so a reader never sees a half-rendered PDF
	tmp := p.output + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ierr.WithError(err).
			WithHint("Could not write the preview file").
			Mark(ierr.ErrStorage)
	}
	if err := os.Rename(tmp, p.output); err != nil {
		return ierr.WithError(err).
			WithHint("Could not write the preview file").
			Mark(ierr.ErrStorage)
	}
	return nil
}

// PollStorage publishes a change event whenever the persisted invoice
// file is rewritten. The in-memory change topic only reaches the
// current process; polling the storage path bridges edits committed by
// other invocations onto it.
func PollStorage(
	ctx context.Context,
	path string,
	publisher pubsub.Publisher,
	interval time.Duration,
	log *logger.Logger,
) {
	var last time.Time
	if info, err := os.Stat(path); err == nil {
		last = info.ModTime()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().Equal(last) {
				continue
			}
			last = info.ModTime()

			payload, err := json.Marshal(document.ChangeEvent{Op: "storage_sync"})
			if err != nil {
				log.Errorf("failed to encode change event: %v", err)
				continue
			}

			msg := message.NewMessage(watermill.NewUUID(), payload)
			if err := publisher.Publish(ctx, document.TopicInvoiceUpdated, msg); err != nil {
				log.Errorf("failed to publish storage change: %v", err)
			}
		}
	}
}
