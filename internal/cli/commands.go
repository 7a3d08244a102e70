package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
	"github.com/fakturlab/faktur/internal/preview"
	"github.com/fakturlab/faktur/internal/types"
)

const dateLayout = "2006-01-02"

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print the current invoice and its totals",
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c.Context)
			if err != nil {
				return err
			}
			defer rt.close()

			inv := rt.session.Invoice()
			totals := rt.session.Totals()

			fmt.Printf("Invoice  %s  [%s]\n", inv.InvoiceNumber, inv.Status)
			fmt.Printf("Date     %s    Due %s\n", inv.Date.Format(dateLayout), inv.DueDate.Format(dateLayout))
			fmt.Printf("From     %s\n", inv.SenderDetails.Name)
			fmt.Printf("To       %s", inv.ClientDetails.Name)
			if inv.ClientDetails.Email != "" {
				fmt.Printf(" <%s>", inv.ClientDetails.Email)
			}
			fmt.Println()

			fmt.Println("\nItems:")
			for i, item := range inv.Items {
				fmt.Printf("  %d. %-40s %8s x %12s = %12s\n",
					i+1, item.Description, item.Quantity.String(),
					item.UnitPrice.StringFixed(0), item.Subtotal().StringFixed(0))
			}

			fmt.Printf("\nSubtotal   %s %s\n", inv.Currency, totals.Subtotal.StringFixed(0))
			fmt.Printf("Tax (%s%%)  %s %s\n", inv.TaxRate.String(), inv.Currency, totals.TaxAmount.StringFixed(0))
			fmt.Printf("Discount   %s %s\n", inv.Currency, inv.Discount.StringFixed(0))
			fmt.Printf("Total      %s %s\n", inv.Currency, totals.GrandTotal.StringFixed(0))

			printFieldErrors(rt)
			return nil
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "update invoice fields; only the given flags change",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "number", Usage: "invoice number"},
			&cli.StringFlag{Name: "date", Usage: "issue date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "due-date", Usage: "due date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "status", Usage: "UNPAID or PAID"},
			&cli.StringFlag{Name: "sender-name"},
			&cli.StringFlag{Name: "sender-address"},
			&cli.StringFlag{Name: "client-name"},
			&cli.StringFlag{Name: "client-address"},
			&cli.StringFlag{Name: "client-email"},
			&cli.StringFlag{Name: "tax-rate", Usage: "tax rate percentage, 0-100"},
			&cli.StringFlag{Name: "discount", Usage: "absolute discount amount"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c.Context)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx := c.Context
			if c.IsSet("number") {
				if err := rt.session.SetInvoiceNumber(ctx, c.String("number")); err != nil {
					return err
				}
			}
			if c.IsSet("date") {
				date, err := time.Parse(dateLayout, c.String("date"))
				if err != nil {
					return ierr.WithError(err).
						WithHint("Dates use the YYYY-MM-DD format").
						Mark(ierr.ErrValidation)
				}
				if err := rt.session.SetDate(ctx, date); err != nil {
					return err
				}
			}
			if c.IsSet("due-date") {
				dueDate, err := time.Parse(dateLayout, c.String("due-date"))
				if err != nil {
					return ierr.WithError(err).
						WithHint("Dates use the YYYY-MM-DD format").
						Mark(ierr.ErrValidation)
				}
				if err := rt.session.SetDueDate(ctx, dueDate); err != nil {
					return err
				}
			}
			if c.IsSet("status") {
				status := types.InvoiceStatus(strings.ToUpper(c.String("status")))
				if err := rt.session.SetStatus(ctx, status); err != nil {
					return err
				}
			}
			if c.IsSet("sender-name") {
				if err := rt.session.SetSenderName(ctx, c.String("sender-name")); err != nil {
					return err
				}
			}
			if c.IsSet("sender-address") {
				if err := rt.session.SetSenderAddress(ctx, c.String("sender-address")); err != nil {
					return err
				}
			}
			if c.IsSet("client-name") {
				if err := rt.session.SetClientName(ctx, c.String("client-name")); err != nil {
					return err
				}
			}
			if c.IsSet("client-address") {
				if err := rt.session.SetClientAddress(ctx, c.String("client-address")); err != nil {
					return err
				}
			}
			if c.IsSet("client-email") {
				if err := rt.session.SetClientEmail(ctx, c.String("client-email")); err != nil {
					return err
				}
			}
			if c.IsSet("tax-rate") {
				if err := rt.session.SetTaxRate(ctx, c.String("tax-rate")); err != nil {
					return err
				}
			}
			if c.IsSet("discount") {
				if err := rt.session.SetDiscount(ctx, c.String("discount")); err != nil {
					return err
				}
			}

			printFieldErrors(rt)
			return nil
		},
	}
}

func itemCommand() *cli.Command {
	return &cli.Command{
		Name:  "item",
		Usage: "manage line items",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print the line items with their subtotals",
				Action: func(c *cli.Context) error {
					rt, err := newRuntime(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()

					inv := rt.session.Invoice()
					for i, item := range inv.Items {
						fmt.Printf("%d. %-40s %8s x %12s = %12s\n",
							i+1, item.Description, item.Quantity.String(),
							item.UnitPrice.StringFixed(0), item.Subtotal().StringFixed(0))
					}
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "append an empty line item",
				Action: func(c *cli.Context) error {
					rt, err := newRuntime(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()
					return rt.session.AddItem(c.Context)
				},
			},
			{
				Name:  "update",
				Usage: "edit the line item at --index (1-based)",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "index", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "qty"},
					&cli.StringFlag{Name: "price"},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()

					var description, qty, price *string
					if c.IsSet("description") {
						v := c.String("description")
						description = &v
					}
					if c.IsSet("qty") {
						v := c.String("qty")
						qty = &v
					}
					if c.IsSet("price") {
						v := c.String("price")
						price = &v
					}

					if err := rt.session.UpdateItem(c.Context, c.Int("index")-1, description, qty, price); err != nil {
						return err
					}
					printFieldErrors(rt)
					return nil
				},
			},
			{
				Name:  "remove",
				Usage: "remove the line item at --index (1-based); the last item cannot be removed",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "index", Required: true},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()
					return rt.session.RemoveItem(c.Context, c.Int("index")-1)
				},
			},
		},
	}
}

func logoCommand() *cli.Command {
	return &cli.Command{
		Name:  "logo",
		Usage: "manage the sender logo",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "embed a PNG or JPEG logo, at most 2MB",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: faktur logo set <file>", 2)
					}

					rt, err := newRuntime(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()

					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return ierr.WithError(err).
							WithHint("Could not read the logo file").
							Mark(ierr.ErrNotFound)
					}

					if err := rt.session.SetLogo(c.Context, data); err != nil {
						if hint := ierr.Hint(err); hint != "" {
							fmt.Fprintln(os.Stderr, hint)
						}
						return err
					}
					return nil
				},
			},
			{
				Name:  "remove",
				Usage: "clear the sender logo",
				Action: func(c *cli.Context) error {
					rt, err := newRuntime(c.Context)
					if err != nil {
						return err
					}
					defer rt.close()
					return rt.session.RemoveLogo(c.Context)
				},
			},
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "write the invoice PDF",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file, defaults to the configured path"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c.Context)
			if err != nil {
				return err
			}
			defer rt.close()

			out := rt.cfg.PDF.Output
			if c.IsSet("output") {
				out = c.String("output")
			}

			data, err := rt.renderer.RenderInvoicePDF(rt.model.Snapshot())
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				return ierr.WithError(err).
					WithHint("Could not write the PDF file").
					Mark(ierr.ErrStorage)
			}

			fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "keep the invoice PDF re-rendered on every change until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file, defaults to the configured path"},
			&cli.DurationFlag{Name: "interval", Value: time.Second, Usage: "storage poll interval"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c.Context)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := rt.cfg.PDF.Output
			if c.IsSet("output") {
				out = c.String("output")
			}

			// edits land in other faktur invocations; the poller lifts
			// them onto the in-process change topic
			go preview.PollStorage(ctx, rt.cfg.StoragePath(), rt.bus, c.Duration("interval"), rt.log)

			fmt.Printf("watching %s, rendering to %s\n", rt.cfg.StoragePath(), out)
			return preview.New(rt.bus, rt.repo, rt.renderer, out, rt.log).Run(ctx)
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "discard all edits and persisted state, restoring the default invoice",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "skip the confirmation prompt"},
			&cli.BoolFlag{Name: "fresh-number", Usage: "stamp a generated invoice number instead of the default"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") && !confirm("This discards the current invoice and its saved state. Continue? [y/N] ") {
				fmt.Println("aborted")
				return nil
			}

			rt, err := newRuntime(c.Context)
			if err != nil {
				return err
			}
			defer rt.close()

			fresh := invoice.Default(time.Now(), rt.defaults())
			if c.Bool("fresh-number") {
				fresh.InvoiceNumber = types.GenerateShortIDWithPrefix("INV-")
			}

			return rt.model.Reset(c.Context, fresh)
		},
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printFieldErrors(rt *runtime) {
	errs := rt.session.FieldErrors()
	if len(errs) == 0 {
		return
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	fmt.Println("\nValidation notes:")
	for _, field := range fields {
		fmt.Printf("  %-28s %s\n", field, errs[field])
	}
}
