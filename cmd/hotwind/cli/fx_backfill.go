package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// RateInventory exposes the stored rate series for gap scanning.
type RateInventory interface {
	AvailableCurrencies(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, from, to string, date time.Time) (bool, error)
}

// RateGenerator fills a date range with synthetic rates.
type RateGenerator interface {
	Generate(ctx context.Context, start, end time.Time) (int, error)
}

// RateQueue hands a generation window to the background worker.
type RateQueue interface {
	EnqueueGenerateRates(ctx context.Context, start, end string) error
}

// FXBackfillCLI inspects gaps in the daily rate series and optionally fills
// them, either inline through the generator or via the job queue.
type FXBackfillCLI struct {
	store     RateInventory
	generator RateGenerator
	queue     RateQueue
	local     string
}

// NewFXBackfillCLI constructs the helper.
func NewFXBackfillCLI(store RateInventory, generator RateGenerator, local string) *FXBackfillCLI {
	return &FXBackfillCLI{store: store, generator: generator, local: local}
}

// WithQueue enables the --async apply path.
func (c *FXBackfillCLI) WithQueue(queue RateQueue) *FXBackfillCLI {
	c.queue = queue
	return c
}

// FXBackfillMode enumerates supported execution strategies.
type FXBackfillMode string

const (
	// FXBackfillModeDry previews gaps without applying changes.
	FXBackfillModeDry FXBackfillMode = "dry"
	// FXBackfillModeApply generates missing rates after confirmation.
	FXBackfillModeApply FXBackfillMode = "apply"
)

// FXBackfillOptions configures the backfill command execution.
type FXBackfillOptions struct {
	From       string
	To         string
	Mode       FXBackfillMode
	Async      bool
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
	Stdin      io.Reader
	Confirm    func(io.Reader, io.Writer) (bool, error)
}

// FXBackfillSummary captures the structured reporting outcome.
type FXBackfillSummary struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Mode     FXBackfillMode  `json:"mode"`
	Missing  []FXBackfillGap `json:"missing"`
	Inserted int             `json:"inserted,omitempty"`
	Enqueued bool            `json:"enqueued,omitempty"`
}

// FXBackfillGap lists the missing dates for one currency pair.
type FXBackfillGap struct {
	Currency string   `json:"currency"`
	Dates    []string `json:"dates"`
}

// BackfillCommand executes the fx backfill workflow. Exit codes: 0 means no
// gaps (or gaps filled), 1 means a usage or execution error, 10 means a dry
// run found gaps.
func (c *FXBackfillCLI) BackfillCommand(ctx context.Context, opts FXBackfillOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Mode == "" {
		opts.Mode = FXBackfillModeDry
	}
	mode := FXBackfillMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case FXBackfillModeDry, FXBackfillModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "fx backfill: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}
	if opts.Async && c.queue == nil {
		fmt.Fprintln(opts.Stderr, "fx backfill: no job queue configured for --async")
		return 1
	}
	from, err := time.Parse(dateLayout, strings.TrimSpace(opts.From))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx backfill: invalid --from %q (expected YYYY-MM-DD)\n", opts.From)
		return 1
	}
	to, err := time.Parse(dateLayout, strings.TrimSpace(opts.To))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx backfill: invalid --to %q (expected YYYY-MM-DD)\n", opts.To)
		return 1
	}
	if from.After(to) {
		fmt.Fprintln(opts.Stderr, "fx backfill: --from must be earlier than --to")
		return 1
	}

	gaps, err := c.scanGaps(ctx, from, to)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx backfill: scan: %v\n", err)
		return 1
	}

	summary := FXBackfillSummary{
		From:    from.Format(dateLayout),
		To:      to.Format(dateLayout),
		Mode:    mode,
		Missing: gaps,
	}

	if mode == FXBackfillModeDry || len(gaps) == 0 {
		if err := writeBackfillOutput(opts, summary); err != nil {
			fmt.Fprintf(opts.Stderr, "fx backfill: %v\n", err)
			return 1
		}
		if mode == FXBackfillModeDry && len(gaps) > 0 {
			return 10
		}
		return 0
	}

	confirm := opts.Confirm
	if confirm == nil {
		confirm = defaultBackfillConfirm
	}
	ok, err := confirm(opts.Stdin, opts.Stdout)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx backfill: confirmation failed: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(opts.Stderr, "fx backfill: cancelled by user")
		return 1
	}

	if opts.Async {
		if err := c.queue.EnqueueGenerateRates(ctx, summary.From, summary.To); err != nil {
			fmt.Fprintf(opts.Stderr, "fx backfill: enqueue failed: %v\n", err)
			return 1
		}
		summary.Enqueued = true
	} else {
		inserted, err := c.generator.Generate(ctx, from, to)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "fx backfill: apply failed: %v\n", err)
			return 1
		}
		summary.Inserted = inserted
	}
	if err := writeBackfillOutput(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "fx backfill: %v\n", err)
		return 1
	}
	return 0
}

func (c *FXBackfillCLI) scanGaps(ctx context.Context, from, to time.Time) ([]FXBackfillGap, error) {
	currencies, err := c.store.AvailableCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(currencies)

	gaps := make([]FXBackfillGap, 0)
	for _, cur := range currencies {
		var missing []string
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			exists, err := c.store.Exists(ctx, cur, c.local, day)
			if err != nil {
				return nil, err
			}
			if !exists {
				missing = append(missing, day.Format(dateLayout))
			}
		}
		if len(missing) > 0 {
			gaps = append(gaps, FXBackfillGap{Currency: cur, Dates: missing})
		}
	}
	return gaps, nil
}

func writeBackfillOutput(opts FXBackfillOptions, summary FXBackfillSummary) error {
	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	if len(summary.Missing) == 0 {
		fmt.Fprintf(opts.Stdout, "fx backfill: no gaps between %s and %s\n", summary.From, summary.To)
	}
	for _, gap := range summary.Missing {
		fmt.Fprintf(opts.Stdout, "%s: %d missing day(s): %s\n",
			gap.Currency, len(gap.Dates), strings.Join(gap.Dates, ", "))
	}
	if summary.Mode == FXBackfillModeApply {
		if summary.Enqueued {
			fmt.Fprintf(opts.Stdout, "enqueued generation for %s..%s\n", summary.From, summary.To)
		} else {
			fmt.Fprintf(opts.Stdout, "inserted %d rate(s)\n", summary.Inserted)
		}
	}
	return nil
}

func defaultBackfillConfirm(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "apply generated rates? [y/N]: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
