package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRateInventory struct {
	currencies []string
	existing   map[string]bool // "CUR|YYYY-MM-DD"
}

func (s stubRateInventory) AvailableCurrencies(ctx context.Context) ([]string, error) {
	return s.currencies, nil
}

func (s stubRateInventory) Exists(ctx context.Context, from, to string, date time.Time) (bool, error) {
	return s.existing[from+"|"+date.Format("2006-01-02")], nil
}

type stubRateGenerator struct {
	inserted int
	calls    int
}

func (s *stubRateGenerator) Generate(ctx context.Context, start, end time.Time) (int, error) {
	s.calls++
	return s.inserted, nil
}

func TestBackfillCommandDryReportsGaps(t *testing.T) {
	store := stubRateInventory{
		currencies: []string{"USD"},
		existing:   map[string]bool{"USD|2024-03-01": true},
	}
	gen := &stubRateGenerator{}
	cli := NewFXBackfillCLI(store, gen, "UAH")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:       "2024-03-01",
		To:         "2024-03-03",
		Mode:       FXBackfillModeDry,
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Equal(t, 10, exitCode)
	require.Empty(t, stderr.String())
	require.Zero(t, gen.calls, "dry run must not generate")

	var summary FXBackfillSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Len(t, summary.Missing, 1)
	require.Equal(t, "USD", summary.Missing[0].Currency)
	require.Equal(t, []string{"2024-03-02", "2024-03-03"}, summary.Missing[0].Dates)
}

func TestBackfillCommandDryNoGaps(t *testing.T) {
	store := stubRateInventory{
		currencies: []string{"USD"},
		existing: map[string]bool{
			"USD|2024-03-01": true,
			"USD|2024-03-02": true,
		},
	}
	cli := NewFXBackfillCLI(store, &stubRateGenerator{}, "UAH")

	stdout := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:   "2024-03-01",
		To:     "2024-03-02",
		Stdout: stdout,
		Stderr: new(bytes.Buffer),
	})
	require.Zero(t, exitCode)
	require.Contains(t, stdout.String(), "no gaps")
}

func TestBackfillCommandApplyGenerates(t *testing.T) {
	store := stubRateInventory{currencies: []string{"USD"}, existing: map[string]bool{}}
	gen := &stubRateGenerator{inserted: 3}
	cli := NewFXBackfillCLI(store, gen, "UAH")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:       "2024-03-01",
		To:         "2024-03-03",
		Mode:       FXBackfillModeApply,
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
		Confirm: func(io.Reader, io.Writer) (bool, error) {
			return true, nil
		},
	})
	require.Zero(t, exitCode)
	require.Equal(t, 1, gen.calls)

	var summary FXBackfillSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Equal(t, 3, summary.Inserted)
}

type stubRateQueue struct {
	starts []string
	ends   []string
}

func (s *stubRateQueue) EnqueueGenerateRates(ctx context.Context, start, end string) error {
	s.starts = append(s.starts, start)
	s.ends = append(s.ends, end)
	return nil
}

func TestBackfillCommandApplyAsyncEnqueues(t *testing.T) {
	store := stubRateInventory{currencies: []string{"USD"}, existing: map[string]bool{}}
	gen := &stubRateGenerator{}
	queue := &stubRateQueue{}
	cli := NewFXBackfillCLI(store, gen, "UAH").WithQueue(queue)

	stdout := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:   "2024-03-01",
		To:     "2024-03-03",
		Mode:   FXBackfillModeApply,
		Async:  true,
		Stdout: stdout,
		Stderr: new(bytes.Buffer),
		Confirm: func(io.Reader, io.Writer) (bool, error) {
			return true, nil
		},
	})
	require.Zero(t, exitCode)
	require.Zero(t, gen.calls, "async apply must not generate inline")
	require.Equal(t, []string{"2024-03-01"}, queue.starts)
	require.Equal(t, []string{"2024-03-03"}, queue.ends)
	require.Contains(t, stdout.String(), "enqueued generation")
}

func TestBackfillCommandAsyncRequiresQueue(t *testing.T) {
	cli := NewFXBackfillCLI(stubRateInventory{currencies: []string{"USD"}}, &stubRateGenerator{}, "UAH")

	stderr := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:   "2024-03-01",
		To:     "2024-03-02",
		Mode:   FXBackfillModeApply,
		Async:  true,
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
	})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no job queue")
}

func TestBackfillCommandApplyCancelled(t *testing.T) {
	store := stubRateInventory{currencies: []string{"USD"}, existing: map[string]bool{}}
	gen := &stubRateGenerator{}
	cli := NewFXBackfillCLI(store, gen, "UAH")

	stderr := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:   "2024-03-01",
		To:     "2024-03-02",
		Mode:   FXBackfillModeApply,
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
		Confirm: func(io.Reader, io.Writer) (bool, error) {
			return false, nil
		},
	})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "cancelled")
	require.Zero(t, gen.calls)
}

func TestBackfillCommandInvalidDates(t *testing.T) {
	cli := NewFXBackfillCLI(stubRateInventory{}, &stubRateGenerator{}, "UAH")

	stderr := new(bytes.Buffer)
	exitCode := cli.BackfillCommand(context.Background(), FXBackfillOptions{
		From:   "03/01/2024",
		To:     "2024-03-02",
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
	})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "invalid --from")
}
