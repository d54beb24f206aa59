package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/history"
)

// HistoryCmd groups build-history subcommands.
type HistoryCmd struct {
	List  HistoryListCmd  `cmd:"" default:"withargs" help:"List recent builds"`
	Show  HistoryShowCmd  `cmd:"" help:"Show one recorded build"`
	Prune HistoryPruneCmd `cmd:"" help:"Delete records older than a cutoff"`
}

func openHistory(g *Global) (*history.Store, error) {
	return history.Open(historyPath(g))
}

// HistoryListCmd implements 'smartlatex history list'.
type HistoryListCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of builds to list"`
}

func (h *HistoryListCmd) Run(g *Global) error {
	store, err := openHistory(g)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no builds recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFINISHED\tOUTCOME\tENTRY\tERRORS\tWARNINGS\tDURATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.FinishedAt.Format(time.RFC3339), e.Outcome, e.Entry,
			e.ErrorCount, e.WarningCount, time.Duration(e.DurationMS)*time.Millisecond)
	}
	return w.Flush()
}

// HistoryShowCmd implements 'smartlatex history show'.
type HistoryShowCmd struct {
	ID string `arg:"" help:"Build ID to show"`
}

func (h *HistoryShowCmd) Run(g *Global) error {
	store, err := openHistory(g)
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Get(context.Background(), h.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "id:        %s\n", e.ID)
	fmt.Fprintf(os.Stdout, "finished:  %s\n", e.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(os.Stdout, "outcome:   %s\n", e.Outcome)
	fmt.Fprintf(os.Stdout, "entry:     %s\n", e.Entry)
	fmt.Fprintf(os.Stdout, "chain:     %s\n", e.Chain)
	fmt.Fprintf(os.Stdout, "errors:    %d\n", e.ErrorCount)
	fmt.Fprintf(os.Stdout, "warnings:  %d\n", e.WarningCount)
	fmt.Fprintf(os.Stdout, "duration:  %s\n", time.Duration(e.DurationMS)*time.Millisecond)
	if e.Artifact != "" {
		fmt.Fprintf(os.Stdout, "artifact:  %s\n", e.Artifact)
	}
	if e.Failure != "" {
		fmt.Fprintf(os.Stdout, "failure:   %s\n", e.Failure)
	}
	return nil
}

// HistoryPruneCmd implements 'smartlatex history prune'.
type HistoryPruneCmd struct {
	OlderThan time.Duration `default:"720h" help:"Delete builds finished longer ago than this"`
}

func (h *HistoryPruneCmd) Run(g *Global) error {
	store, err := openHistory(g)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Prune(context.Background(), time.Now().Add(-h.OlderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "pruned %d builds\n", n)
	return nil
}
