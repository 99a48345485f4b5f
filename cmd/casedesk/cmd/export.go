package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const exportConcurrency = 4

var (
	exportOut  string
	exportSize int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all cases with their comments as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		cases, err := exportCases(cmd.Context(), b.svc, exportSize)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOut, err)
			}
			defer f.Close()
			out = f
		}

		if err := writeExport(out, cases); err != nil {
			return err
		}
		logger.Info("export complete", "cases", len(cases), "out", exportOut)
		if exportOut != "" && exportOut != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d cases to %s\n", len(cases), exportOut)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().IntVar(&exportSize, "size", 100, "items per fetched page")
}

type exportedComment struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	AddedAt time.Time `json:"added_at"`
}

type exportedCase struct {
	ID          string            `json:"id"`
	ContainerID string            `json:"container_id"`
	Definition  string            `json:"definition_id,omitempty"`
	Description string            `json:"description,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	Status      string            `json:"status"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Comments    []exportedComment `json:"comments"`
}

func newExportedCase(c domain.CaseInstance) exportedCase {
	ec := exportedCase{
		ID:          c.ID,
		ContainerID: c.ContainerID,
		Definition:  c.DefinitionID,
		Description: c.Description,
		Owner:       c.Owner,
		Status:      c.Status.String(),
		Comments:    []exportedComment{},
	}
	if !c.StartedAt.IsZero() {
		ec.StartedAt = &c.StartedAt
	}
	if !c.CompletedAt.IsZero() {
		ec.CompletedAt = &c.CompletedAt
	}
	return ec
}

// fetchAll reads pages until a short page. Items are keyed by identifier:
// one that shows up again on a later page overwrites its first position.
func fetchAll[T any](ctx context.Context, fetch listing.FetchFunc[T], size int, key func(T) string) ([]T, error) {
	var all []T
	seen := make(map[string]int)
	for page := 0; ; page++ {
		items, err := fetch(ctx, page, size)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			k := key(item)
			if i, ok := seen[k]; ok {
				all[i] = item
				continue
			}
			seen[k] = len(all)
			all = append(all, item)
		}
		if len(items) < size {
			return all, nil
		}
	}
}

func exportCaseKey(c domain.CaseInstance) string { return c.Ref().String() }

func exportCommentKey(c domain.CaseComment) string { return c.ID }

// exportCases loads the cases of every status, then their comments, with
// bounded concurrency
func exportCases(ctx context.Context, svc *casemgmt.Service, size int) ([]exportedCase, error) {
	if size <= 0 {
		size = listing.DefaultPageSize
	}
	statuses := []domain.CaseStatus{domain.CaseStatusOpen, domain.CaseStatusClosed, domain.CaseStatusCancelled}

	byStatus := make([][]domain.CaseInstance, len(statuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, status := range statuses {
		g.Go(func() error {
			search := domain.CaseSearchRequest{Status: status}
			cases, err := fetchAll(gctx, svc.CaseFetcher(func() domain.CaseSearchRequest { return search }), size, exportCaseKey)
			if err != nil {
				return fmt.Errorf("loading %s cases: %w", status, err)
			}
			byStatus[i] = cases
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []exportedCase
	var refs []domain.CaseRef
	for _, cases := range byStatus {
		for _, c := range cases {
			out = append(out, newExportedCase(c))
			refs = append(refs, c.Ref())
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			comments, err := fetchAll(gctx, svc.CommentFetcher(ref), size, exportCommentKey)
			if err != nil {
				return fmt.Errorf("loading comments of %s: %w", ref, err)
			}
			for _, c := range comments {
				out[i].Comments = append(out[i].Comments, exportedComment{ID: c.ID, Author: c.Author, Text: c.Text, AddedAt: c.AddedAt})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func writeExport(out io.Writer, cases []exportedCase) error {
	if cases == nil {
		cases = []exportedCase{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(cases)
}
