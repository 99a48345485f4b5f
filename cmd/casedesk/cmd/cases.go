package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	casesStatus string
	casesFilter string
	casesPages  int
	casesSize   int
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List cases",
	Long: `List cases the way the interactive case list loads them: the first page
plus one load-more per additional --pages.

Examples:
  casedesk cases
  casedesk cases --status closed --pages 3
  casedesk cases --filter printer`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := domain.ParseCaseStatus(casesStatus)
		if err != nil {
			return err
		}

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		search := domain.DefaultCaseSearchRequest()
		search.Status = status
		search.Filter = casesFilter

		size := casesSize
		if size <= 0 {
			size = cfg.Paging.CaseFetchSize
		}

		cases, more, err := listCases(cmd.Context(), b.svc, search, size, casesPages)
		if err != nil {
			return err
		}
		return writeCaseTable(cmd.OutOrStdout(), cases, more)
	},
}

func init() {
	casesCmd.Flags().StringVar(&casesStatus, "status", "open", "case status: open, closed or cancelled")
	casesCmd.Flags().StringVar(&casesFilter, "filter", "", "match case id or description within the loaded pages")
	addPagingFlags(casesCmd.Flags(), &casesPages, &casesSize)
}

// addPagingFlags registers the --pages and --size flags shared by list commands
func addPagingFlags(fs *pflag.FlagSet, pages, size *int) {
	fs.IntVar(pages, "pages", 1, "number of pages to load")
	fs.IntVar(size, "size", 0, "items per fetched page (default from config)")
}

// settle runs a session command and waits for its fetches to finish
func settle[T any](ctx context.Context, sess *listing.Session[T], action func() error) (listing.Snapshot[T], error) {
	if err := action(); err != nil {
		return listing.Snapshot[T]{}, err
	}
	snap, err := sess.Idle(ctx)
	if err != nil {
		return snap, err
	}
	return snap, snap.Err
}

// listCases loads the first page and up to pages-1 further pages, then keeps
// the cases matching search.Filter. more reports whether the server has cases
// beyond the last loaded page.
func listCases(ctx context.Context, svc *casemgmt.Service, search domain.CaseSearchRequest, size, pages int) (cases []domain.CaseInstance, more bool, err error) {
	sess := listing.NewSession(
		casemgmt.NewCaseList(size),
		svc.CaseFetcher(func() domain.CaseSearchRequest { return search }),
		logger,
	)
	defer sess.Close()

	snap, err := settle(ctx, sess, sess.Refresh)
	if err != nil {
		return nil, false, fmt.Errorf("loading cases: %w", err)
	}
	for i := 1; i < pages && snap.LoadMore; i++ {
		if snap, err = settle(ctx, sess, sess.LoadMore); err != nil {
			return nil, false, fmt.Errorf("loading cases: %w", err)
		}
	}

	for _, ci := range snap.Items {
		if search.Matches(ci) {
			cases = append(cases, ci)
		}
	}
	return cases, snap.LoadMore, nil
}

func writeCaseTable(out io.Writer, cases []domain.CaseInstance, more bool) error {
	if len(cases) == 0 {
		fmt.Fprintln(out, "No cases.")
		if more {
			fmt.Fprintln(out, "More cases available, use --pages to load them.")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONTAINER\tSTATUS\tOWNER\tSTARTED\tDESCRIPTION")
	for _, c := range cases {
		started := ""
		if !c.StartedAt.IsZero() {
			started = c.StartedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.ContainerID, c.Status, c.Owner, started, oneLine(c.Description, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if more {
		fmt.Fprintln(out, "\nMore cases available, use --pages to load them.")
	}
	return nil
}

// oneLine flattens s to a single line of at most n runes
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
