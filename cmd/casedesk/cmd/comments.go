package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/spf13/cobra"
)

var (
	commentsAsc   bool
	commentsPages int
	commentsSize  int
)

var commentsCmd = &cobra.Command{
	Use:   "comments CONTAINER CASE",
	Short: "Show the comments of a case",
	Long: `Show the comments of a case as the interactive view displays them:
newest first, each additional --pages loading the next page and showing one
more display page.

Examples:
  casedesk comments itorders IT-0000000001
  casedesk comments itorders IT-0000000001 --pages 2 --asc`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := domain.CaseRef{ContainerID: args[0], CaseID: args[1]}

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		paging := cfg.CommentPaging()
		if commentsSize > 0 {
			paging.FetchSize = commentsSize
		}

		view, err := listComments(cmd.Context(), b.svc, ref, paging, commentsAsc, commentsPages)
		if err != nil {
			return err
		}
		return writeCommentTable(cmd.OutOrStdout(), view)
	},
}

func init() {
	commentsCmd.Flags().BoolVar(&commentsAsc, "asc", false, "oldest first")
	addPagingFlags(commentsCmd.Flags(), &commentsPages, &commentsSize)
}

// commentView is the display window of a comment list
type commentView struct {
	Comments []domain.CaseComment
	Total    int  // accumulated comments
	More     bool // another display page or fetch page exists
}

// listComments loads the first page and up to pages-1 further pages. Each
// load more also widens the display window by one display page.
func listComments(ctx context.Context, svc *casemgmt.Service, ref domain.CaseRef, paging listing.Paging, ascending bool, pages int) (commentView, error) {
	sess := listing.NewSession(casemgmt.NewCommentList(paging.FetchSize), svc.CommentFetcher(ref), logger)
	defer sess.Close()

	snap, err := settle(ctx, sess, sess.Refresh)
	if err != nil {
		return commentView{}, fmt.Errorf("loading comments: %w", err)
	}

	for i := 1; i < pages; i++ {
		if !snap.LoadMore && !listing.HasHiddenItems(len(snap.Items), paging.DisplaySize, snap.Page) {
			break
		}
		if snap, err = settle(ctx, sess, sess.LoadMore); err != nil {
			return commentView{}, fmt.Errorf("loading comments: %w", err)
		}
	}

	if ascending {
		if snap, err = settle(ctx, sess, func() error { return sess.Sort(true) }); err != nil {
			return commentView{}, err
		}
	}

	return commentView{
		Comments: listing.Visible(snap.Items, paging.DisplaySize, snap.Page),
		Total:    len(snap.Items),
		More:     listing.HasHiddenItems(len(snap.Items), paging.DisplaySize, snap.Page) || snap.LoadMore,
	}, nil
}

func writeCommentTable(out io.Writer, view commentView) error {
	if len(view.Comments) == 0 {
		fmt.Fprintln(out, "No comments.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUTHOR\tADDED\tTEXT")
	for _, c := range view.Comments {
		added := ""
		if !c.AddedAt.IsZero() {
			added = c.AddedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Author, added, oneLine(c.Text, 70))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nShowing %d of %d loaded comments.", len(view.Comments), view.Total)
	if view.More {
		fmt.Fprint(out, " Use --pages to see more.")
	}
	fmt.Fprintln(out)
	return nil
}
