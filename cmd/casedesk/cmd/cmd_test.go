package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/casemgmt/casemgmttest"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/mmcdole/casedesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var ref = domain.CaseRef{ContainerID: "itorders", CaseID: "IT-1"}

func newTestService(t *testing.T, comments int) (*casemgmt.Service, *casemgmttest.Source) {
	t.Helper()
	src := casemgmttest.NewSource()
	for i := 1; i <= 5; i++ {
		src.AddCases(domain.CaseInstance{
			ID:          fmt.Sprintf("IT-%d", i),
			ContainerID: "itorders",
			Description: fmt.Sprintf("case %d", i),
			Status:      domain.CaseStatusOpen,
		})
	}
	src.AddCases(domain.CaseInstance{ID: "IT-9", ContainerID: "itorders", Status: domain.CaseStatusClosed})

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := range comments {
		src.AddComments(ref, domain.CaseComment{
			ID:      fmt.Sprintf("c%02d", i),
			Author:  "wbadmin",
			Text:    fmt.Sprintf("comment %d", i),
			AddedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	st, err := store.NewCaseStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return casemgmt.NewService(src, st, domain.StaticIdentity("wbadmin"), nil), src
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}

func caseID(c domain.CaseInstance) string { return c.ID }

func commentID(c domain.CaseComment) string { return c.ID }

func TestListCases_Pages(t *testing.T) {
	svc, _ := newTestService(t, 0)
	search := domain.CaseSearchRequest{Status: domain.CaseStatusOpen}

	tests := []struct {
		pages    int
		wantIDs  []string
		wantMore bool
	}{
		{1, []string{"IT-1", "IT-2"}, true},
		{2, []string{"IT-1", "IT-2", "IT-3", "IT-4"}, true},
		{3, []string{"IT-1", "IT-2", "IT-3", "IT-4", "IT-5"}, false},
		{10, []string{"IT-1", "IT-2", "IT-3", "IT-4", "IT-5"}, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("pages=%d", tt.pages), func(t *testing.T) {
			cases, more, err := listCases(context.Background(), svc, search, 2, tt.pages)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.wantIDs, ids(cases, caseID)); diff != "" {
				t.Errorf("cases mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantMore, more)
		})
	}
}

func TestListCases_FilterReachesLaterPages(t *testing.T) {
	svc, _ := newTestService(t, 0)
	search := domain.CaseSearchRequest{Status: domain.CaseStatusOpen, Filter: "CASE 5"}

	cases, more, err := listCases(context.Background(), svc, search, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, cases)
	assert.True(t, more, "pages past the first still hold cases")

	cases, more, err = listCases(context.Background(), svc, search, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"IT-5"}, ids(cases, caseID))
	assert.False(t, more)
}

func TestListCases_FetchError(t *testing.T) {
	svc, src := newTestService(t, 0)
	src.Fail(domain.ErrServerOffline)

	_, _, err := listCases(context.Background(), svc, domain.DefaultCaseSearchRequest(), 2, 1)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestListComments_EachPageFetchesAndWidensWindow(t *testing.T) {
	svc, src := newTestService(t, 7)
	paging := listing.Paging{FetchSize: 5, DisplaySize: 2}

	// First fetch page holds c00..c04, newest first; the window shows its tail
	view, err := listComments(context.Background(), svc, ref, paging, false, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c01", "c00"}, ids(view.Comments, commentID))
	assert.Equal(t, 5, view.Total)
	assert.True(t, view.More)

	before := len(src.Calls())
	view, err = listComments(context.Background(), svc, ref, paging, false, 2)
	require.NoError(t, err)
	assert.Equal(t, before+4, len(src.Calls()), "refresh and one load more")
	assert.Equal(t, 7, view.Total)
	assert.Equal(t, []string{"c03", "c02", "c01", "c00"}, ids(view.Comments, commentID))
	assert.True(t, view.More)
}

func TestListComments_LastPageShowsEverything(t *testing.T) {
	svc, _ := newTestService(t, 7)
	paging := listing.Paging{FetchSize: 5, DisplaySize: 2}

	view, err := listComments(context.Background(), svc, ref, paging, false, 3)
	require.NoError(t, err)
	assert.Len(t, view.Comments, 6)
	assert.True(t, view.More)

	view, err = listComments(context.Background(), svc, ref, paging, false, 4)
	require.NoError(t, err)
	assert.Len(t, view.Comments, 7)
	assert.False(t, view.More)

	view, err = listComments(context.Background(), svc, ref, paging, false, 10)
	require.NoError(t, err)
	assert.Len(t, view.Comments, 7)
}

func TestListComments_Ascending(t *testing.T) {
	svc, _ := newTestService(t, 3)

	view, err := listComments(context.Background(), svc, ref, listing.Paging{FetchSize: 10, DisplaySize: 4}, true, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c00", "c01", "c02"}, ids(view.Comments, commentID))
}

func TestExportCases_AllStatusesWithComments(t *testing.T) {
	svc, _ := newTestService(t, 3)

	cases, err := exportCases(context.Background(), svc, 2)
	require.NoError(t, err)
	require.Len(t, cases, 6)

	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, cases))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 6)
	assert.Equal(t, "IT-1", decoded[0]["id"])
	assert.Len(t, decoded[0]["comments"], 3)
	assert.Equal(t, "Closed", decoded[5]["status"])
	assert.Empty(t, decoded[5]["comments"])
}

func TestFetchAll_KeysShiftedPagesByID(t *testing.T) {
	// A case inserted between requests pushes IT-2 onto the second page too
	pages := [][]domain.CaseInstance{
		{{ID: "IT-1", ContainerID: "itorders"}, {ID: "IT-2", ContainerID: "itorders"}},
		{{ID: "IT-2", ContainerID: "itorders", Description: "edited"}, {ID: "IT-3", ContainerID: "itorders"}},
		{},
	}
	fetch := func(ctx context.Context, page, size int) ([]domain.CaseInstance, error) {
		return pages[page], nil
	}

	got, err := fetchAll(context.Background(), fetch, 2, exportCaseKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"IT-1", "IT-2", "IT-3"}, ids(got, caseID))
	assert.Equal(t, "edited", got[1].Description)
}

func TestExportCases_StopsOnError(t *testing.T) {
	svc, src := newTestService(t, 0)
	src.Fail(errors.New("boom"))

	_, err := exportCases(context.Background(), svc, 2)
	assert.Error(t, err)
}

func TestWriteCaseTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeCaseTable(&buf, []domain.CaseInstance{
		{ID: "IT-1", ContainerID: "itorders", Status: domain.CaseStatusOpen, Description: "Printer\njam"},
	}, true)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "IT-1")
	assert.Contains(t, out, "Printer jam")
	assert.Contains(t, out, "--pages")
}

func TestWriteCommentTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCommentTable(&buf, commentView{}))
	assert.Equal(t, "No comments.\n", buf.String())
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine(" a\n b\tc ", 10))
	assert.Equal(t, "abcd…", oneLine("abcdefgh", 5))
	assert.True(t, strings.HasSuffix(oneLine(strings.Repeat("x", 100), 60), "…"))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "casedesk dev\n", buf.String())
}
