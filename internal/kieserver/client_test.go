package kieserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{withRetryDelay(time.Millisecond)}, opts...)
	return NewClient(srv.URL, "wbadmin", "secret", opts...)
}

func TestGetCaseInstances(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "wbadmin", user)
		assert.Equal(t, "secret", pass)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		assert.Equal(t, "/queries/cases/instances", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "open", r.URL.Query().Get("status"))

		io.WriteString(w, `{"instances":[
			{"case-id":"IT-0000000003","case-description":"Printer jam","case-owner":"wbadmin","case-status":1,
			 "case-definition-id":"itorders.orderhardware","container-id":"itorders",
			 "case-started-at":{"java.util.Date":1700000000000}},
			{"case-id":"IT-0000000004","case-status":2,"container-id":"itorders",
			 "case-started-at":1700000100000,"case-completed-at":null,"case-completion-msg":"done"}
		]}`)
	})

	got, err := c.GetCaseInstances(context.Background(), domain.CaseSearchRequest{Status: domain.CaseStatusOpen}, 1, 2)
	require.NoError(t, err)

	want := []domain.CaseInstance{
		{
			ID: "IT-0000000003", ContainerID: "itorders", DefinitionID: "itorders.orderhardware",
			Description: "Printer jam", Owner: "wbadmin", Status: domain.CaseStatusOpen,
			StartedAt: time.UnixMilli(1700000000000),
		},
		{
			ID: "IT-0000000004", ContainerID: "itorders", Status: domain.CaseStatusClosed,
			StartedAt: time.UnixMilli(1700000100000), CompletionMessage: "done",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetCaseInstances mismatch (-want +got):\n%s", diff)
	}
}

func TestGetCaseInstances_ContainerIgnoresFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/containers/itorders/cases/instances", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("filter"))
		io.WriteString(w, `{"instances":[
			{"case-id":"IT-1","case-description":"Printer jam","container-id":"itorders"},
			{"case-id":"IT-2","case-description":"New laptop","container-id":"itorders"}
		]}`)
	}, WithContainer("itorders"))

	got, err := c.GetCaseInstances(context.Background(), domain.CaseSearchRequest{Filter: "LAPTOP"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// pagedCases serves descriptions as cases IT-1..IT-n, pageSize per page
func pagedCases(t *testing.T, descriptions ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

		var resp CaseInstancesResponse
		for i := page * size; i < min((page+1)*size, len(descriptions)); i++ {
			resp.Instances = append(resp.Instances, CaseInstance{
				CaseID:      fmt.Sprintf("IT-%d", i+1),
				Description: descriptions[i],
				ContainerID: "itorders",
				Status:      1,
			})
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestGetCaseInstances_FilterDoesNotHideLaterPages(t *testing.T) {
	c := newTestClient(t, pagedCases(t, "printer", "monitor", "desk", "chair", "laptop", "badge"))
	search := domain.CaseSearchRequest{Status: domain.CaseStatusOpen, Filter: "laptop"}
	ctrl := listing.NewController(listing.Config[domain.CaseInstance]{
		PageSize: 2,
		Key:      func(ci domain.CaseInstance) string { return ci.ID },
	})

	run := func(reqs []listing.Request) {
		for _, req := range reqs {
			items, err := c.GetCaseInstances(context.Background(), search, req.Page, req.PageSize)
			require.NoError(t, err)
			_, err = ctrl.Apply(listing.Result[domain.CaseInstance]{Request: req, Items: items})
			require.NoError(t, err)
		}
	}

	run(ctrl.Refresh())
	require.Equal(t, 2, ctrl.Len())
	require.True(t, ctrl.LoadMoreVisible(), "the matching case sits on page 2")

	run(ctrl.LoadMore())
	run(ctrl.LoadMore())

	var matched []string
	for _, ci := range ctrl.Items() {
		if search.Matches(ci) {
			matched = append(matched, ci.ID)
		}
	}
	assert.Equal(t, []string{"IT-5"}, matched)
	assert.False(t, ctrl.LoadMoreVisible())
}

func TestGetComments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/containers/itorders/cases/instances/IT-1/comments", r.URL.Path)
		io.WriteString(w, `{"comments":[
			{"id":"c1","author":"wbadmin","text":"first","added-at":{"java.util.Date":1700000000000}}
		]}`)
	})

	got, err := c.GetComments(context.Background(), domain.CaseRef{ContainerID: "itorders", CaseID: "IT-1"}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, []domain.CaseComment{
		{ID: "c1", Author: "wbadmin", Text: "first", AddedAt: time.UnixMilli(1700000000000)},
	}, got)
}

func TestCommentMutations(t *testing.T) {
	type call struct {
		Method, Path, Author, Body string
	}
	var (
		mu    sync.Mutex
		calls []call
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.Query().Get("author"), string(body)})
		mu.Unlock()
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `"c9"`)
		}
	})
	ref := domain.CaseRef{ContainerID: "itorders", CaseID: "IT-1"}
	ctx := context.Background()

	id, err := c.AddComment(ctx, ref, "wbadmin", "hello")
	require.NoError(t, err)
	assert.Equal(t, "c9", id)
	require.NoError(t, c.UpdateComment(ctx, ref, "c9", "wbadmin", "edited"))
	require.NoError(t, c.RemoveComment(ctx, ref, "c9"))

	base := "/containers/itorders/cases/instances/IT-1/comments"
	assert.Equal(t, []call{
		{http.MethodPost, base, "wbadmin", `"hello"`},
		{http.MethodPut, base + "/c9", "wbadmin", `"edited"`},
		{http.MethodDelete, base + "/c9", "", ""},
	}, calls)
}

func TestStartCancelDestroy(t *testing.T) {
	var destroyed atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/containers/itorders/cases/itorders.orderhardware/instances", r.URL.Path)
			var req StartCaseRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "wbadmin", req.UserAssignments["owner"])
			io.WriteString(w, `"IT-0000000042"`)
		case http.MethodDelete:
			if r.URL.Query().Get("destroy") == "true" {
				destroyed.Store(true)
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	id, err := c.StartCase(ctx, domain.CaseDefinition{ID: "itorders.orderhardware", ContainerID: "itorders"}, "wbadmin")
	require.NoError(t, err)
	assert.Equal(t, "IT-0000000042", id)

	ref := domain.CaseRef{ContainerID: "itorders", CaseID: id}
	require.NoError(t, c.CancelCase(ctx, ref))
	assert.False(t, destroyed.Load())
	require.NoError(t, c.DestroyCase(ctx, ref))
	assert.True(t, destroyed.Load())
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"comments":[]}`)
	})

	got, err := c.GetComments(context.Background(), domain.CaseRef{ContainerID: "a", CaseID: "b"}, 0, 20)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDoRequest_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	_, err := c.GetCaseDefinitions(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), attempts.Load())
}

func TestDoRequest_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrAuthFailed},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusNotFound, domain.ErrCaseNotFound},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.GetCaseInstance(context.Background(), domain.CaseRef{ContainerID: "a", CaseID: "b"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDoRequest_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "u", "p")
	_, err := c.GetCaseDefinitions(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestDoRequest_SharesIdenticalGets(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, `{"comments":[{"id":"c1"}]}`)
	})
	ref := domain.CaseRef{ContainerID: "a", CaseID: "b"}

	var wg sync.WaitGroup
	results := make([][]domain.CaseComment, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetComments(context.Background(), ref, 1, 20)
			assert.NoError(t, err)
			results[i] = got
		}()
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, time.Millisecond)
	// Let the second caller join the in-flight call before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, results[0], results[1])
}

func TestDoRequest_WriteStartsNewFlight(t *testing.T) {
	release := make(chan struct{})
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if gets.Add(1) == 1 {
			<-release
			io.WriteString(w, `{"comments":[{"id":"c1","text":"before"}]}`)
			return
		}
		io.WriteString(w, `{"comments":[{"id":"c1","text":"after"}]}`)
	})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	ref := domain.CaseRef{ContainerID: "a", CaseID: "b"}

	early := make(chan []domain.CaseComment, 1)
	go func() {
		got, err := c.GetComments(context.Background(), ref, 0, 20)
		assert.NoError(t, err)
		early <- got
	}()
	require.Eventually(t, func() bool { return gets.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.UpdateComment(context.Background(), ref, "c1", "wbadmin", "after"))

	got, err := c.GetComments(context.Background(), ref, 0, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "after", got[0].Text)
	assert.Equal(t, int32(2), gets.Load())

	unblock()
	assert.Equal(t, "before", (<-early)[0].Text)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/server", r.URL.Path)
		io.WriteString(w, `{"type":"SUCCESS","msg":"ok","result":{"kie-server-info":{"id":"kie1","version":"7.74.1.Final","capabilities":["CaseMgmt"]}}}`)
	})

	info, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7.74.1.Final", info.Version)
	assert.Contains(t, info.Capabilities, "CaseMgmt")
}

func TestKieTime(t *testing.T) {
	var v struct {
		A kieTime `json:"a"`
		B kieTime `json:"b"`
		C kieTime `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":{"java.util.Date":1000},"b":2000,"c":null}`), &v))
	assert.Equal(t, time.UnixMilli(1000), v.A.Time)
	assert.Equal(t, time.UnixMilli(2000), v.B.Time)
	assert.True(t, v.C.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"a":{"other":1}}`), &v))
}

func TestRateLimit(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}, WithRateLimit(1, 1))

	ref := domain.CaseRef{ContainerID: "a", CaseID: "b"}
	require.NoError(t, c.RemoveComment(context.Background(), ref, "c1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.RemoveComment(ctx, ref, "c2")
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
