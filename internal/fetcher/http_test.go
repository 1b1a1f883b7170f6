package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/darion/resultfetch/internal/model"
	"github.com/jarcoal/httpmock"
)

func TestHTTPFetcherParsesResult(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", "https://results.example.edu/gradeWiseResults.do",
		func(req *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(req.Body)
			form, _ := url.ParseQuery(string(raw))
			if form.Get("hno") != "123401" {
				t.Errorf("posted PIN = %q, want 123401", form.Get("hno"))
			}
			if form.Get("grade1") != "3SEM" {
				t.Errorf("posted semester = %q, want 3SEM", form.Get("grade1"))
			}
			return httpmock.NewStringResponse(http.StatusOK, resultPage), nil
		})

	f := newHTTPFetcher(testCfg(), discardLogger())
	f.transport = transport

	res := f.Fetch(context.Background(), model.FetchRequest{PIN: "123401", Semester: "3SEM"})
	if !res.Succeeded() {
		t.Fatalf("fetch failed: %s %s", res.Reason, res.Detail)
	}
	if res.Record.Name != "JOHN DOE" || len(res.Record.Subjects) != 2 {
		t.Fatalf("record = %+v", res.Record)
	}
	if res.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", res.Attempts)
	}
	if res.TimeToFetch < 0 {
		t.Fatalf("TimeToFetch = %d", res.TimeToFetch)
	}
}

func TestHTTPFetcherNoRecords(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", "https://results.example.edu/gradeWiseResults.do",
		httpmock.NewStringResponder(http.StatusOK, `<html><body>No Records Found</body></html>`))

	f := newHTTPFetcher(testCfg(), discardLogger())
	f.transport = transport

	res := f.Fetch(context.Background(), model.FetchRequest{PIN: "999999", Semester: "3SEM"})
	if res.Succeeded() || res.Reason != model.ReasonNotFound {
		t.Fatalf("result = %+v, want not_found", res)
	}
}

func TestHTTPFetcherServerError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", "https://results.example.edu/gradeWiseResults.do",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	f := newHTTPFetcher(testCfg(), discardLogger())
	f.transport = transport

	res := f.Fetch(context.Background(), model.FetchRequest{PIN: "123401", Semester: "3SEM"})
	if res.Reason != model.ReasonNavigation {
		t.Fatalf("reason = %s, want navigation_error", res.Reason)
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", "https://results.example.edu/gradeWiseResults.do",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	f := newHTTPFetcher(testCfg(), discardLogger())
	f.transport = transport

	res := f.Fetch(context.Background(), model.FetchRequest{PIN: "123401", Semester: "3SEM"})
	if res.Reason != model.ReasonTimeout {
		t.Fatalf("reason = %s, want timeout", res.Reason)
	}
	if !res.Reason.Retryable() {
		t.Fatal("timeout should be retryable")
	}
}
