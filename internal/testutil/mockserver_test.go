package testutil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestMockServer(t *testing.T) {
	ms := NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
	defer ms.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ms.URL+"/ojp", strings.NewReader("<OJP/>"))
	AssertNil(t, err)
	resp, err := http.DefaultClient.Do(req) //nolint:gosec // URL is from httptest.Server (localhost)
	AssertNil(t, err)
	defer func() { _ = resp.Body.Close() }()

	AssertEqual(t, resp.StatusCode, http.StatusOK)

	// Handler still sees the body after it was recorded
	body, err := io.ReadAll(resp.Body)
	AssertNil(t, err)
	AssertEqual(t, string(body), "<OJP/>")

	AssertEqual(t, ms.RequestCount(), 1)
	last := ms.LastRequest()
	AssertTrue(t, last != nil)
	AssertEqual(t, last.Method, "POST")
	AssertEqual(t, last.Path, "/ojp")
	AssertEqual(t, last.Body, "<OJP/>")
}

func TestMockServerReset(t *testing.T) {
	ms := NewMockServer(XMLHandler(http.StatusOK, SampleDepartureResponseV1))
	defer ms.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(ms.URL) //nolint:gosec,noctx // test server
		AssertNil(t, err)
		_ = resp.Body.Close()
	}
	AssertEqual(t, ms.RequestCount(), 3)
	AssertLen(t, ms.Requests(), 3)

	ms.Reset()
	AssertEqual(t, ms.RequestCount(), 0)
	AssertTrue(t, ms.LastRequest() == nil)
}
