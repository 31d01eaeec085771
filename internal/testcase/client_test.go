package testcase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchSubstitutesProblemIDAndParsesBody(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"testCases":[{"caseId":"1","isHidden":false,"isRemote":false,"input":"hi","expectedOutput":"hi"}]}`))
	}))
	defer server.Close()

	c := New(server.URL + "/problems/{problemId}/testcases")

	cases, err := c.Fetch(context.Background(), "p42")
	require.NoError(t, err)
	require.Equal(t, "/problems/p42/testcases", gotPath)
	require.Len(t, cases, 1)
	require.Equal(t, "1", cases[0].CaseID)
	require.Equal(t, "hi", cases[0].Input)
}

func TestFetchReturnsErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL + "/{problemId}")
	_, err := c.Fetch(context.Background(), "p1")
	require.Error(t, err)
}

func TestFetchEmptyTestCaseList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"testCases":[]}`))
	}))
	defer server.Close()

	c := New(server.URL + "/{problemId}")
	cases, err := c.Fetch(context.Background(), "p1")
	require.NoError(t, err)
	require.Empty(t, cases)
}
