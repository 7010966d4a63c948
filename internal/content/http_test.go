package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medquest/internal/content"
)

func jsonHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestLoadNotes(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"lectures":[]}`))
	defer srv.Close()

	source := content.NewHTTPSource(srv.URL, srv.URL, nil)
	payload, err := source.LoadNotes(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"lectures":[]}`, string(payload))
}

func TestFetch_NonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>login page</html>`))
	}))
	defer srv.Close()

	source := content.NewHTTPSource(srv.URL, srv.URL, nil)
	_, err := source.LoadNotes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	source := content.NewHTTPSource(srv.URL, srv.URL, nil)
	_, err := source.LoadQuestionBank(context.Background(), content.KindRegular)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetch_InvalidJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"truncated":`))
	}))
	defer srv.Close()

	source := content.NewHTTPSource(srv.URL, srv.URL, nil)
	_, err := source.LoadNotes(context.Background())
	require.Error(t, err)
}

func TestLoadQuestionBank_LongFormCandidateFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(jsonHandler(t, `{"questions":[]}`))
	defer good.Close()

	source := content.NewHTTPSource(good.URL, good.URL, []string{bad.URL, good.URL})
	payload, err := source.LoadQuestionBank(context.Background(), content.KindLongForm)
	require.NoError(t, err, "the first working candidate wins")
	assert.JSONEq(t, `{"questions":[]}`, string(payload))
}

func TestLoadQuestionBank_LongFormExhaustion(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer bad.Close()

	source := content.NewHTTPSource(bad.URL, bad.URL, []string{bad.URL, bad.URL})
	_, err := source.LoadQuestionBank(context.Background(), content.KindLongForm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "long-form sources failed")
}

func TestLoadQuestionBank_NoCandidatesUsesRegularBank(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"questions":[{"stem":"q"}]}`))
	defer srv.Close()

	source := content.NewHTTPSource(srv.URL, srv.URL, nil)
	payload, err := source.LoadQuestionBank(context.Background(), content.KindLongForm)
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[{"stem":"q"}]}`, string(payload))
}
