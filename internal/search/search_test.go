package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(r *http.Request) (int, string)
}

func (f *fakeTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	status, payload := http.StatusOK, `{}`
	if f.respond != nil {
		status, payload = f.respond(r)
	}

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(payload)),
		Request:    r,
	}, nil
}

func (f *fakeTransport) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestIndex(t *testing.T, ft *fakeTransport) *Index {
	t.Helper()
	client, err := NewClient(context.Background(), Config{URL: "http://es.test:9200", Transport: ft})
	require.NoError(t, err)
	return New(client, "products")
}

func TestIndexProduct(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{}
	idx := newTestIndex(t, ft)

	p := &models.Product{
		ID:          uuid.New(),
		Name:        "Rash Guard",
		Description: "long sleeve",
		Price:       decimal.RequireFromString("29.99"),
	}
	require.NoError(t, idx.IndexProduct(context.Background(), p))

	req := ft.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/"+p.ID.String(), req.Path)

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Rash Guard", doc.Name)
	assert.True(t, p.Price.Equal(doc.Price))
}

func TestDeleteProduct_IgnoresMissing(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: func(r *http.Request) (int, string) {
		if r.Method == http.MethodDelete {
			return http.StatusNotFound, `{"result":"not_found"}`
		}
		return http.StatusOK, `{}`
	}}
	idx := newTestIndex(t, ft)

	id := uuid.New()
	require.NoError(t, idx.DeleteProduct(context.Background(), id))
	assert.Equal(t, "/products/_doc/"+id.String(), ft.last().Path)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ft := &fakeTransport{respond: func(r *http.Request) (int, string) {
		if strings.HasSuffix(r.URL.Path, "/_search") {
			return http.StatusOK, `{"hits":{"total":{"value":7},"hits":[{"_source":{"id":"` + id.String() + `","name":"Boxing Glove","price":"49.50"}}]}}`
		}
		return http.StatusOK, `{}`
	}}
	idx := newTestIndex(t, ft)

	total, prods, err := idx.Search(context.Background(), "glove", 8, 8)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, prods, 1)
	assert.Equal(t, id, prods[0].ID)
	assert.Equal(t, "Boxing Glove", prods[0].Name)
	assert.True(t, decimal.RequireFromString("49.50").Equal(prods[0].Price))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(ft.last().Body), &body))
	assert.EqualValues(t, 8, body["from"])
	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "glove", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestSearch_ErrorStatus(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: func(r *http.Request) (int, string) {
		if strings.HasSuffix(r.URL.Path, "/_search") {
			return http.StatusInternalServerError, `{"error":"boom"}`
		}
		return http.StatusOK, `{}`
	}}
	idx := newTestIndex(t, ft)

	_, _, err := idx.Search(context.Background(), "glove", 0, 8)
	assert.Error(t, err)
}
