package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

func fakeCluster(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*ProductIndex, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	return NewProductIndex(es, "products"), &reqs
}

func TestIndexProduct(t *testing.T) {
	t.Parallel()

	idx, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	p := &models.Product{Name: "Linen Shirt", Slug: "linen-shirt", Price: decimal.RequireFromString("49.9")}
	p.ID = uuid.New()

	require.NoError(t, idx.IndexProduct(context.Background(), p))
	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, "/products/_doc/"+p.ID.String(), got.Path)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(got.Body), &doc))
	assert.Equal(t, "Linen Shirt", doc.Name)
	assert.Equal(t, "49.90", doc.Price)
}

func TestDeleteMissingProductIsNotAnError(t *testing.T) {
	t.Parallel()

	idx, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	assert.NoError(t, idx.DeleteProduct(context.Background(), uuid.New()))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	idx, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":7},"hits":[
			{"_source":{"id":"` + a.String() + `"}},
			{"_source":{"id":"not-a-uuid"}},
			{"_source":{"id":"` + b.String() + `"}}
		]}}`))
	})

	total, ids, err := idx.Search(context.Background(), "shirt", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	require.Len(t, *reqs, 1)
	assert.True(t, strings.HasSuffix((*reqs)[0].Path, "/products/_search"))
	assert.Contains(t, (*reqs)[0].Body, `"multi_match"`)
	assert.Contains(t, (*reqs)[0].Body, `"name^2"`)
}

func TestSearchClusterError(t *testing.T) {
	t.Parallel()

	idx, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	_, _, err := idx.Search(context.Background(), "shirt", 0, 20)
	assert.ErrorContains(t, err, "elasticsearch")
}
