// Package search keeps the product index in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type ProductIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
}

func NewProductIndex(es *elasticsearch.Client, index string) *ProductIndex {
	if index == "" {
		index = "products"
	}
	return &ProductIndex{es: es, index: index}
}

// Ping checks that the cluster answers.
func (p *ProductIndex) Ping(ctx context.Context) error {
	res, err := p.es.Info(p.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	return responseError(res)
}

type document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CategoryID  string `json:"category_id"`
	IsFeatured  bool   `json:"is_featured"`
}

func (p *ProductIndex) IndexProduct(ctx context.Context, prod *models.Product) error {
	body, err := json.Marshal(document{
		ID:          prod.ID.String(),
		Name:        prod.Name,
		Slug:        prod.Slug,
		Description: prod.Description,
		Price:       prod.Price.StringFixed(2),
		CategoryID:  prod.CategoryID.String(),
		IsFeatured:  prod.IsFeatured,
	})
	if err != nil {
		return err
	}

	res, err := p.es.Index(p.index, bytes.NewReader(body),
		p.es.Index.WithContext(ctx),
		p.es.Index.WithDocumentID(prod.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	return responseError(res)
}

// DeleteProduct treats a missing document as already deleted.
func (p *ProductIndex) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := p.es.Delete(p.index, id.String(), p.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError(res)
}

// Search runs a fuzzy multi_match over name and description and returns matching ids by score.
func (p *ProductIndex) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := p.es.Search(
		p.es.Search.WithContext(ctx),
		p.es.Search.WithIndex(p.index),
		p.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res); err != nil {
		return 0, nil, err
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := uuid.Parse(h.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return errors.New("elasticsearch: " + res.Status() + ": " + strings.TrimSpace(string(msg)))
}
