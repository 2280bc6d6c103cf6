package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// Document is the searchable projection of a product.
type Document struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Discipline   string          `json:"discipline"`
	Category     string          `json:"category"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	Rating       decimal.Decimal `json:"rating"`
	NumReviews   int             `json:"num_reviews"`
	CountInStock int             `json:"count_in_stock"`
	CreatedAt    time.Time       `json:"created_at"`
}

func DocumentFrom(p *models.Product) Document {
	return Document{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Discipline:   p.Discipline,
		Category:     p.Category,
		Image:        p.Image,
		Price:        p.Price,
		Rating:       p.Rating,
		NumReviews:   p.NumReviews,
		CountInStock: p.CountInStock,
		CreatedAt:    p.CreatedAt,
	}
}

func (d Document) Product() models.Product {
	return models.Product{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Discipline:   d.Discipline,
		Category:     d.Category,
		Image:        d.Image,
		Price:        d.Price,
		Rating:       d.Rating,
		NumReviews:   d.NumReviews,
		CountInStock: d.CountInStock,
		CreatedAt:    d.CreatedAt,
	}
}

type Index struct {
	es    *elasticsearch.Client
	index string
}

func New(es *elasticsearch.Client, index string) *Index {
	return &Index{es: es, index: index}
}

func (i *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(DocumentFrom(p))
	if err != nil {
		return fmt.Errorf("elasticsearch: encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("elasticsearch: index %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: index %s: %s", p.ID, res.Status())
	}
	return nil
}

// DeleteProduct removes the document; a missing document is not an error.
func (i *Index) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: id.String(),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: delete %s: %s", id, res.Status())
	}
	return nil
}

func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("elasticsearch: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: decode response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		prods[n] = hit.Source.Product()
	}
	return r.Hits.Total.Value, prods, nil
}
