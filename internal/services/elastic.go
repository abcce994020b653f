package services

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/models"
)

// ElasticMenuIndex keeps menu items searchable in Elasticsearch.
type ElasticMenuIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticMenuIndex(client *elasticsearch.Client, index string) *ElasticMenuIndex {
	return &ElasticMenuIndex{client: client, index: index}
}

type menuDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SKU         string   `json:"sku"`
	Size        string   `json:"size"`
	Price       string   `json:"price"`
	Categories  []string `json:"categories"`
}

func toDocument(item *models.Item) menuDocument {
	doc := menuDocument{
		ID:          item.ID.String(),
		Name:        item.Name,
		Description: item.Description,
		SKU:         item.SKU,
		Size:        string(item.Size),
		Price:       item.Price.StringFixed(2),
	}
	for _, c := range item.Categories {
		doc.Categories = append(doc.Categories, c.Name)
	}
	return doc
}

func (e *ElasticMenuIndex) IndexItem(ctx context.Context, item *models.Item) error {
	data, err := json.Marshal(toDocument(item))
	if err != nil {
		return errors.Wrap(err, "failed to encode menu document")
	}
	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: item.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "failed to index item")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("elasticsearch rejected item %s: %s", item.ID, res.String())
	}
	log.Debug().Str("item_id", item.ID.String()).Msg("Item indexed")
	return nil
}

func (e *ElasticMenuIndex) RemoveItem(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{Index: e.index, DocumentID: id.String(), Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "failed to remove item from index")
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("elasticsearch refused to delete item %s: %s", id, res.String())
	}
	return nil
}

// Search returns the ids of matching items, best match first.
func (e *ElasticMenuIndex) Search(ctx context.Context, query string) ([]uuid.UUID, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^3", "description", "categories^2", "sku"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, errors.Wrap(err, "failed to encode search query")
	}

	req := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch search error: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID string `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if id, err := uuid.Parse(hit.Source.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
