// File: internal/listing/esutil/util.go

// Package esutil holds the Elasticsearch document shape and query builders
// for the stylists index. It deliberately has no dependency on the listing
// package so both the service and the reindex command can use it.
package esutil

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StylistDoc is the document shape stored in the stylists index. Field names
// must stay in sync with the index mapping.
type StylistDoc struct {
	ListingID    string     `json:"listing_id"`
	StylistID    string     `json:"stylist_id"`
	BusinessName string     `json:"business_name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Services     []string   `json:"services"`
	City         string     `json:"city"`
	State        string     `json:"state,omitempty"`
	Status       string     `json:"status"`
	IsApproved   bool       `json:"is_approved"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SearchParams are the public search inputs translated into an ES query.
type SearchParams struct {
	Term    string
	City    string
	Service string
	From    int
	Size    int
}

// BuildSearchBody builds the ES query for public stylist search: full text
// over business name and description, keyword filters for city and service,
// always restricted to approved active listings.
func BuildSearchBody(params SearchParams) (string, error) {
	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"status": "active"}},
		{"term": map[string]interface{}{"is_approved": true}},
	}
	// Cities are indexed lowercased, so the keyword filter must match.
	if city := strings.ToLower(strings.TrimSpace(params.City)); city != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"city": city},
		})
	}
	if service := strings.TrimSpace(params.Service); service != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"services": service},
		})
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if term := strings.TrimSpace(params.Term); term != "" {
		boolQuery["must"] = []map[string]interface{}{
			{
				"multi_match": map[string]interface{}{
					"query":     term,
					"fields":    []string{"business_name^2", "description", "services"},
					"fuzziness": "AUTO",
				},
			},
		}
	} else {
		boolQuery["must"] = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}

	body := map[string]interface{}{
		"from":  params.From,
		"size":  params.Size,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"published_at": map[string]interface{}{"order": "desc", "missing": "_last"}},
		},
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshalling stylist search body: %w", err)
	}
	return string(raw), nil
}

// SearchResult is the subset of the ES search response the service needs.
type SearchResult struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source StylistDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ParseSearchResult decodes an ES search response body.
func ParseSearchResult(raw []byte) (*SearchResult, error) {
	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding stylist search response: %w", err)
	}
	return &result, nil
}

// IDs extracts the listing ids from a search result, preserving rank order.
func (r *SearchResult) IDs() []string {
	ids := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ListingID)
	}
	return ids
}
