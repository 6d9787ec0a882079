package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"marketplace/internal/model"

	"github.com/meilisearch/meilisearch-go"
)

const offersIndex = "offers"

// SearchService maintains the offer search index. When no Meilisearch client
// is configured the service is disabled and callers fall back to SQL search.
type SearchService interface {
	Enabled() bool
	IndexOffer(offer *model.Offer) error
	DeleteOffer(id uint) error
	SearchOffers(query string) ([]uint, error)
}

type meiliOfferDoc struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
	UpdatedAt   int64  `json:"updated_at"`
}

type searchService struct {
	client meilisearch.ServiceManager
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{client: client}
	if client != nil {
		s.initIndex()
	}
	return s
}

func (s *searchService) initIndex() {
	sortable := []string{"updated_at"}
	if _, err := s.client.Index(offersIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update offers sortable attributes: %v", err)
	}
}

func (s *searchService) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *searchService) IndexOffer(offer *model.Offer) error {
	if !s.Enabled() {
		return nil
	}

	doc := meiliOfferDoc{
		ID:          offer.ID,
		Title:       offer.Title,
		Description: offer.Description,
		OwnerID:     offer.OwnerID,
		UpdatedAt:   offer.UpdatedAt.Unix(),
	}

	primaryKey := "id"
	_, err := s.client.Index(offersIndex).AddDocuments([]meiliOfferDoc{doc}, &primaryKey)
	if err != nil {
		return fmt.Errorf("failed to index offer %d: %w", offer.ID, err)
	}
	return nil
}

func (s *searchService) DeleteOffer(id uint) error {
	if !s.Enabled() {
		return nil
	}

	_, err := s.client.Index(offersIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

// SearchOffers returns the ids of offers matching the query, best first.
func (s *searchService) SearchOffers(query string) ([]uint, error) {
	if !s.Enabled() {
		return nil, nil
	}

	res, err := s.client.Index(offersIndex).Search(query, &meilisearch.SearchRequest{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("offer search failed: %w", err)
	}

	ids := make([]uint, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc meiliOfferDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		ids = append(ids, doc.ID)
	}

	return ids, nil
}
