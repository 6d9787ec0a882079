package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/permission"
	"marketplace/internal/repository"
	"marketplace/pkg/apperror"
	"marketplace/pkg/storage"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
)

type OfferDetailInput struct {
	Title              string   `json:"title" binding:"required,max=255"`
	Revisions          int      `json:"revisions" binding:"gte=0"`
	DeliveryTimeInDays int      `json:"delivery_time_in_days" binding:"required,gte=1"`
	Price              float64  `json:"price" binding:"gte=0"`
	Features           []string `json:"features"`
	OfferType          string   `json:"offer_type" binding:"required"`
}

type CreateOfferInput struct {
	Title       string             `json:"title" form:"title" binding:"required,max=255"`
	Description string             `json:"description" form:"description"`
	Details     []OfferDetailInput `json:"details" binding:"required,dive"`
}

// OfferDetailPatch is one item of an update's details list. The detail it
// addresses is identified by offer_type; only the present fields change.
type OfferDetailPatch struct {
	OfferType          string    `json:"offer_type" binding:"required"`
	Title              *string   `json:"title"`
	Revisions          *int      `json:"revisions"`
	DeliveryTimeInDays *int      `json:"delivery_time_in_days"`
	Price              *float64  `json:"price"`
	Features           *[]string `json:"features"`
}

type UpdateOfferInput struct {
	Title       *string             `json:"title" form:"title"`
	Description *string             `json:"description" form:"description"`
	Details     *[]OfferDetailPatch `json:"details"`
}

type OfferListParams struct {
	CreatorID       *uint
	MinPrice        *float64
	MaxDeliveryTime *int
	Search          string
	Ordering        string
	Page            int
	PageSize        int
}

// OfferDetailLink is the lightweight detail reference used in offer lists.
type OfferDetailLink struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

type OfferUserDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type OfferResponse struct {
	ID              uint              `json:"id"`
	User            uint              `json:"user"`
	Title           string            `json:"title"`
	Image           string            `json:"image"`
	Description     string            `json:"description"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Details         []OfferDetailLink `json:"details"`
	MinPrice        float64           `json:"min_price"`
	MinDeliveryTime int               `json:"min_delivery_time"`
	UserDetails     *OfferUserDetails `json:"user_details,omitempty"`
}

type OfferPage struct {
	Count   int64           `json:"count"`
	Results []OfferResponse `json:"results"`
}

// OfferUpdateResponse carries the full detail rows after a patch.
type OfferUpdateResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Image       string              `json:"image"`
	Description string              `json:"description"`
	Details     []model.OfferDetail `json:"details"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100

	offerCreateAction = "create_offer"
)

var offerOrderings = map[string]string{
	"updated_at":  "offers.updated_at",
	"-updated_at": "offers.updated_at DESC",
	"min_price":   "min_price",
	"-min_price":  "min_price DESC",
}

type OfferService interface {
	Create(ctx context.Context, actor *permission.Actor, input CreateOfferInput, image *UploadFile) (*model.Offer, error)
	List(ctx context.Context, params OfferListParams) (*OfferPage, error)
	Get(ctx context.Context, actor *permission.Actor, id uint) (*OfferResponse, error)
	GetDetail(ctx context.Context, actor *permission.Actor, id uint) (*model.OfferDetail, error)
	Update(ctx context.Context, actor *permission.Actor, id uint, input UpdateOfferInput, image *UploadFile) (*OfferUpdateResponse, error)
	Delete(ctx context.Context, actor *permission.Actor, id uint) error
}

type offerService struct {
	repo        repository.OfferRepository
	fileStorage storage.FileStorage
	search      SearchService
	gates       *permission.Evaluator
	sanitizer   *bluemonday.Policy
	rdb         *redis.Client
	createLimit time.Duration
}

func NewOfferService(repo repository.OfferRepository, fileStorage storage.FileStorage, search SearchService, gates *permission.Evaluator, rdb *redis.Client, createLimit time.Duration) OfferService {
	return &offerService{
		repo:        repo,
		fileStorage: fileStorage,
		search:      search,
		gates:       gates,
		sanitizer:   bluemonday.StrictPolicy(),
		rdb:         rdb,
		createLimit: createLimit,
	}
}

func (s *offerService) Create(ctx context.Context, actor *permission.Actor, input CreateOfferInput, image *UploadFile) (*model.Offer, error) {
	if err := s.gates.RequireBusiness(actor); err != nil {
		return nil, err
	}

	details, err := validateOfferDetails(input.Details)
	if err != nil {
		return nil, err
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.rdb, actor.ID, offerCreateAction, s.createLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.Validation("detail", "you are creating offers too quickly")
	}

	var imageURL string
	if image != nil && image.Reader != nil && s.fileStorage != nil {
		url, err := s.fileStorage.UploadFile(ctx, image.Reader, "offers", image.FileName)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	offer := &model.Offer{
		OwnerID:     actor.ID,
		Title:       input.Title,
		Image:       imageURL,
		Description: s.sanitizer.Sanitize(input.Description),
	}

	if err := s.repo.CreateWithDetails(ctx, offer, details); err != nil {
		if clearErr := ClearRateLimit(ctx, s.rdb, actor.ID, offerCreateAction); clearErr != nil {
			log.Printf("failed to clear offer create rate limit: %v", clearErr)
		}
		return nil, err
	}

	if err := s.search.IndexOffer(offer); err != nil {
		log.Printf("failed to index offer %d: %v", offer.ID, err)
	}

	return offer, nil
}

// validateOfferDetails enforces the exactly-3-tiers rule before any
// persistence attempt: one detail per distinct valid tier, every detail
// within bounds.
func validateOfferDetails(inputs []OfferDetailInput) ([]model.OfferDetail, error) {
	if len(inputs) != 3 {
		return nil, apperror.Validation("details", "an offer must contain exactly 3 details")
	}

	seen := make(map[string]bool, 3)
	details := make([]model.OfferDetail, 0, 3)
	for _, in := range inputs {
		if !model.ValidOfferType(in.OfferType) {
			return nil, apperror.Validationf("details", "invalid offer_type: %q", in.OfferType)
		}
		if seen[in.OfferType] {
			return nil, apperror.Validation("details", "each detail must have a unique offer_type")
		}
		seen[in.OfferType] = true

		if err := validateDetailFields(in.Title, in.Revisions, in.DeliveryTimeInDays, in.Price, in.Features); err != nil {
			return nil, err
		}

		details = append(details, model.OfferDetail{
			Title:              in.Title,
			Revisions:          in.Revisions,
			DeliveryTimeInDays: in.DeliveryTimeInDays,
			Price:              in.Price,
			Features:           in.Features,
			OfferType:          in.OfferType,
		})
	}

	return details, nil
}

func validateDetailFields(title string, revisions, deliveryTime int, price float64, features []string) error {
	if strings.TrimSpace(title) == "" {
		return apperror.Validation("title", "must not be empty")
	}
	if revisions < 0 {
		return apperror.Validation("revisions", "must be zero or positive")
	}
	if deliveryTime < 1 {
		return apperror.Validation("delivery_time_in_days", "must be at least 1")
	}
	if price < 0 {
		return apperror.Validation("price", "must be zero or positive")
	}
	return validateFeatures(features)
}

func validateFeatures(features []string) error {
	for _, f := range features {
		if strings.TrimSpace(f) == "" {
			return apperror.Validation("features", "each feature must be a non-empty string")
		}
	}
	return nil
}

func (s *offerService) List(ctx context.Context, params OfferListParams) (*OfferPage, error) {
	filter := repository.OfferFilter{
		CreatorID:       params.CreatorID,
		MinPrice:        params.MinPrice,
		MaxDeliveryTime: params.MaxDeliveryTime,
		PageSize:        params.PageSize,
		Page:            params.Page,
	}

	ordering, err := resolveOrdering(params.Ordering, offerOrderings, "offers.updated_at DESC")
	if err != nil {
		return nil, err
	}
	filter.Ordering = ordering

	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	if params.Search != "" {
		if s.search.Enabled() {
			ids, err := s.search.SearchOffers(params.Search)
			if err != nil {
				return nil, err
			}
			if ids == nil {
				ids = []uint{}
			}
			filter.IDs = ids
		} else {
			filter.Search = params.Search
		}
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	results := make([]OfferResponse, 0, len(rows))
	for i := range rows {
		resp := buildOfferResponse(&rows[i].Offer, rows[i].MinPrice, rows[i].MinDeliveryTime)
		if rows[i].Owner != nil {
			resp.UserDetails = &OfferUserDetails{
				FirstName: rows[i].Owner.FirstName,
				LastName:  rows[i].Owner.LastName,
				Username:  rows[i].Owner.Username,
			}
		}
		results = append(results, *resp)
	}

	return &OfferPage{Count: total, Results: results}, nil
}

func (s *offerService) Get(ctx context.Context, actor *permission.Actor, id uint) (*OfferResponse, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	offer, err := s.findOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	minPrice, minDelivery := detailAggregates(offer.Details)
	return buildOfferResponse(offer, minPrice, minDelivery), nil
}

func (s *offerService) GetDetail(ctx context.Context, actor *permission.Actor, id uint) (*model.OfferDetail, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("offer detail not found")
		}
		return nil, err
	}

	return detail, nil
}

func (s *offerService) Update(ctx context.Context, actor *permission.Actor, id uint, input UpdateOfferInput, image *UploadFile) (*OfferUpdateResponse, error) {
	offer, err := s.findOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.gates.RequireOwner(actor, offer); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperror.Validation("title", "must not be empty")
		}
		offer.Title = *input.Title
	}
	if input.Description != nil {
		offer.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if image != nil && image.Reader != nil && s.fileStorage != nil {
		url, err := s.fileStorage.UploadFile(ctx, image.Reader, "offers", image.FileName)
		if err != nil {
			return nil, err
		}
		offer.Image = url
	}

	var patched []*model.OfferDetail
	if input.Details != nil {
		patched, err = applyDetailPatches(offer, *input.Details)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, offer, patched); err != nil {
		return nil, err
	}

	if err := s.search.IndexOffer(offer); err != nil {
		log.Printf("failed to reindex offer %d: %v", offer.ID, err)
	}

	return &OfferUpdateResponse{
		ID:          offer.ID,
		Title:       offer.Title,
		Image:       offer.Image,
		Description: offer.Description,
		Details:     offer.Details,
	}, nil
}

// applyDetailPatches resolves each patch item against the offer's existing
// details by tier. A tier with no existing detail is a validation error;
// tiers are never created through an update.
func applyDetailPatches(offer *model.Offer, patches []OfferDetailPatch) ([]*model.OfferDetail, error) {
	existing := make(map[string]*model.OfferDetail, len(offer.Details))
	for i := range offer.Details {
		existing[offer.Details[i].OfferType] = &offer.Details[i]
	}

	var patched []*model.OfferDetail
	for _, patch := range patches {
		detail, ok := existing[patch.OfferType]
		if !ok {
			return nil, apperror.Validationf("details", "no existing detail with offer_type=%q", patch.OfferType)
		}

		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				return nil, apperror.Validation("title", "must not be empty")
			}
			detail.Title = *patch.Title
		}
		if patch.Revisions != nil {
			if *patch.Revisions < 0 {
				return nil, apperror.Validation("revisions", "must be zero or positive")
			}
			detail.Revisions = *patch.Revisions
		}
		if patch.DeliveryTimeInDays != nil {
			if *patch.DeliveryTimeInDays < 1 {
				return nil, apperror.Validation("delivery_time_in_days", "must be at least 1")
			}
			detail.DeliveryTimeInDays = *patch.DeliveryTimeInDays
		}
		if patch.Price != nil {
			if *patch.Price < 0 {
				return nil, apperror.Validation("price", "must be zero or positive")
			}
			detail.Price = *patch.Price
		}
		if patch.Features != nil {
			if err := validateFeatures(*patch.Features); err != nil {
				return nil, err
			}
			detail.Features = *patch.Features
		}

		patched = append(patched, detail)
	}

	return patched, nil
}

func (s *offerService) Delete(ctx context.Context, actor *permission.Actor, id uint) error {
	offer, err := s.findOffer(ctx, id)
	if err != nil {
		return err
	}

	if err := s.gates.RequireOwner(actor, offer); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.search.DeleteOffer(id); err != nil {
		log.Printf("failed to remove offer %d from search index: %v", id, err)
	}

	return nil
}

func (s *offerService) findOffer(ctx context.Context, id uint) (*model.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("offer not found")
		}
		return nil, err
	}
	return offer, nil
}

func buildOfferResponse(offer *model.Offer, minPrice float64, minDelivery int) *OfferResponse {
	links := make([]OfferDetailLink, 0, len(offer.Details))
	for _, d := range offer.Details {
		links = append(links, OfferDetailLink{
			ID:  d.ID,
			URL: fmt.Sprintf("/api/offerdetails/%d/", d.ID),
		})
	}

	return &OfferResponse{
		ID:              offer.ID,
		User:            offer.OwnerID,
		Title:           offer.Title,
		Image:           offer.Image,
		Description:     offer.Description,
		CreatedAt:       offer.CreatedAt,
		UpdatedAt:       offer.UpdatedAt,
		Details:         links,
		MinPrice:        minPrice,
		MinDeliveryTime: minDelivery,
	}
}

func detailAggregates(details []model.OfferDetail) (float64, int) {
	if len(details) == 0 {
		return 0, 0
	}
	minPrice := details[0].Price
	minDelivery := details[0].DeliveryTimeInDays
	for _, d := range details[1:] {
		if d.Price < minPrice {
			minPrice = d.Price
		}
		if d.DeliveryTimeInDays < minDelivery {
			minDelivery = d.DeliveryTimeInDays
		}
	}
	return minPrice, minDelivery
}

// resolveOrdering maps a requested ordering key to a safe ORDER BY
// expression; keys outside the allow-list are rejected.
func resolveOrdering(requested string, allowed map[string]string, fallback string) (string, error) {
	if requested == "" {
		return fallback, nil
	}
	expr, ok := allowed[requested]
	if !ok {
		return "", apperror.Validationf("ordering", "unsupported ordering: %q", requested)
	}
	return expr, nil
}
