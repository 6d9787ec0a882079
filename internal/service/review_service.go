package service

import (
	"context"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/permission"
	"marketplace/internal/repository"
	"marketplace/pkg/apperror"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
)

type CreateReviewInput struct {
	BusinessUser uint   `json:"business_user" binding:"required"`
	Rating       int    `json:"rating" binding:"required,gte=1,lte=5"`
	Description  string `json:"description"`
}

// UpdateReviewInput is decoded strictly at the transport layer; only rating
// and description are patchable, and at least one must be present.
type UpdateReviewInput struct {
	Rating      *int    `json:"rating"`
	Description *string `json:"description"`
}

type ReviewListParams struct {
	BusinessUserID *uint
	ReviewerID     *uint
	Ordering       string
}

var reviewOrderings = map[string]string{
	"updated_at":  "updated_at",
	"-updated_at": "updated_at DESC",
	"rating":      "rating",
	"-rating":     "rating DESC",
}

const reviewCreateAction = "create_review"

type ReviewService interface {
	List(ctx context.Context, actor *permission.Actor, params ReviewListParams) ([]model.Review, error)
	Create(ctx context.Context, actor *permission.Actor, input CreateReviewInput) (*model.Review, error)
	Update(ctx context.Context, actor *permission.Actor, id uint, input UpdateReviewInput) (*model.Review, error)
	Delete(ctx context.Context, actor *permission.Actor, id uint) error
}

type reviewService struct {
	repo        repository.ReviewRepository
	userRepo    repository.UserRepository
	gates       *permission.Evaluator
	sanitizer   *bluemonday.Policy
	rdb         *redis.Client
	createLimit time.Duration
}

func NewReviewService(repo repository.ReviewRepository, userRepo repository.UserRepository, gates *permission.Evaluator, rdb *redis.Client, createLimit time.Duration) ReviewService {
	return &reviewService{
		repo:        repo,
		userRepo:    userRepo,
		gates:       gates,
		sanitizer:   bluemonday.StrictPolicy(),
		rdb:         rdb,
		createLimit: createLimit,
	}
}

func (s *reviewService) List(ctx context.Context, actor *permission.Actor, params ReviewListParams) ([]model.Review, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	ordering, err := resolveOrdering(params.Ordering, reviewOrderings, "updated_at DESC")
	if err != nil {
		return nil, err
	}

	return s.repo.List(ctx, repository.ReviewFilter{
		BusinessUserID: params.BusinessUserID,
		ReviewerID:     params.ReviewerID,
		Ordering:       ordering,
	})
}

func (s *reviewService) Create(ctx context.Context, actor *permission.Actor, input CreateReviewInput) (*model.Review, error) {
	if err := s.gates.RequireCustomer(actor); err != nil {
		return nil, err
	}

	if input.BusinessUser == actor.ID {
		return nil, apperror.Validation("business_user", "you cannot review yourself")
	}

	target, err := s.userRepo.FindByID(ctx, input.BusinessUser)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("business user not found")
		}
		return nil, err
	}

	var profileType any
	if target.Profile != nil {
		profileType = target.Profile.Type
	}
	if permission.RoleOf(target.Type, profileType) != permission.RoleBusiness {
		return nil, apperror.NotFound("business user not found")
	}

	exists, err := s.repo.ExistsForPair(ctx, actor.ID, input.BusinessUser)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Validation("business_user", "you have already reviewed this business user")
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.rdb, actor.ID, reviewCreateAction, s.createLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.Validation("detail", "you are posting reviews too quickly")
	}

	review := &model.Review{
		BusinessUserID: input.BusinessUser,
		ReviewerID:     actor.ID,
		Rating:         input.Rating,
		Description:    s.sanitizer.Sanitize(input.Description),
	}

	if err := s.repo.Create(ctx, review); err != nil {
		// The unique pair index catches the race the pre-check cannot.
		if repository.IsDuplicate(err) {
			return nil, apperror.Validation("business_user", "you have already reviewed this business user")
		}
		return nil, err
	}

	return review, nil
}

func (s *reviewService) Update(ctx context.Context, actor *permission.Actor, id uint, input UpdateReviewInput) (*model.Review, error) {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.gates.RequireOwner(actor, review); err != nil {
		return nil, err
	}

	if input.Rating == nil && input.Description == nil {
		return nil, apperror.Validation("detail", "provide rating or description")
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperror.Validation("rating", "must be between 1 and 5")
		}
		review.Rating = *input.Rating
	}
	if input.Description != nil {
		review.Description = s.sanitizer.Sanitize(*input.Description)
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *permission.Actor, id uint) error {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return err
	}

	if err := s.gates.RequireOwner(actor, review); err != nil {
		return err
	}

	return s.repo.Delete(ctx, review.ID)
}

func (s *reviewService) findReview(ctx context.Context, id uint) (*model.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("review not found")
		}
		return nil, err
	}
	return review, nil
}
