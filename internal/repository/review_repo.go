package repository

import (
	"context"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

// ReviewFilter shapes the review list query. Ordering must already be
// resolved to a safe ORDER BY expression by the caller.
type ReviewFilter struct {
	BusinessUserID *uint
	ReviewerID     *uint
	Ordering       string
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]model.Review, error)
	ExistsForPair(ctx context.Context, reviewerID, businessUserID uint) (bool, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	AverageRating(ctx context.Context) (float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&review).Error; err != nil {
		return nil, err
	}

	return &review, nil
}

func (r *reviewRepository) List(ctx context.Context, filter ReviewFilter) ([]model.Review, error) {
	q := r.db.WithContext(ctx).Model(&model.Review{})

	if filter.BusinessUserID != nil {
		q = q.Where("business_user_id = ?", *filter.BusinessUserID)
	}
	if filter.ReviewerID != nil {
		q = q.Where("reviewer_id = ?", *filter.ReviewerID)
	}

	ordering := filter.Ordering
	if ordering == "" {
		ordering = "updated_at DESC"
	}

	var reviews []model.Review
	if err := q.Order(ordering).Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepository) ExistsForPair(ctx context.Context, reviewerID, businessUserID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("reviewer_id = ? AND business_user_id = ?", reviewerID, businessUserID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Review{}, "id = ?", id).Error
}

func (r *reviewRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// AverageRating returns the mean rating across all reviews, 0 when there are
// none.
func (r *reviewRepository) AverageRating(ctx context.Context) (float64, error) {
	var avg *float64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("AVG(rating)").
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
