package repository

import (
	"context"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

// OfferFilter shapes the offer list query. Ordering must already be resolved
// to a safe ORDER BY expression by the caller.
type OfferFilter struct {
	CreatorID       *uint
	MinPrice        *float64
	MaxDeliveryTime *int
	Search          string
	IDs             []uint
	Ordering        string
	Page            int
	PageSize        int
}

// OfferWithStats is an offer row annotated with the aggregates the list
// response exposes.
type OfferWithStats struct {
	model.Offer
	MinPrice        float64 `json:"min_price"`
	MinDeliveryTime int     `json:"min_delivery_time"`
}

type OfferRepository interface {
	CreateWithDetails(ctx context.Context, offer *model.Offer, details []model.OfferDetail) error
	FindByID(ctx context.Context, id uint) (*model.Offer, error)
	FindDetailByID(ctx context.Context, id uint) (*model.OfferDetail, error)
	List(ctx context.Context, filter OfferFilter) ([]OfferWithStats, int64, error)
	Update(ctx context.Context, offer *model.Offer, details []*model.OfferDetail) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

// CreateWithDetails persists the offer row and all of its detail rows as a
// single atomic unit; a failure on any row rolls back the whole offer.
func (r *offerRepository) CreateWithDetails(ctx context.Context, offer *model.Offer, details []model.OfferDetail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(offer).Error; err != nil {
			return err
		}

		for i := range details {
			details[i].OfferID = offer.ID
		}
		if err := tx.Create(&details).Error; err != nil {
			return err
		}

		offer.Details = details
		return nil
	})
}

func (r *offerRepository) FindByID(ctx context.Context, id uint) (*model.Offer, error) {
	var offer model.Offer
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Preload("Owner").
		Where("id = ?", id).
		First(&offer).Error; err != nil {
		return nil, err
	}

	return &offer, nil
}

func (r *offerRepository) FindDetailByID(ctx context.Context, id uint) (*model.OfferDetail, error) {
	var detail model.OfferDetail
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&detail).Error; err != nil {
		return nil, err
	}

	return &detail, nil
}

func (r *offerRepository) List(ctx context.Context, filter OfferFilter) ([]OfferWithStats, int64, error) {
	base := r.db.WithContext(ctx).Table("offers")
	base = applyOfferFilter(base, filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base.Session(&gorm.Session{}).
		Select(`offers.*,
			(SELECT MIN(d.price) FROM offer_details d WHERE d.offer_id = offers.id) AS min_price,
			(SELECT MIN(d.delivery_time_in_days) FROM offer_details d WHERE d.offer_id = offers.id) AS min_delivery_time`)

	if filter.Ordering != "" {
		q = q.Order(filter.Ordering)
	}
	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		q = q.Limit(filter.PageSize).Offset(offset)
	}

	var rows []OfferWithStats
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	if err := r.attachDetails(ctx, rows); err != nil {
		return nil, 0, err
	}
	if err := r.attachOwners(ctx, rows); err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func applyOfferFilter(q *gorm.DB, filter OfferFilter) *gorm.DB {
	if filter.CreatorID != nil {
		q = q.Where("offers.owner_id = ?", *filter.CreatorID)
	}
	if filter.MinPrice != nil {
		q = q.Where(
			"EXISTS (SELECT 1 FROM offer_details d WHERE d.offer_id = offers.id AND d.price >= ?)",
			*filter.MinPrice,
		)
	}
	if filter.MaxDeliveryTime != nil {
		q = q.Where(
			"EXISTS (SELECT 1 FROM offer_details d WHERE d.offer_id = offers.id AND d.delivery_time_in_days <= ?)",
			*filter.MaxDeliveryTime,
		)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("offers.title LIKE ? OR offers.description LIKE ?", pattern, pattern)
	}
	if filter.IDs != nil {
		q = q.Where("offers.id IN ?", filter.IDs)
	}
	return q
}

func (r *offerRepository) attachDetails(ctx context.Context, rows []OfferWithStats) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var details []model.OfferDetail
	if err := r.db.WithContext(ctx).
		Where("offer_id IN ?", ids).
		Order("offer_id, id").
		Find(&details).Error; err != nil {
		return err
	}

	byOffer := make(map[uint][]model.OfferDetail, len(rows))
	for _, d := range details {
		byOffer[d.OfferID] = append(byOffer[d.OfferID], d)
	}
	for i := range rows {
		rows[i].Details = byOffer[rows[i].ID]
	}

	return nil
}

func (r *offerRepository) attachOwners(ctx context.Context, rows []OfferWithStats) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.OwnerID)
	}

	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return err
	}

	byID := make(map[uint]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range rows {
		rows[i].Owner = byID[rows[i].OwnerID]
	}

	return nil
}

// Update saves the offer row and any patched detail rows atomically, so a
// partially applied patch is never observable.
func (r *offerRepository) Update(ctx context.Context, offer *model.Offer, details []*model.OfferDetail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Details", "Owner").Save(offer).Error; err != nil {
			return err
		}

		for _, detail := range details {
			if err := tx.Save(detail).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *offerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", id).Delete(&model.OfferDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Offer{}, "id = ?", id).Error
	})
}

func (r *offerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Offer{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
