package service

import (
	"context"

	"marketplace/internal/model"
	"marketplace/internal/permission"
	"marketplace/internal/repository"
	"marketplace/pkg/apperror"
)

type CreateOrderInput struct {
	OfferDetailID uint `json:"offer_detail_id" binding:"required"`
}

// UpdateOrderStatusInput is decoded strictly at the transport layer; any key
// other than status rejects the whole request.
type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

type OrderCountResponse struct {
	OrderCount int64 `json:"order_count"`
}

type CompletedOrderCountResponse struct {
	CompletedOrderCount int64 `json:"completed_order_count"`
}

type OrderService interface {
	List(ctx context.Context, actor *permission.Actor) ([]model.Order, error)
	Create(ctx context.Context, actor *permission.Actor, input CreateOrderInput) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor *permission.Actor, id uint, input UpdateOrderStatusInput) (*model.Order, error)
	Delete(ctx context.Context, actor *permission.Actor, id uint) error
	InProgressCount(ctx context.Context, actor *permission.Actor, businessUserID uint) (*OrderCountResponse, error)
	CompletedCount(ctx context.Context, actor *permission.Actor, businessUserID uint) (*CompletedOrderCountResponse, error)
}

type orderService struct {
	repo      repository.OrderRepository
	offerRepo repository.OfferRepository
	userRepo  repository.UserRepository
	gates     *permission.Evaluator
}

func NewOrderService(repo repository.OrderRepository, offerRepo repository.OfferRepository, userRepo repository.UserRepository, gates *permission.Evaluator) OrderService {
	return &orderService{
		repo:      repo,
		offerRepo: offerRepo,
		userRepo:  userRepo,
		gates:     gates,
	}
}

func (s *orderService) List(ctx context.Context, actor *permission.Actor) ([]model.Order, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	return s.repo.ListForUser(ctx, actor.ID)
}

// Create places an order against one offer detail. The detail's commercial
// fields are copied onto the order row at this moment; later edits to the
// detail never reach existing orders.
func (s *orderService) Create(ctx context.Context, actor *permission.Actor, input CreateOrderInput) (*model.Order, error) {
	if err := s.gates.RequireCustomer(actor); err != nil {
		return nil, err
	}

	detail, err := s.offerRepo.FindDetailByID(ctx, input.OfferDetailID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("offer detail not found")
		}
		return nil, err
	}

	offer, err := s.offerRepo.FindByID(ctx, detail.OfferID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("offer not found")
		}
		return nil, err
	}

	if offer.OwnerID == actor.ID {
		return nil, apperror.Validation("offer_detail_id", "you cannot order your own offer")
	}

	detailID := detail.ID
	order := &model.Order{
		CustomerUserID:     actor.ID,
		BusinessUserID:     offer.OwnerID,
		OfferDetailID:      &detailID,
		Title:              detail.Title,
		Revisions:          detail.Revisions,
		DeliveryTimeInDays: detail.DeliveryTimeInDays,
		Price:              detail.Price,
		Features:           detail.Features,
		OfferType:          detail.OfferType,
		Status:             model.StatusInProgress,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, actor *permission.Actor, id uint, input UpdateOrderStatusInput) (*model.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.gates.RequireOrderBusiness(actor, order); err != nil {
		return nil, err
	}

	if !model.ValidOrderStatus(input.Status) {
		return nil, apperror.Validationf("status", "invalid status: %q", input.Status)
	}

	if err := s.repo.UpdateStatus(ctx, order, input.Status); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) Delete(ctx context.Context, actor *permission.Actor, id uint) error {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return err
	}

	if err := s.gates.RequireStaff(actor); err != nil {
		return err
	}

	return s.repo.Delete(ctx, order.ID)
}

func (s *orderService) InProgressCount(ctx context.Context, actor *permission.Actor, businessUserID uint) (*OrderCountResponse, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if err := s.requireBusinessUser(ctx, businessUserID); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByBusinessAndStatus(ctx, businessUserID, model.StatusInProgress)
	if err != nil {
		return nil, err
	}

	return &OrderCountResponse{OrderCount: count}, nil
}

func (s *orderService) CompletedCount(ctx context.Context, actor *permission.Actor, businessUserID uint) (*CompletedOrderCountResponse, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if err := s.requireBusinessUser(ctx, businessUserID); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByBusinessAndStatus(ctx, businessUserID, model.StatusCompleted)
	if err != nil {
		return nil, err
	}

	return &CompletedOrderCountResponse{CompletedOrderCount: count}, nil
}

// requireBusinessUser resolves the target user and checks their role, falling
// back to the profile's type when the account itself carries none.
func (s *orderService) requireBusinessUser(ctx context.Context, userID uint) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("business user not found")
		}
		return err
	}

	var profileType any
	if user.Profile != nil {
		profileType = user.Profile.Type
	}
	if permission.RoleOf(user.Type, profileType) != permission.RoleBusiness {
		return apperror.NotFound("business user not found")
	}

	return nil
}

func (s *orderService) findOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("order not found")
		}
		return nil, err
	}
	return order, nil
}
