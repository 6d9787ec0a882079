package service

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrderServiceForTest(db *gorm.DB) OrderService {
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewOfferRepository(db),
		repository.NewUserRepository(db),
		testEvaluator(),
	)
}

func TestCreateOrderSnapshotsDetail(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	detail := offer.Details[1]
	order, err := svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: detail.ID})
	require.NoError(t, err)

	assert.Equal(t, customer.ID, order.CustomerUserID)
	assert.Equal(t, business.ID, order.BusinessUserID)
	assert.Equal(t, detail.Title, order.Title)
	assert.Equal(t, detail.Revisions, order.Revisions)
	assert.Equal(t, detail.DeliveryTimeInDays, order.DeliveryTimeInDays)
	assert.Equal(t, detail.Price, order.Price)
	assert.Equal(t, detail.Features, order.Features)
	assert.Equal(t, detail.OfferType, order.OfferType)
	assert.Equal(t, model.StatusInProgress, order.Status)
}

func TestOrderSnapshotSurvivesDetailEdit(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	offer := createTestOffer(t, db, business)
	orderSvc := newOrderServiceForTest(db)
	offerSvc := newOfferServiceForTest(db)

	detail := offer.Details[0]
	order, err := orderSvc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: detail.ID})
	require.NoError(t, err)

	newPrice := 999.0
	_, err = offerSvc.Update(context.Background(), actorFor(business), offer.ID, UpdateOfferInput{
		Details: &[]OfferDetailPatch{{OfferType: detail.OfferType, Price: &newPrice}},
	}, nil)
	require.NoError(t, err)

	var reloaded model.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, detail.Price, reloaded.Price)
}

func TestCreateOrderRejectsSelfOrder(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	// An account that carries both roles still cannot order its own offer.
	business.Type = model.TypeCustomer
	require.NoError(t, db.Save(business).Error)

	_, err := svc.Create(context.Background(), actorFor(business), CreateOrderInput{OfferDetailID: offer.Details[0].ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCreateOrderRequiresCustomerRole(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	other := createTestUser(t, db, "agency", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	_, err := svc.Create(context.Background(), actorFor(other), CreateOrderInput{OfferDetailID: offer.Details[0].ID})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCreateOrderUnknownDetail(t *testing.T) {
	db := newTestDB(t)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	svc := newOrderServiceForTest(db)

	_, err := svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: 999})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	order, err := svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: offer.Details[0].ID})
	require.NoError(t, err)

	t.Run("customer cannot change status", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), actorFor(customer), order.ID, UpdateOrderStatusInput{Status: model.StatusCompleted})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("other business cannot change status", func(t *testing.T) {
		rival := createTestUser(t, db, "rival", model.TypeBusiness)
		_, err := svc.UpdateStatus(context.Background(), actorFor(rival), order.ID, UpdateOrderStatusInput{Status: model.StatusCompleted})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), actorFor(business), order.ID, UpdateOrderStatusInput{Status: "done"})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("assigned business completes order", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), actorFor(business), order.ID, UpdateOrderStatusInput{Status: model.StatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, updated.Status)

		var reloaded model.Order
		require.NoError(t, db.First(&reloaded, order.ID).Error)
		assert.Equal(t, model.StatusCompleted, reloaded.Status)
		// The snapshot is untouched by the status change.
		assert.Equal(t, order.Price, reloaded.Price)
	})
}

func TestDeleteOrderStaffOnly(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	order, err := svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: offer.Details[0].ID})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), actorFor(business), order.ID), apperror.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), actorFor(customer), order.ID), apperror.ErrForbidden)

	staff := createTestUser(t, db, "admin", model.TypeCustomer)
	staff.IsStaff = true
	require.NoError(t, db.Save(staff).Error)

	require.NoError(t, svc.Delete(context.Background(), actorFor(staff), order.ID))

	var count int64
	require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListOrdersReturnsBothSides(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	bystander := createTestUser(t, db, "nobody", model.TypeCustomer)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	_, err := svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: offer.Details[0].ID})
	require.NoError(t, err)

	forCustomer, err := svc.List(context.Background(), actorFor(customer))
	require.NoError(t, err)
	assert.Len(t, forCustomer, 1)

	forBusiness, err := svc.List(context.Background(), actorFor(business))
	require.NoError(t, err)
	assert.Len(t, forBusiness, 1)

	forBystander, err := svc.List(context.Background(), actorFor(bystander))
	require.NoError(t, err)
	assert.Empty(t, forBystander)

	_, err = svc.List(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestOrderCounts(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	offer := createTestOffer(t, db, business)
	svc := newOrderServiceForTest(db)

	first, err := svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: offer.Details[0].ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), actorFor(customer), CreateOrderInput{OfferDetailID: offer.Details[1].ID})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), actorFor(business), first.ID, UpdateOrderStatusInput{Status: model.StatusCompleted})
	require.NoError(t, err)

	inProgress, err := svc.InProgressCount(context.Background(), actorFor(customer), business.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inProgress.OrderCount)

	completed, err := svc.CompletedCount(context.Background(), actorFor(customer), business.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed.CompletedOrderCount)

	t.Run("customer target is not found", func(t *testing.T) {
		_, err := svc.InProgressCount(context.Background(), actorFor(business), customer.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("missing target is not found", func(t *testing.T) {
		_, err := svc.CompletedCount(context.Background(), actorFor(business), 999)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}
