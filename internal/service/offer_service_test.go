package service

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/model"
	"marketplace/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOfferWithThreeTiers(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)

	offer := createTestOffer(t, db, business)

	assert.NotZero(t, offer.ID)
	assert.Equal(t, business.ID, offer.OwnerID)
	assert.Len(t, offer.Details, 3)
	for _, d := range offer.Details {
		assert.Equal(t, offer.ID, d.OfferID)
	}
}

func TestCreateOfferRequiresBusinessRole(t *testing.T) {
	db := newTestDB(t)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	svc := newOfferServiceForTest(db)

	_, err := svc.Create(context.Background(), actorFor(customer), CreateOfferInput{
		Title:   "Nope",
		Details: validDetailInputs(),
	}, nil)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCreateOfferTierValidation(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	svc := newOfferServiceForTest(db)

	tests := []struct {
		name    string
		details []OfferDetailInput
	}{
		{name: "two tiers", details: validDetailInputs()[:2]},
		{name: "four tiers", details: append(validDetailInputs(), OfferDetailInput{
			Title: "Extra", DeliveryTimeInDays: 1, OfferType: model.OfferTypeBasic,
		})},
		{name: "duplicate tier", details: []OfferDetailInput{
			validDetailInputs()[0],
			validDetailInputs()[0],
			validDetailInputs()[2],
		}},
		{name: "unknown tier", details: []OfferDetailInput{
			validDetailInputs()[0],
			validDetailInputs()[1],
			{Title: "Deluxe", Revisions: 1, DeliveryTimeInDays: 2, Price: 10, OfferType: "deluxe"},
		}},
		{name: "zero delivery time", details: []OfferDetailInput{
			validDetailInputs()[0],
			validDetailInputs()[1],
			{Title: "Premium", Revisions: 1, DeliveryTimeInDays: 0, Price: 10, OfferType: model.OfferTypePremium},
		}},
		{name: "negative price", details: []OfferDetailInput{
			validDetailInputs()[0],
			validDetailInputs()[1],
			{Title: "Premium", Revisions: 1, DeliveryTimeInDays: 2, Price: -5, OfferType: model.OfferTypePremium},
		}},
		{name: "empty feature", details: []OfferDetailInput{
			validDetailInputs()[0],
			validDetailInputs()[1],
			{Title: "Premium", Revisions: 1, DeliveryTimeInDays: 2, Price: 10, Features: []string{" "}, OfferType: model.OfferTypePremium},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), actorFor(business), CreateOfferInput{
				Title:   "Package",
				Details: tc.details,
			}, nil)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}

	// No partial state survives any failed attempt.
	var offerCount, detailCount int64
	require.NoError(t, db.Model(&model.Offer{}).Count(&offerCount).Error)
	require.NoError(t, db.Model(&model.OfferDetail{}).Count(&detailCount).Error)
	assert.Zero(t, offerCount)
	assert.Zero(t, detailCount)
}

func TestGetOfferRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	_, err := svc.Get(context.Background(), nil, offer.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	resp, err := svc.Get(context.Background(), actorFor(business), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, resp.ID)
	assert.Equal(t, 50.0, resp.MinPrice)
	assert.Equal(t, 3, resp.MinDeliveryTime)
	assert.Len(t, resp.Details, 3)
}

func TestGetOfferNotFound(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	svc := newOfferServiceForTest(db)

	_, err := svc.Get(context.Background(), actorFor(business), 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListOffersIsPublic(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	page, err := svc.List(context.Background(), OfferListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 50.0, page.Results[0].MinPrice)
	assert.Equal(t, 3, page.Results[0].MinDeliveryTime)
	require.NotNil(t, page.Results[0].UserDetails)
	assert.Equal(t, "designer", page.Results[0].UserDetails.Username)
}

func TestListOffersFilters(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", model.TypeBusiness)
	bob := createTestUser(t, db, "bob", model.TypeBusiness)
	createTestOffer(t, db, alice)

	svc := newOfferServiceForTest(db)
	cheap, err := svc.Create(context.Background(), actorFor(bob), CreateOfferInput{
		Title: "Quick logos",
		Details: []OfferDetailInput{
			{Title: "Basic", DeliveryTimeInDays: 1, Price: 500, Features: []string{"Logo"}, OfferType: model.OfferTypeBasic},
			{Title: "Standard", DeliveryTimeInDays: 2, Price: 600, Features: []string{"Logo"}, OfferType: model.OfferTypeStandard},
			{Title: "Premium", DeliveryTimeInDays: 3, Price: 700, Features: []string{"Logo"}, OfferType: model.OfferTypePremium},
		},
	}, nil)
	require.NoError(t, err)

	t.Run("creator filter", func(t *testing.T) {
		page, err := svc.List(context.Background(), OfferListParams{CreatorID: &bob.ID})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, cheap.ID, page.Results[0].ID)
	})

	t.Run("min price filter", func(t *testing.T) {
		minPrice := 400.0
		page, err := svc.List(context.Background(), OfferListParams{MinPrice: &minPrice})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, cheap.ID, page.Results[0].ID)
	})

	t.Run("max delivery filter", func(t *testing.T) {
		maxDelivery := 1
		page, err := svc.List(context.Background(), OfferListParams{MaxDeliveryTime: &maxDelivery})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, cheap.ID, page.Results[0].ID)
	})

	t.Run("search fallback", func(t *testing.T) {
		page, err := svc.List(context.Background(), OfferListParams{Search: "Quick"})
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, cheap.ID, page.Results[0].ID)
	})

	t.Run("ordering by min price", func(t *testing.T) {
		page, err := svc.List(context.Background(), OfferListParams{Ordering: "min_price"})
		require.NoError(t, err)
		require.Len(t, page.Results, 2)
		assert.LessOrEqual(t, page.Results[0].MinPrice, page.Results[1].MinPrice)
	})

	t.Run("unsupported ordering", func(t *testing.T) {
		_, err := svc.List(context.Background(), OfferListParams{Ordering: "price"})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})
}

func TestListOffersPagination(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	for i := 0; i < 12; i++ {
		createTestOffer(t, db, business)
	}
	svc := newOfferServiceForTest(db)

	page, err := svc.List(context.Background(), OfferListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Count)
	assert.Len(t, page.Results, 10)

	second, err := svc.List(context.Background(), OfferListParams{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Results, 2)

	capped, err := svc.List(context.Background(), OfferListParams{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, capped.Results, 12)
}

func TestUpdateOfferPatchesDetailByTier(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	newPrice := 75.0
	newTitle := "Basic plus"
	resp, err := svc.Update(context.Background(), actorFor(business), offer.ID, UpdateOfferInput{
		Details: &[]OfferDetailPatch{
			{OfferType: model.OfferTypeBasic, Price: &newPrice, Title: &newTitle},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.Details, 3)
	for _, d := range resp.Details {
		if d.OfferType == model.OfferTypeBasic {
			assert.Equal(t, 75.0, d.Price)
			assert.Equal(t, "Basic plus", d.Title)
		}
	}

	// The other tiers are untouched.
	var standard model.OfferDetail
	require.NoError(t, db.Where("offer_id = ? AND offer_type = ?", offer.ID, model.OfferTypeStandard).First(&standard).Error)
	assert.Equal(t, 100.0, standard.Price)
}

func TestUpdateOfferRejectsUnknownTier(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	price := 10.0
	_, err := svc.Update(context.Background(), actorFor(business), offer.ID, UpdateOfferInput{
		Details: &[]OfferDetailPatch{
			{OfferType: "deluxe", Price: &price},
		},
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	// Nothing changed, and no fourth tier appeared.
	var count int64
	require.NoError(t, db.Model(&model.OfferDetail{}).Where("offer_id = ?", offer.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestUpdateOfferOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	other := createTestUser(t, db, "rival", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	title := "Hijacked"
	_, err := svc.Update(context.Background(), actorFor(other), offer.ID, UpdateOfferInput{Title: &title}, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDeleteOffer(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	other := createTestUser(t, db, "rival", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	err := svc.Delete(context.Background(), actorFor(other), offer.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), actorFor(business), offer.ID))

	_, err = svc.Get(context.Background(), actorFor(business), offer.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var detailCount int64
	require.NoError(t, db.Model(&model.OfferDetail{}).Where("offer_id = ?", offer.ID).Count(&detailCount).Error)
	assert.Zero(t, detailCount)
}

func TestGetOfferDetail(t *testing.T) {
	db := newTestDB(t)
	business := createTestUser(t, db, "designer", model.TypeBusiness)
	offer := createTestOffer(t, db, business)
	svc := newOfferServiceForTest(db)

	detail, err := svc.GetDetail(context.Background(), actorFor(business), offer.Details[0].ID)
	require.NoError(t, err)
	assert.Equal(t, offer.Details[0].ID, detail.ID)

	_, err = svc.GetDetail(context.Background(), nil, offer.Details[0].ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = svc.GetDetail(context.Background(), actorFor(business), 999)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
