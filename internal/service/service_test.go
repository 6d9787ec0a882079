package service

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/permission"
	"marketplace/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Offer{},
		&model.OfferDetail{},
		&model.Order{},
		&model.Review{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, userType string) *model.User {
	t.Helper()

	repo := repository.NewUserRepository(db)
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Type:         userType,
	}
	profile := &model.Profile{Type: userType}
	require.NoError(t, repo.Create(context.Background(), user, profile))

	user.Profile = profile
	return user
}

func actorFor(user *model.User) *permission.Actor {
	var profileType any
	if user.Profile != nil {
		profileType = user.Profile.Type
	}
	return permission.NewActor(user.ID, user.IsStaff, user.Type, profileType)
}

func testEvaluator() *permission.Evaluator {
	return permission.NewEvaluator(func(gate string, actor *permission.Actor) {})
}

func validDetailInputs() []OfferDetailInput {
	return []OfferDetailInput{
		{Title: "Basic", Revisions: 1, DeliveryTimeInDays: 3, Price: 50, Features: []string{"Logo"}, OfferType: model.OfferTypeBasic},
		{Title: "Standard", Revisions: 3, DeliveryTimeInDays: 5, Price: 100, Features: []string{"Logo", "Card"}, OfferType: model.OfferTypeStandard},
		{Title: "Premium", Revisions: 5, DeliveryTimeInDays: 7, Price: 200, Features: []string{"Logo", "Card", "Flyer"}, OfferType: model.OfferTypePremium},
	}
}

func newOfferServiceForTest(db *gorm.DB) OfferService {
	return NewOfferService(repository.NewOfferRepository(db), nil, NewSearchService(nil), testEvaluator(), nil, 0)
}

func createTestOffer(t *testing.T, db *gorm.DB, owner *model.User) *model.Offer {
	t.Helper()

	svc := newOfferServiceForTest(db)
	offer, err := svc.Create(context.Background(), actorFor(owner), CreateOfferInput{
		Title:   "Design package",
		Details: validDetailInputs(),
	}, nil)
	require.NoError(t, err)
	return offer
}
