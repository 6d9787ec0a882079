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

func newProfileServiceForTest(db *gorm.DB) ProfileService {
	return NewProfileService(repository.NewUserRepository(db), nil, testEvaluator())
}

func strPtr(s string) *string { return &s }

func TestGetProfile(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone", model.TypeCustomer)
	viewer := createTestUser(t, db, "viewer", model.TypeCustomer)
	svc := newProfileServiceForTest(db)

	t.Run("requires auth", func(t *testing.T) {
		_, err := svc.GetProfile(context.Background(), nil, user.ID)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})

	t.Run("any authenticated user can read", func(t *testing.T) {
		resp, err := svc.GetProfile(context.Background(), actorFor(viewer), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.User)
		assert.Equal(t, "someone", resp.Username)
		// Never-set fields render as empty strings, not null.
		assert.Equal(t, "", resp.Location)
		assert.Equal(t, "", resp.Description)
	})

	t.Run("missing profile is not found", func(t *testing.T) {
		_, err := svc.GetProfile(context.Background(), actorFor(viewer), 999)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestUpdateProfileOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone", model.TypeCustomer)
	other := createTestUser(t, db, "intruder", model.TypeCustomer)
	svc := newProfileServiceForTest(db)

	_, err := svc.UpdateProfile(context.Background(), actorFor(other), user.ID, UpdateProfileInput{
		Location: strPtr("Berlin"),
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateProfileFields(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone", model.TypeCustomer)
	svc := newProfileServiceForTest(db)

	resp, err := svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
		FirstName:    strPtr("Ada"),
		LastName:     strPtr("Lovelace"),
		Location:     strPtr("Berlin"),
		Tel:          strPtr("030123456"),
		Description:  strPtr("I buy designs"),
		WorkingHours: strPtr("9-17"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Ada", resp.FirstName)
	assert.Equal(t, "Lovelace", resp.LastName)
	assert.Equal(t, "Berlin", resp.Location)
	assert.Equal(t, "030123456", resp.Tel)
	assert.Equal(t, "I buy designs", resp.Description)
	assert.Equal(t, "9-17", resp.WorkingHours)

	// Omitted fields keep their values on a later partial patch.
	resp, err = svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
		Location: strPtr("Hamburg"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", resp.Location)
	assert.Equal(t, "Ada", resp.FirstName)
}

func TestUpdateProfileSanitizesDescription(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone", model.TypeCustomer)
	svc := newProfileServiceForTest(db)

	resp, err := svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
		Description: strPtr(`hello <script>alert("x")</script>world`),
	}, nil)
	require.NoError(t, err)
	assert.NotContains(t, resp.Description, "<script>")
	assert.Contains(t, resp.Description, "hello")
}

func TestUpdateProfileEmail(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "someone", model.TypeCustomer)
	other := createTestUser(t, db, "other", model.TypeCustomer)
	svc := newProfileServiceForTest(db)

	t.Run("empty email means no change", func(t *testing.T) {
		resp, err := svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
			Email: strPtr("   "),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "someone@example.com", resp.Email)
	})

	t.Run("taken email rejected case-insensitively", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
			Email: strPtr("OTHER@example.com"),
		}, nil)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		_ = other
	})

	t.Run("own email is not a conflict", func(t *testing.T) {
		resp, err := svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
			Email: strPtr("someone@example.com"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "someone@example.com", resp.Email)
	})

	t.Run("new email is stored", func(t *testing.T) {
		resp, err := svc.UpdateProfile(context.Background(), actorFor(user), user.ID, UpdateProfileInput{
			Email: strPtr("fresh@example.com"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", resp.Email)
	})
}

func TestListProfilesByType(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "shop1", model.TypeBusiness)
	createTestUser(t, db, "shop2", model.TypeBusiness)
	customer := createTestUser(t, db, "buyer", model.TypeCustomer)
	svc := newProfileServiceForTest(db)

	t.Run("requires auth", func(t *testing.T) {
		_, err := svc.ListProfiles(context.Background(), nil, model.TypeBusiness)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})

	t.Run("business list", func(t *testing.T) {
		profiles, err := svc.ListProfiles(context.Background(), actorFor(customer), model.TypeBusiness)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "shop1", profiles[0].Username)
		assert.Nil(t, profiles[0].UploadedAt)
	})

	t.Run("customer list", func(t *testing.T) {
		profiles, err := svc.ListProfiles(context.Background(), actorFor(customer), model.TypeCustomer)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "buyer", profiles[0].Username)
		assert.NotNil(t, profiles[0].UploadedAt)
	})
}
