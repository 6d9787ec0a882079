package service

import (
	"context"
	"io"
	"strings"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/permission"
	"marketplace/internal/repository"
	"marketplace/pkg/apperror"
	"marketplace/pkg/storage"

	"github.com/microcosm-cc/bluemonday"
)

// UploadFile is a file received from a multipart request, to be stored
// through the storage provider.
type UploadFile struct {
	Reader   io.Reader
	FileName string
}

type UpdateProfileInput struct {
	FirstName    *string `json:"first_name" form:"first_name"`
	LastName     *string `json:"last_name" form:"last_name"`
	Email        *string `json:"email" form:"email"`
	Location     *string `json:"location" form:"location"`
	Tel          *string `json:"tel" form:"tel"`
	Description  *string `json:"description" form:"description"`
	WorkingHours *string `json:"working_hours" form:"working_hours"`
}

// ProfileResponse is the full profile representation. The free-text fields
// are plain strings, so they render as "" rather than null.
type ProfileResponse struct {
	User         uint      `json:"user"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	File         string    `json:"file"`
	Location     string    `json:"location"`
	Tel          string    `json:"tel"`
	Description  string    `json:"description"`
	WorkingHours string    `json:"working_hours"`
	Type         string    `json:"type"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileListItem is the reduced representation used by the type-scoped
// profile lists. UploadedAt is only populated for customer profiles.
type ProfileListItem struct {
	User         uint       `json:"user"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	File         string     `json:"file"`
	Location     string     `json:"location"`
	Tel          string     `json:"tel"`
	Description  string     `json:"description"`
	WorkingHours string     `json:"working_hours"`
	Type         string     `json:"type"`
	UploadedAt   *time.Time `json:"uploaded_at,omitempty"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, actor *permission.Actor, userID uint) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, actor *permission.Actor, userID uint, input UpdateProfileInput, file *UploadFile) (*ProfileResponse, error)
	ListProfiles(ctx context.Context, actor *permission.Actor, profileType string) ([]ProfileListItem, error)
}

type profileService struct {
	repo        repository.UserRepository
	fileStorage storage.FileStorage
	gates       *permission.Evaluator
	sanitizer   *bluemonday.Policy
}

func NewProfileService(repo repository.UserRepository, fileStorage storage.FileStorage, gates *permission.Evaluator) ProfileService {
	return &profileService{
		repo:        repo,
		fileStorage: fileStorage,
		gates:       gates,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *profileService) GetProfile(ctx context.Context, actor *permission.Actor, userID uint) (*ProfileResponse, error) {
	profile, err := s.findProfile(ctx, actor, userID, false)
	if err != nil {
		return nil, err
	}

	return buildProfileResponse(profile), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, actor *permission.Actor, userID uint, input UpdateProfileInput, file *UploadFile) (*ProfileResponse, error) {
	profile, err := s.findProfile(ctx, actor, userID, true)
	if err != nil {
		return nil, err
	}
	user := profile.User

	if input.Email != nil {
		// Empty or whitespace-only email means "no change", not "clear".
		email := strings.TrimSpace(*input.Email)
		if email != "" {
			taken, err := s.repo.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperror.Validation("email", "email is already in use")
			}
			user.Email = email
		}
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if input.Location != nil {
		profile.Location = *input.Location
	}
	if input.Tel != nil {
		profile.Tel = *input.Tel
	}
	if input.Description != nil {
		profile.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.WorkingHours != nil {
		profile.WorkingHours = *input.WorkingHours
	}

	if file != nil && file.Reader != nil && s.fileStorage != nil {
		url, err := s.fileStorage.UploadFile(ctx, file.Reader, "profiles", file.FileName)
		if err != nil {
			return nil, err
		}
		profile.File = url
	}

	if err := s.repo.Update(ctx, user, profile); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperror.Validation("email", "email is already in use")
		}
		return nil, err
	}

	profile.User = user
	return buildProfileResponse(profile), nil
}

func (s *profileService) ListProfiles(ctx context.Context, actor *permission.Actor, profileType string) ([]ProfileListItem, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	profiles, err := s.repo.ListProfilesByType(ctx, profileType)
	if err != nil {
		return nil, err
	}

	items := make([]ProfileListItem, 0, len(profiles))
	for _, p := range profiles {
		item := ProfileListItem{
			User:         p.UserID,
			File:         p.File,
			Location:     p.Location,
			Tel:          p.Tel,
			Description:  p.Description,
			WorkingHours: p.WorkingHours,
			Type:         p.Type,
		}
		if p.User != nil {
			item.Username = p.User.Username
			item.FirstName = p.User.FirstName
			item.LastName = p.User.LastName
		}
		if p.Type == model.TypeCustomer {
			created := p.CreatedAt
			item.UploadedAt = &created
		}
		items = append(items, item)
	}

	return items, nil
}

// findProfile resolves a profile by its linked user id and runs the
// owner-or-read-only gate for the requested access.
func (s *profileService) findProfile(ctx context.Context, actor *permission.Actor, userID uint, write bool) (*model.Profile, error) {
	if err := s.gates.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	profile, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("profile not found")
		}
		return nil, err
	}

	if err := s.gates.RequireOwnerOrReadOnly(actor, profile, write); err != nil {
		return nil, err
	}

	return profile, nil
}

func buildProfileResponse(p *model.Profile) *ProfileResponse {
	resp := &ProfileResponse{
		User:         p.UserID,
		File:         p.File,
		Location:     p.Location,
		Tel:          p.Tel,
		Description:  p.Description,
		WorkingHours: p.WorkingHours,
		Type:         p.Type,
		CreatedAt:    p.CreatedAt,
	}
	if p.User != nil {
		resp.Username = p.User.Username
		resp.FirstName = p.User.FirstName
		resp.LastName = p.User.LastName
		resp.Email = p.User.Email
	}

	return resp
}
