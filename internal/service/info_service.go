package service

import (
	"context"
	"math"

	"marketplace/internal/repository"
)

type BaseInfo struct {
	ReviewCount          int64   `json:"review_count"`
	AverageRating        float64 `json:"average_rating"`
	BusinessProfileCount int64   `json:"business_profile_count"`
	OfferCount           int64   `json:"offer_count"`
}

type InfoService interface {
	BaseInfo(ctx context.Context) (*BaseInfo, error)
}

type infoService struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	offerRepo  repository.OfferRepository
}

func NewInfoService(reviewRepo repository.ReviewRepository, userRepo repository.UserRepository, offerRepo repository.OfferRepository) InfoService {
	return &infoService{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		offerRepo:  offerRepo,
	}
}

// BaseInfo aggregates public platform stats. The average rating is rounded
// to one decimal place and 0.0 when there are no reviews yet.
func (s *infoService) BaseInfo(ctx context.Context) (*BaseInfo, error) {
	reviewCount, err := s.reviewRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	avg, err := s.reviewRepo.AverageRating(ctx)
	if err != nil {
		return nil, err
	}

	businessCount, err := s.userRepo.CountBusinessProfiles(ctx)
	if err != nil {
		return nil, err
	}

	offerCount, err := s.offerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &BaseInfo{
		ReviewCount:          reviewCount,
		AverageRating:        math.Round(avg*10) / 10,
		BusinessProfileCount: businessCount,
		OfferCount:           offerCount,
	}, nil
}
