package main

import (
	"context"
	"log"
	"time"
)

// ReviewUseCase contains the business logic of the reviews service.
type ReviewUseCase struct {
	repository ReviewRepository
}

// NewReviewUseCase creates a new ReviewUseCase.
func NewReviewUseCase(repository ReviewRepository) *ReviewUseCase {
	return &ReviewUseCase{repository: repository}
}

// SubmitReview stores a new review in the pending state.
func (uc *ReviewUseCase) SubmitReview(ctx context.Context, req SubmitReviewRequest) (*Review, error) {
	if !ValidRating(req.Rating) {
		return nil, ErrInvalidRating
	}

	review := &Review{
		ItemID:     req.ItemID,
		Username:   req.Username,
		Rating:     req.Rating,
		Comment:    req.Comment,
		ReviewDate: time.Now().UTC(),
		Status:     StatusPending,
	}
	if err := uc.repository.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	log.Printf("✅ [REVIEW] Submitted | review=%d item=%d user=%s", review.ID, review.ItemID, review.Username)
	return review, nil
}

// ListProductReviews returns the approved reviews of a product.
func (uc *ReviewUseCase) ListProductReviews(ctx context.Context, itemID int64) ([]Review, error) {
	return uc.repository.ListApprovedByItem(ctx, itemID)
}

// UpdateReview edits a review. Any edit sends the review back to moderation.
func (uc *ReviewUseCase) UpdateReview(ctx context.Context, reviewID int64, req UpdateReviewRequest) (*Review, error) {
	review, err := uc.repository.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if !ValidRating(*req.Rating) {
			return nil, ErrInvalidRating
		}
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	review.Status = StatusPending
	review.ReviewDate = time.Now().UTC()

	if err := uc.repository.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review.
func (uc *ReviewUseCase) DeleteReview(ctx context.Context, reviewID int64) error {
	return uc.repository.DeleteReview(ctx, reviewID)
}

// ModerateReview approves or flags a pending review.
func (uc *ReviewUseCase) ModerateReview(ctx context.Context, reviewID int64, action string) (*Review, error) {
	var status string
	switch action {
	case ActionApprove:
		status = StatusApproved
	case ActionFlag:
		status = StatusFlagged
	default:
		return nil, ErrInvalidAction
	}

	review, err := uc.repository.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	review.Status = status
	if err := uc.repository.UpdateReview(ctx, review); err != nil {
		return nil, err
	}

	log.Printf("✅ [MODERATE] review=%d action=%s status=%s", reviewID, action, status)
	return review, nil
}
