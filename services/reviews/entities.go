package main

import (
	"errors"
	"time"
)

// Review is a product review. New and edited reviews start pending and only
// become visible on the product page once approved.
type Review struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	Username   string    `json:"username"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ReviewDate time.Time `json:"review_date"`
	Status     string    `json:"status"`
}

// Review moderation states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusFlagged  = "flagged"
)

// Moderation actions.
const (
	ActionApprove = "approve"
	ActionFlag    = "flag"
)

// SubmitReviewRequest is the body of POST /reviews.
type SubmitReviewRequest struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	Username string `json:"username" binding:"required"`
	Rating   int    `json:"rating" binding:"required"`
	Comment  string `json:"comment"`
}

// UpdateReviewRequest carries a partial review update.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// ModerateReviewRequest is the body of POST /reviews/moderate/:review_id.
type ModerateReviewRequest struct {
	Action string `json:"action"`
}

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrInvalidAction  = errors.New("invalid action")
)

// ValidRating reports whether the rating is in the accepted 1-5 range.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
