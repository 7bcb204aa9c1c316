package main

import (
	"context"
	"database/sql"
	"fmt"
)

// ReviewRepository defines the data access contract for reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *Review) error
	GetReview(ctx context.Context, reviewID int64) (*Review, error)
	ListApprovedByItem(ctx context.Context, itemID int64) ([]Review, error)
	UpdateReview(ctx context.Context, review *Review) error
	DeleteReview(ctx context.Context, reviewID int64) error
}

// PostgresReviewRepository implements ReviewRepository on database/sql.
type PostgresReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new PostgresReviewRepository.
func NewReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

const reviewColumns = "id, item_id, username, rating, comment, review_date, status"

func scanReview(row interface{ Scan(...interface{}) error }) (*Review, error) {
	var review Review
	err := row.Scan(
		&review.ID,
		&review.ItemID,
		&review.Username,
		&review.Rating,
		&review.Comment,
		&review.ReviewDate,
		&review.Status,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateReview inserts a review and fills in its generated ID.
func (r *PostgresReviewRepository) CreateReview(ctx context.Context, review *Review) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (item_id, username, rating, comment, review_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		review.ItemID, review.Username, review.Rating, review.Comment,
		review.ReviewDate, review.Status,
	).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetReview fetches a review by ID regardless of moderation status.
func (r *PostgresReviewRepository) GetReview(ctx context.Context, reviewID int64) (*Review, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id = $1", reviewID)

	review, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// ListApprovedByItem returns the approved reviews of a product, newest first.
func (r *PostgresReviewRepository) ListApprovedByItem(ctx context.Context, itemID int64) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE item_id = $1 AND status = $2 ORDER BY review_date DESC",
		itemID, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

// UpdateReview persists the rating, comment and status of a review.
func (r *PostgresReviewRepository) UpdateReview(ctx context.Context, review *Review) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $1, comment = $2, status = $3, review_date = $4
		WHERE id = $5`,
		review.Rating, review.Comment, review.Status, review.ReviewDate, review.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// DeleteReview removes a review.
func (r *PostgresReviewRepository) DeleteReview(ctx context.Context, reviewID int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// EnsureSchema creates the reviews table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reviews (
			id BIGSERIAL PRIMARY KEY,
			item_id BIGINT NOT NULL,
			username TEXT NOT NULL,
			rating INT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			review_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status TEXT NOT NULL DEFAULT 'pending'
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_item_status ON reviews (item_id, status)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
