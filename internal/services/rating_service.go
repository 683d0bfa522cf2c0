// internal/services/rating_service.go
package services

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// RatingService keeps one rating per (product, user) and the product's cached
// average and review count in step with the live ratings.
type RatingService struct {
	store     repository.Store
	publisher events.Publisher
}

type UpsertRatingRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Rating      *float64  `json:"rating" validate:"required,gte=0,lte=5"`
	Description string    `json:"description" validate:"required,notblank,max=1000"`
}

// Aggregate is the cached rating summary stored on a product.
type Aggregate struct {
	ProductID     uuid.UUID `json:"product_id"`
	AverageRating int       `json:"average_rating"`
	TotalReviews  int64     `json:"total_reviews"`
}

type RatingResult struct {
	Rating  *models.Rating `json:"rating"`
	Created bool           `json:"created"`
	Aggregate
}

func NewRatingService(store repository.Store, publisher events.Publisher) *RatingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RatingService{store: store, publisher: publisher}
}

// Recompute derives the aggregate from a product's ratings: the mean rounded
// to the nearest integer, or zero when there are none.
func Recompute(ratings []models.Rating) (int, int64) {
	if len(ratings) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Rating
	}
	return int(math.Round(sum / float64(len(ratings)))), int64(len(ratings))
}

// Upsert creates the caller's rating for the product or overwrites it in place.
func (s *RatingService) Upsert(ctx context.Context, principal Principal, req *UpsertRatingRequest) (*RatingResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid rating", utils.GetValidationErrors(err))
	}
	if principal.UserID == uuid.Nil {
		return nil, unauthorizedError("Authentication required")
	}

	if _, err := s.store.Products().FindByID(ctx, req.ProductID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Product not found")
		}
		return nil, err
	}
	exists, err := s.store.Users().Exists(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFoundError("User not found")
	}

	result := &RatingResult{}
	err = s.store.HandleTrx(ctx, func(tx repository.Store) error {
		rating, created, err := upsertRating(ctx, tx, principal.UserID, req)
		if err != nil {
			return err
		}

		aggregate, err := refreshAggregate(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}

		result.Rating = rating
		result.Created = created
		result.Aggregate = *aggregate
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": req.ProductID,
		"user_id":    principal.UserID,
		"created":    result.Created,
		"average":    result.AverageRating,
	}).Info("Rating saved")
	s.publisher.Publish(ctx, events.RatingChanged, req.ProductID.String(), result.Aggregate)

	return result, nil
}

func upsertRating(ctx context.Context, tx repository.Store, userID uuid.UUID, req *UpsertRatingRequest) (*models.Rating, bool, error) {
	existing, err := tx.Ratings().FindByProductAndUser(ctx, req.ProductID, userID)
	switch {
	case err == nil:
		if err := tx.Ratings().Update(ctx, existing.ID, *req.Rating, req.Description); err != nil {
			return nil, false, err
		}
		existing.Rating = *req.Rating
		existing.Description = req.Description
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	rating := &models.Rating{
		ProductID:   req.ProductID,
		UserID:      userID,
		Rating:      *req.Rating,
		Description: req.Description,
	}
	if err := tx.Ratings().Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, false, conflictError("Rating was submitted concurrently, please retry", nil)
		}
		return nil, false, err
	}
	return rating, true, nil
}

// refreshAggregate recomputes the product's aggregate and writes it back. A
// write that matches no product row is reported as an inconsistency so the
// surrounding transaction rolls back.
func refreshAggregate(ctx context.Context, tx repository.Store, productID uuid.UUID) (*Aggregate, error) {
	ratings, err := tx.Ratings().ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	average, total := Recompute(ratings)
	rows, err := tx.Products().UpdateAggregate(ctx, productID, average, total)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, &Error{Kind: KindInconsistent, Message: "Failed to update product rating aggregate"}
	}

	return &Aggregate{ProductID: productID, AverageRating: average, TotalReviews: total}, nil
}

// refreshAggregates recomputes the aggregate of every listed product within tx.
func refreshAggregates(ctx context.Context, tx repository.Store, productIDs []uuid.UUID) error {
	for _, productID := range productIDs {
		if _, err := refreshAggregate(ctx, tx, productID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a rating and recomputes its product's aggregate in one
// transaction. Only the rating's author or an admin may delete it.
func (s *RatingService) Delete(ctx context.Context, principal Principal, ratingID uuid.UUID) (*Aggregate, error) {
	var aggregate *Aggregate
	err := s.store.HandleTrx(ctx, func(tx repository.Store) error {
		rating, err := tx.Ratings().FindByID(ctx, ratingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError("Rating not found")
			}
			return err
		}
		if !principal.CanActFor(rating.UserID) {
			return forbiddenError("You can only delete your own ratings")
		}

		rows, err := tx.Ratings().Delete(ctx, rating.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFoundError("Rating not found")
		}

		aggregate, err = refreshAggregate(ctx, tx, rating.ProductID)
		return err
	})
	if err != nil {
		if KindOf(err) == KindInconsistent {
			logrus.WithError(err).WithField("rating_id", ratingID).Error("Rating delete rolled back")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"rating_id":  ratingID,
		"product_id": aggregate.ProductID,
		"average":    aggregate.AverageRating,
	}).Info("Rating deleted")
	s.publisher.Publish(ctx, events.RatingChanged, aggregate.ProductID.String(), aggregate)

	return aggregate, nil
}

// ListByProduct returns the product's ratings, newest first.
func (s *RatingService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error) {
	if _, err := s.store.Products().FindByID(ctx, productID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Product not found")
		}
		return nil, err
	}
	return s.store.Ratings().ListByProduct(ctx, productID)
}

func (s *RatingService) ListAll(ctx context.Context, params utils.PaginationParams) (utils.PaginationResult, error) {
	params = utils.NormalizePagination(params)
	ratings, total, err := s.store.Ratings().ListAll(ctx, params)
	if err != nil {
		return utils.PaginationResult{}, err
	}
	return utils.CreatePaginationResult(ratings, total, params), nil
}
