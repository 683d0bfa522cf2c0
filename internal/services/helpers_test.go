package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/repository/memory"
)

type catalogFixture struct {
	store     *memory.Store
	recorder  *events.Recorder
	inventory *InventoryService
	ratings   *RatingService
	products  *ProductService

	category models.Category
	small    models.Size
	medium   models.Size
	red      models.Color
	blue     models.Color
}

func newCatalogFixture() *catalogFixture {
	store := memory.NewStore()
	recorder := &events.Recorder{}
	inventory := NewInventoryService(store, recorder)

	return &catalogFixture{
		store:     store,
		recorder:  recorder,
		inventory: inventory,
		ratings:   NewRatingService(store, recorder),
		products:  NewProductService(store, inventory, nil, recorder),
		category:  store.SeedCategory("Shirts"),
		small:     store.SeedSize("S"),
		medium:    store.SeedSize("M"),
		red:       store.SeedColor("Red", "#FF0000"),
		blue:      store.SeedColor("Blue", "#0000FF"),
	}
}

func qty(n int) *Quantity { return NewQuantity(n) }

func price(p float64) *float64 { return &p }

func (f *catalogFixture) productRequest(sizes ...SizeInput) *ProductRequest {
	return &ProductRequest{
		Name:       "Linen shirt",
		BasePrice:  price(49.5),
		CategoryID: &f.category.ID,
		Details:    []string{"100% linen"},
		Colors:     []ColorInput{{ColorID: f.red.ID, Name: "Crimson"}},
		Sizes:      sizes,
	}
}

func (f *catalogFixture) ledger(productID, sizeID uuid.UUID) *models.ProductSize {
	row, err := f.store.Variants().FindSize(context.Background(), productID, sizeID)
	if err != nil {
		return nil
	}
	return row
}

// failingAggregateStore reports zero affected rows for every aggregate write.
type failingAggregateStore struct {
	repository.Store
}

func (s failingAggregateStore) HandleTrx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.HandleTrx(ctx, func(tx repository.Store) error {
		return fn(failingAggregateStore{Store: tx})
	})
}

func (s failingAggregateStore) Products() repository.ProductRepository {
	return zeroAggregateProducts{ProductRepository: s.Store.Products()}
}

type zeroAggregateProducts struct {
	repository.ProductRepository
}

func (zeroAggregateProducts) UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating int, totalReviews int64) (int64, error) {
	return 0, nil
}
