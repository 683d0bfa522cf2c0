package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/utils"
)

func seedProductWithSize(t *testing.T, store *Store, originalQty int) (models.Product, models.Size) {
	t.Helper()
	ctx := context.Background()

	size := store.SeedSize("M")
	product := models.Product{Name: "Tee", BasePrice: 20}
	require.NoError(t, store.Products().Create(ctx, &product))
	require.NoError(t, store.Variants().CreateSizes(ctx, []models.ProductSize{{
		ProductID:    product.ID,
		SizeID:       size.ID,
		Name:         "Medium",
		OriginalQty:  originalQty,
		RemainingQty: originalQty,
	}}))
	return product, size
}

func TestReserveStockIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, size := seedProductWithSize(t, store, 5)

	rows, err := store.Variants().ReserveStock(ctx, product.ID, size.ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = store.Variants().ReserveStock(ctx, product.ID, size.ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	ledger, err := store.Variants().FindSize(ctx, product.ID, size.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.PurchaseQty)
	assert.Equal(t, 2, ledger.RemainingQty)
}

func TestReserveStockHugeQuantityDoesNotWrap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, size := seedProductWithSize(t, store, 5)

	_, err := store.Variants().ReserveStock(ctx, product.ID, size.ID, 2)
	require.NoError(t, err)

	rows, err := store.Variants().ReserveStock(ctx, product.ID, size.ID, math.MaxInt)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	ledger, err := store.Variants().FindSize(ctx, product.ID, size.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.PurchaseQty)
	assert.Equal(t, 3, ledger.RemainingQty)
}

func TestReserveStockConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, size := seedProductWithSize(t, store, 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := store.Variants().ReserveStock(ctx, product.ID, size.ID, 1)
			if err == nil && rows == 1 {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	ledger, err := store.Variants().FindSize(ctx, product.ID, size.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, ledger.PurchaseQty)
	assert.Equal(t, 0, ledger.RemainingQty)
}

func TestUpdateSizeStockKeepsPurchases(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, size := seedProductWithSize(t, store, 10)

	_, err := store.Variants().ReserveStock(ctx, product.ID, size.ID, 4)
	require.NoError(t, err)
	ledger, err := store.Variants().FindSize(ctx, product.ID, size.ID)
	require.NoError(t, err)

	rows, err := store.Variants().UpdateSizeStock(ctx, ledger.ID, "Medium", 25, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = store.Variants().UpdateSizeStock(ctx, ledger.ID, "Medium", 25, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	ledger, err = store.Variants().FindSize(ctx, product.ID, size.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, ledger.OriginalQty)
	assert.Equal(t, 4, ledger.PurchaseQty)
	assert.Equal(t, 16, ledger.RemainingQty)
}

func TestHandleTrxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := store.SeedUser("ann", "ann@example.com", false)
	product, _ := seedProductWithSize(t, store, 1)

	rating := models.Rating{ProductID: product.ID, UserID: user.ID, Rating: 4, Description: "good"}
	require.NoError(t, store.Ratings().Create(ctx, &rating))

	boom := errors.New("boom")
	err := store.HandleTrx(ctx, func(tx repository.Store) error {
		_, err := tx.Ratings().Delete(ctx, rating.ID)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Ratings().FindByID(ctx, rating.ID)
	assert.NoError(t, err)
}

func TestRollbackKeepsWritesMadeOutsideTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, size := seedProductWithSize(t, store, 5)

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.HandleTrx(ctx, func(tx repository.Store) error {
			if _, err := tx.Variants().ReserveStock(ctx, product.ID, size.ID, 1); err != nil {
				return err
			}
			close(entered)
			<-release
			return errors.New("abort")
		})
	}()
	<-entered

	reserved := make(chan int64, 1)
	go func() {
		rows, _ := store.Variants().ReserveStock(ctx, product.ID, size.ID, 2)
		reserved <- rows
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.Error(t, <-txDone)
	assert.EqualValues(t, 1, <-reserved)

	ledger, err := store.Variants().FindSize(ctx, product.ID, size.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.PurchaseQty)
	assert.Equal(t, 3, ledger.RemainingQty)
}

func TestDuplicateRatingRejected(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := store.SeedUser("ann", "ann@example.com", false)
	productID := uuid.New()

	first := models.Rating{ProductID: productID, UserID: user.ID, Rating: 4, Description: "a"}
	require.NoError(t, store.Ratings().Create(ctx, &first))
	second := models.Rating{ProductID: productID, UserID: user.ID, Rating: 2, Description: "b"}
	assert.ErrorIs(t, store.Ratings().Create(ctx, &second), repository.ErrDuplicate)
}

func TestDeleteProductCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, size := seedProductWithSize(t, store, 2)
	require.NoError(t, store.Images().ReplaceForProduct(ctx, product.ID, []string{"/uploads/a.png"}))

	rows, err := store.Products().Delete(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	_, err = store.Variants().FindSize(ctx, product.ID, size.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Products().FindByID(ctx, product.ID, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListProductsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	shirts := store.SeedCategory("Shirts")
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		p := models.Product{Name: name, BasePrice: 10, CategoryID: &shirts.ID}
		require.NoError(t, store.Products().Create(ctx, &p))
	}
	other := models.Product{Name: "Delta", BasePrice: 10}
	require.NoError(t, store.Products().Create(ctx, &other))

	products, total, err := store.Products().List(ctx, repository.ProductFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 2, Sort: "name", Order: "asc"},
		CategoryID:       &shirts.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Alpha", products[0].Name)
	assert.Equal(t, "Beta", products[1].Name)
	require.NotNil(t, products[0].Category)
	assert.Equal(t, "Shirts", products[0].Category.Name)
}
