package services

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/repository"
)

type InventoryTestSuite struct {
	suite.Suite
	ctx context.Context
	f   *catalogFixture
}

func (suite *InventoryTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.f = newCatalogFixture()
}

func (suite *InventoryTestSuite) createProduct(sizes ...SizeInput) uuid.UUID {
	product, err := suite.f.products.Create(suite.ctx, suite.f.productRequest(sizes...), nil)
	suite.Require().NoError(err)
	return product.ID
}

func (suite *InventoryTestSuite) order(productID, sizeID uuid.UUID, quantity int) error {
	_, err := suite.f.inventory.PlaceOrder(suite.ctx, &OrderRequest{ProductID: productID, SizeID: sizeID, Quantity: quantity})
	return err
}

func (suite *InventoryTestSuite) TestStockLifecycle() {
	f := suite.f
	productID := suite.createProduct(SizeInput{SizeID: f.small.ID, Name: "Small", OriginalPrice: 49.5, OriginalQty: qty(10)})

	suite.Require().NoError(suite.order(productID, f.small.ID, 4))
	ledger := f.ledger(productID, f.small.ID)
	suite.Equal(4, ledger.PurchaseQty)
	suite.Equal(6, ledger.RemainingQty)

	err := suite.order(productID, f.small.ID, 7)
	suite.Require().Error(err)
	suite.Equal(KindConflict, KindOf(err))
	var serviceErr *Error
	suite.Require().ErrorAs(err, &serviceErr)
	suite.Equal(InsufficientStock{Size: "Small", Available: 6, Requested: 7}, serviceErr.Details)
	suite.Contains(serviceErr.Message, "Small")
	suite.Equal(6, f.ledger(productID, f.small.ID).RemainingQty)

	req := f.productRequest(SizeInput{SizeID: f.small.ID, Name: "Small", OriginalPrice: 49.5, OriginalQty: qty(20)})
	_, err = f.products.Update(suite.ctx, productID, req, nil)
	suite.Require().NoError(err)

	updated := f.ledger(productID, f.small.ID)
	suite.Equal(ledger.ID, updated.ID)
	suite.Equal(20, updated.OriginalQty)
	suite.Equal(4, updated.PurchaseQty)
	suite.Equal(16, updated.RemainingQty)
	suite.Contains(f.recorder.Types(), events.OrderPlaced)
}

func (suite *InventoryTestSuite) TestOrderValidation() {
	f := suite.f
	productID := suite.createProduct(SizeInput{SizeID: f.small.ID, OriginalQty: qty(1)})

	suite.Equal(KindValidation, KindOf(suite.order(productID, f.small.ID, 0)))
	suite.Equal(KindValidation, KindOf(suite.order(productID, f.small.ID, -2)))
	suite.Equal(KindNotFound, KindOf(suite.order(productID, f.medium.ID, 1)))
	suite.Equal(KindNotFound, KindOf(suite.order(uuid.New(), f.small.ID, 1)))
	suite.Equal(0, f.ledger(productID, f.small.ID).PurchaseQty)
}

func (suite *InventoryTestSuite) TestOversizedOrderLeavesLedgerUntouched() {
	f := suite.f
	productID := suite.createProduct(SizeInput{SizeID: f.small.ID, Name: "Small", OriginalQty: qty(5)})
	suite.Require().NoError(suite.order(productID, f.small.ID, 2))

	err := suite.order(productID, f.small.ID, 100000)
	suite.Equal(KindConflict, KindOf(err))
	suite.Contains(err.Error(), "Small")

	suite.Equal(KindValidation, KindOf(suite.order(productID, f.small.ID, math.MaxInt)))

	ledger := f.ledger(productID, f.small.ID)
	suite.Equal(5, ledger.OriginalQty)
	suite.Equal(2, ledger.PurchaseQty)
	suite.Equal(3, ledger.RemainingQty)
}

func (suite *InventoryTestSuite) TestReconcileAddsUpdatesAndRemoves() {
	f := suite.f
	productID := suite.createProduct(
		SizeInput{SizeID: f.small.ID, Name: "Small", OriginalQty: qty(5)},
		SizeInput{SizeID: f.medium.ID, Name: "Medium", OriginalQty: qty(5)},
	)
	suite.Require().NoError(suite.order(productID, f.medium.ID, 2))
	mediumBefore := f.ledger(productID, f.medium.ID)

	large := f.store.SeedSize("L")
	req := f.productRequest(
		SizeInput{SizeID: f.medium.ID, Name: "Medium fit", OriginalPrice: 55, OriginalQty: qty(8)},
		SizeInput{SizeID: large.ID, Name: "Large", OriginalQty: qty(3)},
	)
	req.Colors = []ColorInput{{ColorID: f.red.ID, Name: "Scarlet"}, {ColorID: f.blue.ID, Name: "Navy"}}
	product, err := f.products.Update(suite.ctx, productID, req, nil)
	suite.Require().NoError(err)

	suite.Nil(f.ledger(productID, f.small.ID))
	medium := f.ledger(productID, f.medium.ID)
	suite.Equal(mediumBefore.ID, medium.ID)
	suite.Equal("Medium fit", medium.Name)
	suite.Equal(2, medium.PurchaseQty)
	suite.Equal(6, medium.RemainingQty)
	added := f.ledger(productID, large.ID)
	suite.Equal(0, added.PurchaseQty)
	suite.Equal(3, added.RemainingQty)

	suite.Len(product.ProductSizes, 2)
	suite.Require().Len(product.ProductColors, 2)
	suite.Equal("Scarlet", product.ProductColors[0].Name)
	for _, size := range product.ProductSizes {
		suite.Equal(size.OriginalQty-size.PurchaseQty, size.RemainingQty)
	}
}

func (suite *InventoryTestSuite) TestEmptyListsKeepVariants() {
	f := suite.f
	productID := suite.createProduct(SizeInput{SizeID: f.small.ID, OriginalQty: qty(5)})

	req := f.productRequest()
	req.Colors = nil
	product, err := f.products.Update(suite.ctx, productID, req, nil)
	suite.Require().NoError(err)
	suite.Len(product.ProductSizes, 1)
	suite.Len(product.ProductColors, 1)
}

func (suite *InventoryTestSuite) TestLoweringBelowPurchasedIsRejected() {
	f := suite.f
	productID := suite.createProduct(
		SizeInput{SizeID: f.small.ID, OriginalQty: qty(10)},
		SizeInput{SizeID: f.medium.ID, OriginalQty: qty(10)},
	)
	suite.Require().NoError(suite.order(productID, f.small.ID, 6))

	req := f.productRequest(SizeInput{SizeID: f.small.ID, OriginalQty: qty(5)})
	_, err := f.products.Update(suite.ctx, productID, req, nil)
	suite.Equal(KindConflict, KindOf(err))

	ledger := f.ledger(productID, f.small.ID)
	suite.Equal(10, ledger.OriginalQty)
	suite.Equal(4, ledger.RemainingQty)
	suite.NotNil(f.ledger(productID, f.medium.ID))
}

func (suite *InventoryTestSuite) TestInvalidSizeIDWritesNothing() {
	f := suite.f
	bogus := uuid.New()
	req := f.productRequest(
		SizeInput{SizeID: f.small.ID, OriginalQty: qty(1)},
		SizeInput{SizeID: bogus, OriginalQty: qty(1)},
	)

	_, err := f.products.Create(suite.ctx, req, nil)
	suite.Require().Error(err)
	suite.Equal(KindValidation, KindOf(err))
	var serviceErr *Error
	suite.Require().ErrorAs(err, &serviceErr)
	suite.Equal(details{"invalid_size_ids": []string{bogus.String()}}, serviceErr.Details)

	result, err := f.products.List(suite.ctx, ProductListParams{})
	suite.Require().NoError(err)
	suite.EqualValues(0, result.Total)
}

func (suite *InventoryTestSuite) TestMissingQuantityNamesSize() {
	f := suite.f
	_, err := f.inventory.ValidateSizes(suite.ctx, f.store, []SizeInput{{SizeID: f.small.ID}})
	suite.Require().Error(err)
	suite.Equal(KindValidation, KindOf(err))
	suite.Contains(err.Error(), "size S")

	_, err = f.inventory.ValidateSizes(suite.ctx, f.store, []SizeInput{{SizeID: f.small.ID, Name: "Small", OriginalQty: qty(-1)}})
	suite.Contains(err.Error(), "size Small")

	var size SizeInput
	suite.Require().NoError(json.Unmarshal([]byte(`{"size_id":"`+f.small.ID.String()+`","name":"Small","original_qty":"lots"}`), &size))
	_, err = f.inventory.ValidateSizes(suite.ctx, f.store, []SizeInput{size})
	suite.Equal(KindValidation, KindOf(err))
	suite.Contains(err.Error(), "size Small")
	var serviceErr *Error
	suite.Require().ErrorAs(err, &serviceErr)
	suite.Equal("lots", serviceErr.Details.(details)["original_qty"])
}

func (suite *InventoryTestSuite) TestDuplicateVariantIDsRejected() {
	f := suite.f
	_, err := f.inventory.ValidateSizes(suite.ctx, f.store, []SizeInput{
		{SizeID: f.small.ID, OriginalQty: qty(1)},
		{SizeID: f.small.ID, OriginalQty: qty(2)},
	})
	suite.Equal(KindValidation, KindOf(err))

	err = f.inventory.ValidateColors(suite.ctx, f.store, []ColorInput{
		{ColorID: f.red.ID, Name: "a"},
		{ColorID: f.red.ID, Name: "b"},
	})
	suite.Equal(KindValidation, KindOf(err))

	err = f.inventory.ValidateColors(suite.ctx, f.store, []ColorInput{{ColorID: uuid.New(), Name: "x"}})
	suite.Equal(KindValidation, KindOf(err))
}

func TestInventoryTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryTestSuite))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	product, err := f.products.Create(ctx, f.productRequest(SizeInput{SizeID: f.small.ID, OriginalQty: qty(10)}), nil)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.inventory.PlaceOrder(ctx, &OrderRequest{ProductID: product.ID, SizeID: f.small.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if KindOf(err) == KindConflict {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, conflicts)
	ledger := f.ledger(product.ID, f.small.ID)
	assert.Equal(t, 10, ledger.PurchaseQty)
	assert.Equal(t, 0, ledger.RemainingQty)
}

func TestReconcileSizesRaceReportsConflict(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture()
	product, err := f.products.Create(ctx, f.productRequest(SizeInput{SizeID: f.small.ID, OriginalQty: qty(5)}), nil)
	require.NoError(t, err)

	// Stock sold between the reconcile read and its write shows up as zero rows.
	store := soldOutStore{Store: f.store}
	err = f.inventory.ReconcileSizes(ctx, store, product.ID, []SizeInput{{SizeID: f.small.ID, Name: "S", OriginalQty: qty(4)}})
	assert.Equal(t, KindConflict, KindOf(err))
}

type soldOutStore struct {
	repository.Store
}

func (s soldOutStore) Variants() repository.VariantRepository {
	return soldOutVariants{VariantRepository: s.Store.Variants()}
}

type soldOutVariants struct {
	repository.VariantRepository
}

func (soldOutVariants) UpdateSizeStock(ctx context.Context, id uuid.UUID, name string, originalPrice float64, originalQty int) (int64, error) {
	return 0, nil
}
