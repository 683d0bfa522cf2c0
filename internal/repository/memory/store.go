// Package memory is an in-process Catalog Store with the same contract as the
// GORM store. Transactions are serialized and roll back by restoring a snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type tables struct {
	products    map[uuid.UUID]models.Product
	colors      map[uuid.UUID]models.ProductColor
	sizes       map[uuid.UUID]models.ProductSize
	images      map[uuid.UUID]models.Image
	ratings     map[uuid.UUID]models.Rating
	sizeRefs    map[uuid.UUID]models.Size
	colorRefs   map[uuid.UUID]models.Color
	categories  map[uuid.UUID]models.Category
	collections map[uuid.UUID]models.Collection
	users       map[uuid.UUID]models.User
	clock       time.Time
}

func newTables() *tables {
	return &tables{
		products:    map[uuid.UUID]models.Product{},
		colors:      map[uuid.UUID]models.ProductColor{},
		sizes:       map[uuid.UUID]models.ProductSize{},
		images:      map[uuid.UUID]models.Image{},
		ratings:     map[uuid.UUID]models.Rating{},
		sizeRefs:    map[uuid.UUID]models.Size{},
		colorRefs:   map[uuid.UUID]models.Color{},
		categories:  map[uuid.UUID]models.Category{},
		collections: map[uuid.UUID]models.Collection{},
		users:       map[uuid.UUID]models.User{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.products {
		c.products[k] = v
	}
	for k, v := range t.colors {
		c.colors[k] = v
	}
	for k, v := range t.sizes {
		c.sizes[k] = v
	}
	for k, v := range t.images {
		c.images[k] = v
	}
	for k, v := range t.ratings {
		c.ratings[k] = v
	}
	for k, v := range t.sizeRefs {
		c.sizeRefs[k] = v
	}
	for k, v := range t.colorRefs {
		c.colorRefs[k] = v
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.collections {
		c.collections[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	c.clock = t.clock
	return c
}

// now returns strictly increasing timestamps so created_at ordering is stable.
func (t *tables) now() time.Time {
	now := time.Now()
	if !now.After(t.clock) {
		now = t.clock.Add(time.Microsecond)
	}
	t.clock = now
	return now
}

func (t *tables) stamp(b *models.BaseModel) {
	b.EnsureID()
	now := t.now()
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu   *sync.Mutex
	txMu *sync.Mutex
	data **tables
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	data := newTables()
	return &Store{mu: &sync.Mutex{}, txMu: &sync.Mutex{}, data: &data}
}

// HandleTrx runs fn against the store and restores the pre-call state when fn
// returns an error or panics. Nested calls join the outer transaction.
// Operations outside the transaction wait until it ends, so restoring the
// snapshot can only undo the transaction's own writes.
func (s *Store) HandleTrx(ctx context.Context, fn func(store repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := (*s.data).clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		*s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(&Store{mu: s.mu, txMu: s.txMu, data: s.data, inTx: true}); err != nil {
		rollback()
	}
	return err
}

func (s *Store) Products() repository.ProductRepository       { return &productRepository{s} }
func (s *Store) Variants() repository.VariantRepository       { return &variantRepository{s} }
func (s *Store) Images() repository.ImageRepository           { return &imageRepository{s} }
func (s *Store) Ratings() repository.RatingRepository         { return &ratingRepository{s} }
func (s *Store) Sizes() repository.SizeRepository             { return &sizeRepository{s} }
func (s *Store) Colors() repository.ColorRepository           { return &colorRepository{s} }
func (s *Store) Categories() repository.CategoryRepository    { return &categoryRepository{s} }
func (s *Store) Collections() repository.CollectionRepository { return &collectionRepository{s} }
func (s *Store) Users() repository.UserRepository             { return &userRepository{s} }

func (s *Store) with(fn func(t *tables)) {
	if !s.inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(*s.data)
}

// Seed helpers for reference data.

func (s *Store) SeedSize(name string) models.Size {
	size := models.Size{Name: name}
	s.with(func(t *tables) {
		t.stamp(&size.BaseModel)
		t.sizeRefs[size.ID] = size
	})
	return size
}

func (s *Store) SeedColor(name, hex string) models.Color {
	color := models.Color{Name: name, HexCode: hex}
	s.with(func(t *tables) {
		t.stamp(&color.BaseModel)
		t.colorRefs[color.ID] = color
	})
	return color
}

func (s *Store) SeedCategory(name string) models.Category {
	category := models.Category{Name: name}
	s.with(func(t *tables) {
		t.stamp(&category.BaseModel)
		t.categories[category.ID] = category
	})
	return category
}

func (s *Store) SeedCollection(name string, categoryID *uuid.UUID) models.Collection {
	collection := models.Collection{Name: name, CategoryID: categoryID}
	s.with(func(t *tables) {
		t.stamp(&collection.BaseModel)
		t.collections[collection.ID] = collection
	})
	return collection
}

func (s *Store) SeedUser(username, email string, isAdmin bool) models.User {
	user := models.User{Username: username, Email: email, IsAdmin: isAdmin}
	s.with(func(t *tables) {
		t.stamp(&user.BaseModel)
		t.users[user.ID] = user
	})
	return user
}

// DeleteUser removes the user and cascades to their ratings.
func (s *Store) DeleteUser(id uuid.UUID) {
	s.with(func(t *tables) {
		delete(t.users, id)
		for rid, rating := range t.ratings {
			if rating.UserID == id {
				delete(t.ratings, rid)
			}
		}
	})
}

type productRepository struct{ s *Store }

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	var err error
	r.s.with(func(t *tables) {
		if _, exists := t.products[product.ID]; exists && product.ID != uuid.Nil {
			err = fmt.Errorf("failed to create product: %w", repository.ErrDuplicate)
			return
		}
		t.stamp(&product.BaseModel)
		stored := *product
		stored.Images, stored.ProductColors, stored.ProductSizes, stored.Ratings = nil, nil, nil, nil
		stored.Category, stored.Collection = nil, nil
		t.products[product.ID] = stored
	})
	return err
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID, withAssociations bool) (*models.Product, error) {
	var (
		product models.Product
		found   bool
	)
	r.s.with(func(t *tables) {
		product, found = t.products[id]
		if found && withAssociations {
			loadAssociations(t, &product)
		}
	})
	if !found {
		return nil, repository.ErrNotFound
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	products := make([]models.Product, 0)
	r.s.with(func(t *tables) {
		search := strings.ToLower(filter.Search)
		for _, p := range t.products {
			if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
				continue
			}
			if filter.CollectionID != nil && (p.CollectionID == nil || *p.CollectionID != *filter.CollectionID) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) {
				continue
			}
			loadAssociations(t, &p)
			products = append(products, p)
		}
	})

	params := utils.NormalizePagination(filter.PaginationParams)
	sortProducts(products, params)
	start, end := window(len(products), params)
	return products[start:end], int64(len(products)), nil
}

func sortProducts(products []models.Product, params utils.PaginationParams) {
	desc := !strings.EqualFold(params.Order, "asc")
	less := func(a, b models.Product) bool {
		switch params.Sort {
		case "name":
			return a.Name < b.Name
		case "base_price":
			return a.BasePrice < b.BasePrice
		case "average_rating":
			return a.AverageRating < b.AverageRating
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	var err error
	r.s.with(func(t *tables) {
		stored, ok := t.products[product.ID]
		if !ok {
			return
		}
		stored.Name = product.Name
		stored.BasePrice = product.BasePrice
		stored.Description = product.Description
		stored.Details = product.Details
		stored.SizeFit = product.SizeFit
		stored.MaterialCare = product.MaterialCare
		stored.ShippingReturn = product.ShippingReturn
		stored.CategoryID = product.CategoryID
		stored.CollectionID = product.CollectionID
		stored.UpdatedAt = t.now()
		t.products[product.ID] = stored
	})
	return err
}

func (r *productRepository) UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating int, totalReviews int64) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		stored, ok := t.products[id]
		if !ok {
			return
		}
		stored.AverageRating = averageRating
		stored.TotalReviews = totalReviews
		stored.UpdatedAt = t.now()
		t.products[id] = stored
		affected = 1
	})
	return affected, nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		if _, ok := t.products[id]; !ok {
			return
		}
		delete(t.products, id)
		affected = 1
		for k, v := range t.images {
			if v.ProductID == id {
				delete(t.images, k)
			}
		}
		for k, v := range t.colors {
			if v.ProductID == id {
				delete(t.colors, k)
			}
		}
		for k, v := range t.sizes {
			if v.ProductID == id {
				delete(t.sizes, k)
			}
		}
		for k, v := range t.ratings {
			if v.ProductID == id {
				delete(t.ratings, k)
			}
		}
	})
	return affected, nil
}

func loadAssociations(t *tables, p *models.Product) {
	p.Images = filterSorted(t.images, func(v models.Image) bool { return v.ProductID == p.ID },
		func(v models.Image) time.Time { return v.CreatedAt })
	p.ProductColors = filterSorted(t.colors, func(v models.ProductColor) bool { return v.ProductID == p.ID },
		func(v models.ProductColor) time.Time { return v.CreatedAt })
	for i := range p.ProductColors {
		if color, ok := t.colorRefs[p.ProductColors[i].ColorID]; ok {
			c := color
			p.ProductColors[i].Color = &c
		}
	}
	p.ProductSizes = filterSorted(t.sizes, func(v models.ProductSize) bool { return v.ProductID == p.ID },
		func(v models.ProductSize) time.Time { return v.CreatedAt })
	if p.CategoryID != nil {
		if category, ok := t.categories[*p.CategoryID]; ok {
			p.Category = &category
		}
	}
	if p.CollectionID != nil {
		if collection, ok := t.collections[*p.CollectionID]; ok {
			p.Collection = &collection
		}
	}
}

// filterSorted returns the matching rows ordered by creation time.
func filterSorted[T any](rows map[uuid.UUID]T, keep func(T) bool, createdAt func(T) time.Time) []T {
	out := make([]T, 0)
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdAt(out[i]).Before(createdAt(out[j])) })
	return out
}

type variantRepository struct{ s *Store }

func (r *variantRepository) ListColors(ctx context.Context, productID uuid.UUID) ([]models.ProductColor, error) {
	var colors []models.ProductColor
	r.s.with(func(t *tables) {
		colors = filterSorted(t.colors, func(v models.ProductColor) bool { return v.ProductID == productID },
			func(v models.ProductColor) time.Time { return v.CreatedAt })
	})
	return colors, nil
}

func (r *variantRepository) CreateColors(ctx context.Context, colors []models.ProductColor) error {
	var err error
	r.s.with(func(t *tables) {
		for _, c := range colors {
			for _, existing := range t.colors {
				if existing.ProductID == c.ProductID && existing.ColorID == c.ColorID {
					err = fmt.Errorf("failed to create product colors: %w", repository.ErrDuplicate)
					return
				}
			}
		}
		for i := range colors {
			t.stamp(&colors[i].BaseModel)
			t.colors[colors[i].ID] = colors[i]
		}
	})
	return err
}

func (r *variantRepository) UpdateColorName(ctx context.Context, id uuid.UUID, name string) error {
	r.s.with(func(t *tables) {
		if c, ok := t.colors[id]; ok {
			c.Name = name
			c.UpdatedAt = t.now()
			t.colors[id] = c
		}
	})
	return nil
}

func (r *variantRepository) DeleteColorsNotIn(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		kept := toSet(keep)
		for k, v := range t.colors {
			if v.ProductID == productID && !kept[v.ColorID] {
				delete(t.colors, k)
				affected++
			}
		}
	})
	return affected, nil
}

func (r *variantRepository) ListSizes(ctx context.Context, productID uuid.UUID) ([]models.ProductSize, error) {
	var sizes []models.ProductSize
	r.s.with(func(t *tables) {
		sizes = filterSorted(t.sizes, func(v models.ProductSize) bool { return v.ProductID == productID },
			func(v models.ProductSize) time.Time { return v.CreatedAt })
	})
	return sizes, nil
}

func (r *variantRepository) CreateSizes(ctx context.Context, sizes []models.ProductSize) error {
	var err error
	r.s.with(func(t *tables) {
		for _, sz := range sizes {
			if sz.PurchaseQty < 0 || sz.RemainingQty < 0 || sz.OriginalQty < 0 {
				err = fmt.Errorf("failed to create product sizes: negative quantity for %s", sz.Name)
				return
			}
			for _, existing := range t.sizes {
				if existing.ProductID == sz.ProductID && existing.SizeID == sz.SizeID {
					err = fmt.Errorf("failed to create product sizes: %w", repository.ErrDuplicate)
					return
				}
			}
		}
		for i := range sizes {
			t.stamp(&sizes[i].BaseModel)
			t.sizes[sizes[i].ID] = sizes[i]
		}
	})
	return err
}

func (r *variantRepository) UpdateSizeStock(ctx context.Context, id uuid.UUID, name string, originalPrice float64, originalQty int) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		sz, ok := t.sizes[id]
		if !ok || sz.PurchaseQty > originalQty {
			return
		}
		sz.Name = name
		sz.OriginalPrice = originalPrice
		sz.OriginalQty = originalQty
		sz.RemainingQty = originalQty - sz.PurchaseQty
		sz.UpdatedAt = t.now()
		t.sizes[id] = sz
		affected = 1
	})
	return affected, nil
}

func (r *variantRepository) DeleteSizesNotIn(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		kept := toSet(keep)
		for k, v := range t.sizes {
			if v.ProductID == productID && !kept[v.SizeID] {
				delete(t.sizes, k)
				affected++
			}
		}
	})
	return affected, nil
}

func (r *variantRepository) FindSize(ctx context.Context, productID, sizeID uuid.UUID) (*models.ProductSize, error) {
	var (
		found models.ProductSize
		ok    bool
	)
	r.s.with(func(t *tables) {
		for _, v := range t.sizes {
			if v.ProductID == productID && v.SizeID == sizeID {
				found, ok = v, true
				return
			}
		}
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &found, nil
}

func (r *variantRepository) ReserveStock(ctx context.Context, productID, sizeID uuid.UUID, quantity int) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		for k, v := range t.sizes {
			if v.ProductID != productID || v.SizeID != sizeID {
				continue
			}
			if v.OriginalQty-v.PurchaseQty < quantity {
				return
			}
			v.PurchaseQty += quantity
			v.RemainingQty = v.OriginalQty - v.PurchaseQty
			v.UpdatedAt = t.now()
			t.sizes[k] = v
			affected = 1
			return
		}
	})
	return affected, nil
}

type imageRepository struct{ s *Store }

func (r *imageRepository) Create(ctx context.Context, images []models.Image) error {
	r.s.with(func(t *tables) {
		for i := range images {
			t.stamp(&images[i].BaseModel)
			t.images[images[i].ID] = images[i]
		}
	})
	return nil
}

func (r *imageRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, urls []string) error {
	r.s.with(func(t *tables) {
		for k, v := range t.images {
			if v.ProductID == productID {
				delete(t.images, k)
			}
		}
	})

	images := make([]models.Image, 0, len(urls))
	for _, url := range urls {
		images = append(images, models.Image{ProductID: productID, ImageURL: url})
	}
	return r.Create(ctx, images)
}

type ratingRepository struct{ s *Store }

func (r *ratingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	var (
		rating models.Rating
		ok     bool
	)
	r.s.with(func(t *tables) { rating, ok = t.ratings[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rating, nil
}

func (r *ratingRepository) FindByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*models.Rating, error) {
	var (
		rating models.Rating
		ok     bool
	)
	r.s.with(func(t *tables) {
		for _, v := range t.ratings {
			if v.ProductID == productID && v.UserID == userID {
				rating, ok = v, true
				return
			}
		}
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rating, nil
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	var err error
	r.s.with(func(t *tables) {
		for _, v := range t.ratings {
			if v.ProductID == rating.ProductID && v.UserID == rating.UserID {
				err = fmt.Errorf("failed to create rating: %w", repository.ErrDuplicate)
				return
			}
		}
		t.stamp(&rating.BaseModel)
		stored := *rating
		stored.User, stored.Product = nil, nil
		t.ratings[rating.ID] = stored
	})
	return err
}

func (r *ratingRepository) Update(ctx context.Context, id uuid.UUID, rating float64, description string) error {
	r.s.with(func(t *tables) {
		if v, ok := t.ratings[id]; ok {
			v.Rating = rating
			v.Description = description
			v.UpdatedAt = t.now()
			t.ratings[id] = v
		}
	})
	return nil
}

func (r *ratingRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var affected int64
	r.s.with(func(t *tables) {
		if _, ok := t.ratings[id]; ok {
			delete(t.ratings, id)
			affected = 1
		}
	})
	return affected, nil
}

func newestFirst(ratings []models.Rating) {
	sort.SliceStable(ratings, func(i, j int) bool { return ratings[i].CreatedAt.After(ratings[j].CreatedAt) })
}

func (r *ratingRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error) {
	ratings := make([]models.Rating, 0)
	r.s.with(func(t *tables) {
		for _, v := range t.ratings {
			if v.ProductID != productID {
				continue
			}
			if user, ok := t.users[v.UserID]; ok {
				v.User = &models.User{BaseModel: models.BaseModel{ID: user.ID}, Username: user.Username}
			}
			ratings = append(ratings, v)
		}
	})
	newestFirst(ratings)
	return ratings, nil
}

func (r *ratingRepository) ListAll(ctx context.Context, params utils.PaginationParams) ([]models.Rating, int64, error) {
	ratings := make([]models.Rating, 0)
	r.s.with(func(t *tables) {
		for _, v := range t.ratings {
			if user, ok := t.users[v.UserID]; ok {
				v.User = &models.User{BaseModel: models.BaseModel{ID: user.ID}, Username: user.Username, Email: user.Email}
			}
			if product, ok := t.products[v.ProductID]; ok {
				v.Product = &models.Product{BaseModel: models.BaseModel{ID: product.ID}, Name: product.Name}
			}
			ratings = append(ratings, v)
		}
	})
	newestFirst(ratings)
	start, end := window(len(ratings), utils.NormalizePagination(params))
	return ratings[start:end], int64(len(ratings)), nil
}

type sizeRepository struct{ s *Store }

func (r *sizeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Size, error) {
	var sizes []models.Size
	r.s.with(func(t *tables) {
		for _, id := range ids {
			if size, ok := t.sizeRefs[id]; ok {
				sizes = append(sizes, size)
			}
		}
	})
	return sizes, nil
}

type colorRepository struct{ s *Store }

func (r *colorRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Color, error) {
	var colors []models.Color
	r.s.with(func(t *tables) {
		for _, id := range ids {
			if color, ok := t.colorRefs[id]; ok {
				colors = append(colors, color)
			}
		}
	})
	return colors, nil
}

type categoryRepository struct{ s *Store }

func (r *categoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	r.s.with(func(t *tables) { _, ok = t.categories[id] })
	return ok, nil
}

type collectionRepository struct{ s *Store }

func (r *collectionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	r.s.with(func(t *tables) { _, ok = t.collections[id] })
	return ok, nil
}

type userRepository struct{ s *Store }

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	r.s.with(func(t *tables) { _, ok = t.users[id] })
	return ok, nil
}

// window returns the slice bounds of the requested page.
func window(n int, params utils.PaginationParams) (int, int) {
	start := params.Offset()
	if start > n {
		start = n
	}
	end := start + params.Limit
	if end > n {
		end = n
	}
	return start, end
}

func toSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
