package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]string
	results []uuid.UUID
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[uuid.UUID]string{}} }

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[p.ID] = p.Name
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uuid.UUID, error) {
	return int64(len(f.results)), f.results, nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = b
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type catalogEnv struct {
	fx     catalogFixture
	svc    *CatalogService
	index  *fakeIndex
	store  *fakeStore
	events *mykafka.Recorder
}

func newCatalogEnv(t *testing.T) *catalogEnv {
	t.Helper()

	r := newTestRepo(t)
	env := &catalogEnv{
		fx:     seedProduct(t, r, "30", 5),
		index:  newFakeIndex(),
		store:  &fakeStore{},
		events: &mykafka.Recorder{},
	}
	env.svc = &CatalogService{
		Repo:   r,
		Cache:  cache.NewMemory(0),
		Events: env.events,
		Index:  env.index,
		Media:  &MediaService{Store: env.store},
	}
	return env
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCatalogEnv(t)
	fx := env.fx

	p, err := env.svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name:       "Summer Dress",
		Price:      dec("49.999"),
		CategoryID: fx.Category.ID,
		Variants: []transport.VariantInput{
			{SizeID: fx.Size.ID, Color: "Red", Stock: 4},
			{SizeID: fx.Size.ID, Color: "Blue", SKU: "dress-blue", Stock: 1},
		},
		ImageURLs: []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "summer-dress", p.Slug)
	assert.True(t, dec("50").Equal(p.Price))
	require.Len(t, p.Variants, 2)
	assert.True(t, strings.HasPrefix(p.Variants[0].SKU, "SUMMER-DRESS-"), p.Variants[0].SKU)
	assert.Equal(t, "DRESS-BLUE", p.Variants[1].SKU)
	assert.Contains(t, env.index.docs, p.ID)

	second, err := env.svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Summer dress", CategoryID: fx.Category.ID})
	require.NoError(t, err)
	assert.Equal(t, "summer-dress-2", second.Slug)

	_, err = env.svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Other", Slug: "summer-dress", CategoryID: fx.Category.ID})
	require.ErrorIs(t, err, ErrConflict)

	_, err = env.svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Orphan", CategoryID: uuid.New()})
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name:       "Dup sku",
		CategoryID: fx.Category.ID,
		Variants:   []transport.VariantInput{{SizeID: fx.Size.ID, SKU: "dress-blue"}},
	})
	require.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, []string{"product_created", "product_created"}, env.events.Types())
}

func TestListProductsFiltersAndCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCatalogEnv(t)
	fx := env.fx
	r := env.svc.Repo

	child := models.Category{Name: "Polos", Slug: "polos", ParentID: &fx.Category.ID}
	require.NoError(t, r.DB.Create(&child).Error)

	featured := true
	_, err := env.svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Polo", Price: dec("15"), CategoryID: child.ID, IsFeatured: true})
	require.NoError(t, err)
	_, err = env.svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Hidden", Price: dec("5"), CategoryID: child.ID, IsArchived: true})
	require.NoError(t, err)

	page, err := env.svc.ListProducts(ctx, transport.ProductQuery{Category: fx.Category.Slug, Sort: "price_asc"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Polo", page.Items[0].Name)

	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{Featured: &featured})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	minPrice := dec("20")
	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{MinPrice: &minPrice})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{SizeName: fx.Size.Name})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{IncludeArchived: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{Category: "no-such-category"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	// The next list is served from cache until a write revalidates it.
	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.NoError(t, r.DB.Model(&models.Product{}).Where("name = ?", "Polo").Update("is_archived", true).Error)
	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	archived := true
	_, err = env.svc.PatchProduct(ctx, fx.Product.ID, transport.PatchProductRequest{IsArchived: &archived})
	require.NoError(t, err)
	page, err = env.svc.ListProducts(ctx, transport.ProductQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotContains(t, env.index.docs, fx.Product.ID)
}

func TestGetProductHidesArchived(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCatalogEnv(t)
	fx := env.fx

	p, err := env.svc.GetProduct(ctx, fx.Product.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, fx.Product.ID, p.ID)
	require.Len(t, p.Variants, 1)

	archived := true
	_, err = env.svc.PatchProduct(ctx, fx.Product.ID, transport.PatchProductRequest{IsArchived: &archived})
	require.NoError(t, err)

	_, err = env.svc.GetProduct(ctx, fx.Product.Slug, false)
	require.ErrorIs(t, err, ErrNotFound)

	p, err = env.svc.GetProduct(ctx, fx.Product.ID.String(), true)
	require.NoError(t, err)
	assert.True(t, p.IsArchived)
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCatalogEnv(t)
	fx := env.fx

	env.index.results = []uuid.UUID{fx.Product.ID, uuid.New()}
	page, err := env.svc.SearchProducts(ctx, "linen", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, fx.Product.ID, page.Items[0].ID)

	env.svc.Index = nil
	page, err = env.svc.SearchProducts(ctx, "LINEN", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestDeleteProductModes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCatalogEnv(t)
	fx := env.fx
	r := env.svc.Repo

	img, err := env.svc.UploadProductImage(ctx, fx.Product.ID, "front.png", "image/png", 4, bytes.NewReader([]byte("\x89PNG")))
	require.NoError(t, err)
	assert.Equal(t, 0, img.Position)
	assert.Len(t, env.store.objects, 1)

	mode, err := env.svc.DeleteProduct(ctx, fx.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, DeletedHard, mode)
	assert.Empty(t, env.store.objects)

	_, err = env.svc.DeleteProduct(ctx, fx.Product.ID)
	require.ErrorIs(t, err, ErrNotFound)

	held := seedProduct(t, r, "9", 2)
	seedOrder(t, r, held, "user_1", 1)

	mode, err = env.svc.DeleteProduct(ctx, held.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, DeletedSoft, mode)

	_, err = env.svc.GetProduct(ctx, held.Product.ID.String(), true)
	require.ErrorIs(t, err, ErrNotFound)

	var items []models.OrderItem
	require.NoError(t, r.DB.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, held.Product.ID, *items[0].ProductID)
}

func TestVariantsAndImages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newCatalogEnv(t)
	fx := env.fx

	v, err := env.svc.AddVariant(ctx, fx.Product.ID, transport.VariantInput{SizeID: fx.Size.ID, Color: "black", SKU: "lin-blk", Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, "LIN-BLK", v.SKU)

	_, err = env.svc.AddVariant(ctx, fx.Product.ID, transport.VariantInput{SizeID: uuid.New()})
	require.ErrorIs(t, err, ErrValidation)

	red, err := env.svc.AddVariant(ctx, fx.Product.ID, transport.VariantInput{SizeID: fx.Size.ID, Color: "red", SKU: "lin-red"})
	require.NoError(t, err)
	dupSKU := "lin-blk"
	_, err = env.svc.PatchVariant(ctx, red.ID, transport.PatchVariantRequest{SKU: &dupSKU})
	require.ErrorIs(t, err, ErrConflict)

	p, err := env.svc.GetProduct(ctx, fx.Product.ID.String(), true)
	require.NoError(t, err)
	assert.Len(t, p.Variants, 3)

	stock := 9
	v, err = env.svc.PatchVariant(ctx, v.ID, transport.PatchVariantRequest{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, v.Stock)

	require.NoError(t, env.svc.DeleteVariant(ctx, v.ID))
	require.ErrorIs(t, env.svc.DeleteVariant(ctx, v.ID), ErrNotFound)

	_, err = env.svc.UploadProductImage(ctx, fx.Product.ID, "notes.txt", "text/plain", 3, strings.NewReader("abc"))
	require.ErrorIs(t, err, ErrValidation)

	first, err := env.svc.UploadProductImage(ctx, fx.Product.ID, "a.jpg", "image/jpeg", 3, strings.NewReader("abc"))
	require.NoError(t, err)
	second, err := env.svc.UploadProductImage(ctx, fx.Product.ID, "b.jpg", "image/jpeg", 3, strings.NewReader("def"))
	require.NoError(t, err)
	assert.Equal(t, first.Position+1, second.Position)
	assert.True(t, strings.HasPrefix(first.URL, "https://cdn.test/uploads/"), first.URL)

	require.NoError(t, env.svc.DeleteProductImage(ctx, first.ID))
	assert.Len(t, env.store.objects, 1)

	env.svc.Media = &MediaService{}
	_, err = env.svc.UploadProductImage(ctx, fx.Product.ID, "c.jpg", "image/jpeg", 3, strings.NewReader("ghi"))
	require.ErrorIs(t, err, ErrUnavailable)
}
