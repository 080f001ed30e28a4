package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sweets-storefront/internal/infrastructure/cache"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/pkg/logger"
	"github.com/your-org/sweets-storefront/internal/pkg/validation"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func kajuKatli() *commerce.Product {
	return &commerce.Product{
		ID:    4,
		Title: "Kaju Katli",
		Items: []commerce.Item{
			{ID: 11, Quantity: 250, Price: d(300), DiscountedPrice: d(250)},
			{ID: 12, Quantity: 500, Price: d(560), DiscountedPrice: d(500)},
			{ID: 13, Quantity: 1000, Price: d(1000)},
		},
	}
}

func TestPriceOf_Variants(t *testing.T) {
	pr := PriceOf(kajuKatli())

	assert.True(t, pr.HasVariants)
	assert.True(t, d(250).Equal(pr.MinPrice))
	assert.True(t, d(1000).Equal(pr.MaxPrice))
	assert.True(t, d(300).Equal(pr.OriginalPrice))
	assert.True(t, pr.Discounted)
	assert.Equal(t, int64(17), pr.DiscountPercent)
}

func TestPriceOf_NoVariants(t *testing.T) {
	pr := PriceOf(&commerce.Product{Price: d(120), DiscountedPrice: d(90)})

	assert.False(t, pr.HasVariants)
	assert.True(t, d(90).Equal(pr.MinPrice))
	assert.True(t, d(90).Equal(pr.MaxPrice))
	assert.Equal(t, int64(25), pr.DiscountPercent)
}

func TestPriceOf_IgnoresHigherDiscountedPrice(t *testing.T) {
	pr := PriceOf(&commerce.Product{Price: d(100), DiscountedPrice: d(150)})

	assert.True(t, d(100).Equal(pr.MinPrice))
	assert.False(t, pr.Discounted)
	assert.Zero(t, pr.DiscountPercent)
}

func TestSelectVariant(t *testing.T) {
	single := &commerce.Product{ID: 5, Items: []commerce.Item{{ID: 21, Quantity: 250}}}
	plain := &commerce.Product{ID: 6}

	tests := []struct {
		name    string
		product *commerce.Product
		itemID  int
		wantID  int
		wantErr error
	}{
		{"no variants", plain, 0, 0, nil},
		{"no variants with item", plain, 9, 0, ErrUnknownVariant},
		{"single implicit", single, 0, 21, nil},
		{"many requires choice", kajuKatli(), 0, 0, ErrVariantRequired},
		{"many explicit", kajuKatli(), 12, 12, nil},
		{"foreign item", kajuKatli(), 21, 0, ErrUnknownVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := SelectVariant(tt.product, tt.itemID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantID == 0 {
				assert.Nil(t, item)
				return
			}
			require.NotNil(t, item)
			assert.Equal(t, tt.wantID, item.ID)
		})
	}
}

func TestResolveEntity(t *testing.T) {
	e, err := ResolveEntity(&commerce.Product{ID: 6, Title: "Rasgulla"}, 0)
	require.NoError(t, err)
	assert.Equal(t, commerce.ContentTypeProduct, e.ContentType)
	assert.Equal(t, 6, e.ObjectID)
	assert.Equal(t, "Rasgulla", e.Title)

	e, err = ResolveEntity(kajuKatli(), 11)
	require.NoError(t, err)
	assert.Equal(t, commerce.ContentTypeItem, e.ContentType)
	assert.Equal(t, 11, e.ObjectID)
	assert.Equal(t, "Kaju Katli (250g)", e.Title)

	_, err = ResolveEntity(kajuKatli(), 0)
	assert.ErrorIs(t, err, ErrVariantRequired)
}

type fakeCatalog struct {
	productCalls int
	listCalls    int
	err          error
}

func (f *fakeCatalog) ListProducts(ctx context.Context, q commerce.ProductQuery) (*commerce.Page[commerce.Product], error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &commerce.Page[commerce.Product]{Count: 1, Results: []commerce.Product{*kajuKatli()}}, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int) (*commerce.Product, error) {
	f.productCalls++
	if f.err != nil {
		return nil, f.err
	}
	p := kajuKatli()
	p.ID = id
	return p, nil
}

func (f *fakeCatalog) ListCategories(ctx context.Context, q commerce.CategoryQuery) (*commerce.Page[commerce.Category], error) {
	return &commerce.Page[commerce.Category]{Count: 1, Results: []commerce.Category{{ID: 1, Title: "Barfi"}}}, nil
}

func (f *fakeCatalog) GetCategory(ctx context.Context, id int) (*commerce.Category, error) {
	return &commerce.Category{ID: id, Title: "Barfi"}, nil
}

func setupCatalog(t *testing.T, api CatalogAPI, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	log := logger.Discard()
	return NewService(api, cache.New(client, "catalog", log), ttl, log), mr
}

func TestService_ListProductsAddsPricing(t *testing.T) {
	svc, _ := setupCatalog(t, &fakeCatalog{}, time.Minute)

	resp, err := svc.ListProducts(context.Background(), commerce.ProductQuery{Page: 1})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Kaju Katli", resp.Products[0].Title)
	assert.True(t, d(250).Equal(resp.Products[0].Pricing.MinPrice))
}

func TestService_GetProductIsCached(t *testing.T) {
	api := &fakeCatalog{}
	svc, mr := setupCatalog(t, api, time.Minute)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, 4)
	require.NoError(t, err)
	p, err := svc.GetProduct(ctx, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, api.productCalls)
	assert.Equal(t, 4, p.ID)
	assert.True(t, mr.Exists("catalog:product:4"))
}

func TestService_ZeroTTLAlwaysHitsOrigin(t *testing.T) {
	api := &fakeCatalog{}
	svc, _ := setupCatalog(t, api, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.ListProducts(ctx, commerce.ProductQuery{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, api.listCalls)
}

func TestService_ErrorsWrapOrigin(t *testing.T) {
	origin := &commerce.APIError{StatusCode: 404}
	svc, _ := setupCatalog(t, &fakeCatalog{err: origin}, time.Minute)

	_, err := svc.GetProduct(context.Background(), 99)
	assert.True(t, commerce.IsNotFound(err))
}

func TestService_Categories(t *testing.T) {
	svc, _ := setupCatalog(t, &fakeCatalog{}, time.Minute)

	page, err := svc.ListCategories(context.Background(), commerce.CategoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Barfi", page.Results[0].Title)

	c, err := svc.GetCategory(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.ID)
}

type fakeReviews struct {
	ratings []commerce.Rating
	created []commerce.RatingRequest
	err     error
}

func (f *fakeReviews) ListRatings(ctx context.Context, contentType string, objectID int) ([]commerce.Rating, error) {
	return f.ratings, f.err
}

func (f *fakeReviews) CreateRating(ctx context.Context, token string, req commerce.RatingRequest) (*commerce.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return &commerce.Rating{ID: 1, Rating: req.Rating, Review: req.Review}, nil
}

func TestReviewService_ListAverages(t *testing.T) {
	api := &fakeReviews{ratings: []commerce.Rating{{Rating: 4}, {Rating: 5}}}
	svc := NewReviewService(api, logger.Discard())

	summary, err := svc.List(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 4.5, summary.AverageRating)
}

func TestReviewService_ListEmpty(t *testing.T) {
	svc := NewReviewService(&fakeReviews{}, logger.Discard())

	summary, err := svc.List(context.Background(), 4)
	require.NoError(t, err)
	assert.NotNil(t, summary.Reviews)
	assert.Zero(t, summary.AverageRating)
}

func TestReviewService_CreateValidates(t *testing.T) {
	api := &fakeReviews{}
	svc := NewReviewService(api, logger.Discard())

	_, err := svc.Create(context.Background(), "tok", 4, CreateReviewRequest{Rating: 6, Review: "great"})
	require.Error(t, err)
	assert.Contains(t, validation.FieldErrors(err), "rating")

	_, err = svc.Create(context.Background(), "tok", 4, CreateReviewRequest{Rating: 5, Review: "   "})
	require.Error(t, err)
	assert.Contains(t, validation.FieldErrors(err), "review")

	assert.Empty(t, api.created)
}

func TestReviewService_Create(t *testing.T) {
	api := &fakeReviews{}
	svc := NewReviewService(api, logger.Discard())

	r, err := svc.Create(context.Background(), "tok", 4, CreateReviewRequest{Rating: 5, Review: " Fresh and soft "})
	require.NoError(t, err)
	assert.Equal(t, "Fresh and soft", r.Review)
	require.Len(t, api.created, 1)
	assert.Equal(t, commerce.ContentTypeProduct, api.created[0].ContentType)
	assert.Equal(t, 4, api.created[0].ObjectID)
}

func TestReviewService_CreatePropagatesUnauthorized(t *testing.T) {
	svc := NewReviewService(&fakeReviews{err: commerce.ErrUnauthorized}, logger.Discard())

	_, err := svc.Create(context.Background(), "tok", 4, CreateReviewRequest{Rating: 5, Review: "ok"})
	assert.True(t, errors.Is(err, commerce.ErrUnauthorized))
}
