package cart

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/discount"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memStore is an in-memory Store for service tests
type memStore struct {
	lines []Line
}

func (m *memStore) Lines(ctx context.Context) ([]Line, error) {
	return append([]Line(nil), m.lines...), nil
}

func (m *memStore) Line(ctx context.Context, productID uint) (Line, bool, error) {
	for _, l := range m.lines {
		if l.ProductID == productID {
			return l, true, nil
		}
	}
	return Line{}, false, nil
}

func (m *memStore) Put(ctx context.Context, line Line) error {
	if line.Quantity < 1 {
		return m.Delete(ctx, line.ProductID)
	}
	for i := range m.lines {
		if m.lines[i].ProductID == line.ProductID {
			m.lines[i] = line
			return nil
		}
	}
	m.lines = append(m.lines, line)
	return nil
}

func (m *memStore) Delete(ctx context.Context, productID uint) error {
	kept := m.lines[:0]
	for _, l := range m.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	m.lines = kept
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.lines = nil
	return nil
}

type fakeCatalog struct {
	offers map[uint]*product.SellerProduct
}

func (f *fakeCatalog) GetSellerProduct(ctx context.Context, id uint) (*product.SellerProduct, error) {
	sp, ok := f.offers[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return sp, nil
}

func (f *fakeCatalog) GetSellerProducts(ctx context.Context, ids []uint) (map[uint]*product.SellerProduct, error) {
	out := make(map[uint]*product.SellerProduct)
	for _, id := range ids {
		if sp, ok := f.offers[id]; ok {
			out[id] = sp
		}
	}
	return out, nil
}

const (
	productA uint = 1
	productB uint = 2
	productC uint = 3
)

func newCatalog() *fakeCatalog {
	return &fakeCatalog{offers: map[uint]*product.SellerProduct{
		productA: {ID: productA, Price: decimal.RequireFromString("100.00")},
		productB: {ID: productB, Price: decimal.RequireFromString("40.00"), Discount: &product.Discount{
			Kind: product.DiscountPercent, Value: decimal.NewFromInt(25), IsActive: true,
		}},
		productC: {ID: productC, Price: decimal.RequireFromString("9.99")},
	}}
}

func newTestService(t *testing.T, db *gorm.DB, sessions SessionBackend) *Service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewService(db, sessions, newCatalog(), discount.NewResolver(), log)
}

func TestAddIncrementsPerCall(t *testing.T) {
	svc := newTestService(t, nil, nil)
	store := &memStore{}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Add(ctx, store, productA))
	}
	require.NoError(t, svc.Add(ctx, store, productB))

	line, ok, _ := store.Line(ctx, productA)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)

	line, ok, _ = store.Line(ctx, productB)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	svc := newTestService(t, nil, nil)
	store := &memStore{}

	err := svc.Add(context.Background(), store, 999)
	assert.ErrorIs(t, err, product.ErrProductNotFound)
	assert.Empty(t, store.lines)
}

func TestUpdateQuantitySameProduct(t *testing.T) {
	svc := newTestService(t, nil, nil)
	store := &memStore{lines: []Line{{ProductID: productA, Quantity: 2}}}
	ctx := context.Background()

	require.NoError(t, svc.UpdateQuantity(ctx, store, productA, 5, productA))
	assert.Equal(t, []Line{{ProductID: productA, Quantity: 5}}, store.lines)

	require.NoError(t, svc.UpdateQuantity(ctx, store, productA, 0, productA))
	assert.Equal(t, []Line{{ProductID: productA, Quantity: 1}}, store.lines, "quantity is clamped to 1")

	require.NoError(t, svc.UpdateQuantity(ctx, store, productA, -4, productA))
	assert.Len(t, store.lines, 1)
}

func TestUpdateQuantityReplacesProduct(t *testing.T) {
	svc := newTestService(t, nil, nil)
	store := &memStore{lines: []Line{{ProductID: productA, Quantity: 2}, {ProductID: productC, Quantity: 1}}}

	require.NoError(t, svc.UpdateQuantity(context.Background(), store, productB, 4, productA))

	assert.ElementsMatch(t, []Line{{ProductID: productC, Quantity: 1}, {ProductID: productB, Quantity: 4}}, store.lines)
}

func TestIncreaseDecreaseRemove(t *testing.T) {
	svc := newTestService(t, nil, nil)
	store := &memStore{lines: []Line{{ProductID: productA, Quantity: 1}}}
	ctx := context.Background()

	require.NoError(t, svc.Increase(ctx, store, productA))
	line, _, _ := store.Line(ctx, productA)
	assert.Equal(t, 2, line.Quantity)

	require.NoError(t, svc.Decrease(ctx, store, productA))
	require.NoError(t, svc.Decrease(ctx, store, productA))
	_, ok, _ := store.Line(ctx, productA)
	assert.False(t, ok, "a line never drops to zero")

	assert.ErrorIs(t, svc.Increase(ctx, store, productA), ErrItemNotInCart)
	assert.ErrorIs(t, svc.Decrease(ctx, store, productA), ErrItemNotInCart)
	assert.NoError(t, svc.Remove(ctx, store, productA))
}

func TestMergeKeepsDestination(t *testing.T) {
	ctx := context.Background()
	src := &memStore{lines: []Line{{ProductID: productA, Quantity: 1}, {ProductID: productB, Quantity: 2}}}
	dst := &memStore{lines: []Line{{ProductID: productB, Quantity: 1}}}

	require.NoError(t, Merge(ctx, dst, src))
	want := []Line{{ProductID: productB, Quantity: 1}, {ProductID: productA, Quantity: 1}}
	assert.Equal(t, want, dst.lines)

	require.NoError(t, Merge(ctx, dst, src))
	assert.Equal(t, want, dst.lines, "merge is idempotent")
}

func TestSummaryTotals(t *testing.T) {
	svc := newTestService(t, nil, nil)
	store := &memStore{lines: []Line{
		{ProductID: productA, Quantity: 1},
		{ProductID: productB, Quantity: 2},
		{ProductID: 404, Quantity: 7},
	}}
	ctx := context.Background()

	summary, err := svc.Summary(ctx, store)
	require.NoError(t, err)

	require.Len(t, summary.Items, 2)
	assert.Equal(t, 3, summary.TotalQuantity)
	assert.True(t, summary.TotalPrice.Equal(decimal.RequireFromString("180")), summary.TotalPrice.String())
	assert.True(t, summary.TotalDiscountedPrice.Equal(decimal.RequireFromString("160")), summary.TotalDiscountedPrice.String())

	total, err := svc.TotalPrice(ctx, store)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(160)))

	qty, err := svc.TotalQuantity(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, summary.TotalQuantity, qty, "a line whose offer is gone is not counted")
}

func TestEmptyCartSummary(t *testing.T) {
	svc := newTestService(t, nil, nil)

	summary, err := svc.Summary(context.Background(), &memStore{})
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.True(t, summary.TotalDiscountedPrice.IsZero())
}

func setupSessions(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewStore(client, config.SessionConfig{TTL: time.Hour, LockTTL: time.Second}), mr
}

func TestSessionStorePersistsInOrder(t *testing.T) {
	sessions, _ := setupSessions(t)
	ctx := context.Background()
	sess := session.New()
	store := NewSessionStore(sess, sessions)

	require.NoError(t, store.Put(ctx, Line{ProductID: productB, Quantity: 2}))
	require.NoError(t, store.Put(ctx, Line{ProductID: productA, Quantity: 1}))
	require.NoError(t, store.Put(ctx, Line{ProductID: productB, Quantity: 3}))

	reloaded, err := sessions.Load(ctx, sess.ID)
	require.NoError(t, err)
	lines, err := NewSessionStore(reloaded, sessions).Lines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Line{{ProductID: productB, Quantity: 3}, {ProductID: productA, Quantity: 1}}, lines)

	require.NoError(t, store.Put(ctx, Line{ProductID: productA, Quantity: 0}))
	lines, _ = store.Lines(ctx)
	assert.Equal(t, []Line{{ProductID: productB, Quantity: 3}}, lines)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, sess.Has(SessionKey))
}

func TestSessionStoreSharesSessionWithOtherKeys(t *testing.T) {
	sessions, _ := setupSessions(t)
	ctx := context.Background()
	sess := session.New()
	require.NoError(t, sess.Set("compared", map[string]int{"x": 1}))

	store := NewSessionStore(sess, sessions)
	require.NoError(t, store.Put(ctx, Line{ProductID: productA, Quantity: 1}))
	require.NoError(t, store.Clear(ctx))

	assert.True(t, sess.Has("compared"))
}

func TestMergeSessionIntoUserAtLogin(t *testing.T) {
	sessions, _ := setupSessions(t)
	ctx := context.Background()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	svc := newTestService(t, db, sessions)

	// anonymous cart: A x1, B x2
	sess := session.New()
	anon := NewSessionStore(sess, sessions)
	require.NoError(t, svc.Add(ctx, anon, productA))
	require.NoError(t, svc.UpdateQuantity(ctx, anon, productB, 2, productB))

	// user cart already holds B x1
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE user_id = .+ AND product_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity"}))
	mock.ExpectQuery(`INSERT INTO "cart_items" .* ON CONFLICT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE user_id = .+ AND product_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity"}).AddRow(5, 7, productB, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.MergeSessionIntoUser(ctx, sess, 7))
	assert.NoError(t, mock.ExpectationsWereMet())

	reloaded, err := sessions.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Has(SessionKey), "anonymous cart is cleared after merge")
}

func TestMergeLoginScenarioTotals(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	anon := &memStore{}
	require.NoError(t, svc.Add(ctx, anon, productA))
	require.NoError(t, svc.Add(ctx, anon, productB))
	require.NoError(t, svc.Add(ctx, anon, productB))

	user := &memStore{}
	require.NoError(t, svc.Add(ctx, user, productB))

	require.NoError(t, Merge(ctx, user, anon))

	a, _, _ := user.Line(ctx, productA)
	b, _, _ := user.Line(ctx, productB)
	assert.Equal(t, 1, a.Quantity)
	assert.Equal(t, 1, b.Quantity)

	total, err := svc.TotalQuantity(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestMergeSessionIntoUserEmptyCartSkipsDatabase(t *testing.T) {
	sessions, _ := setupSessions(t)
	svc := newTestService(t, nil, sessions)

	assert.NoError(t, svc.MergeSessionIntoUser(context.Background(), session.New(), 7))
	assert.NoError(t, svc.MergeSessionIntoUser(context.Background(), nil, 7))
}

func TestStoreFor(t *testing.T) {
	sessions, _ := setupSessions(t)
	svc := newTestService(t, nil, sessions)
	uid := uint(3)

	_, isDB := svc.StoreFor(Owner{UserID: &uid}).(*DBStore)
	assert.True(t, isDB)

	_, isSession := svc.StoreFor(Owner{Session: session.New()}).(*SessionStore)
	assert.True(t, isSession)
}
