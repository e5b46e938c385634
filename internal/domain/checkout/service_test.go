package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeOrders struct {
	drafts  map[uint]*order.Order
	placed  []*order.Order
	nextID  uint
	txDB    *gorm.DB
	created int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{drafts: map[uint]*order.Order{}, nextID: 1}
}

func (f *fakeOrders) GetOrCreateDraft(ctx context.Context, userID uint) (*order.Order, error) {
	if d, ok := f.drafts[userID]; ok {
		cp := *d
		return &cp, nil
	}
	d := &order.Order{ID: f.nextID, UserID: userID, CreatedAt: time.Now()}
	f.nextID++
	f.created++
	f.drafts[userID] = d
	cp := *d
	return &cp, nil
}

func (f *fakeOrders) FindDraft(ctx context.Context, userID uint) (*order.Order, error) {
	d, ok := f.drafts[userID]
	if !ok {
		return nil, order.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeOrders) byID(id uint) *order.Order {
	for _, d := range f.drafts {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (f *fakeOrders) UpdateContact(ctx context.Context, orderID uint, c order.Contact) error {
	d := f.byID(orderID)
	if d == nil {
		return order.ErrDraftNotFound
	}
	d.FIO, d.Email, d.Phone = c.FIO, c.Email, c.Phone
	return nil
}

func (f *fakeOrders) UpdateShipping(ctx context.Context, orderID uint, sh order.Shipping) error {
	d := f.byID(orderID)
	if d == nil {
		return order.ErrDraftNotFound
	}
	d.Delivery, d.City, d.Address = sh.Delivery, sh.City, sh.Address
	return nil
}

func (f *fakeOrders) Place(ctx context.Context, orderID uint, p order.Placement, afterPlace func(tx *gorm.DB) error) (*order.Order, error) {
	d := f.byID(orderID)
	if d == nil || d.InOrder {
		return nil, order.ErrAlreadyPlaced
	}
	if afterPlace != nil {
		if err := afterPlace(f.txDB); err != nil {
			return nil, err
		}
	}

	d.InOrder = true
	d.PaymentMethod = p.PaymentMethod
	d.Products = p.Products
	d.TotalSum = p.TotalSum
	d.TotalDiscountedSum = p.TotalDiscountedSum
	delete(f.drafts, d.UserID)
	f.placed = append(f.placed, d)
	return d, nil
}

func (f *fakeOrders) LastPlaced(ctx context.Context, userID uint) (*order.Order, error) {
	for i := len(f.placed) - 1; i >= 0; i-- {
		if f.placed[i].UserID == userID {
			return f.placed[i], nil
		}
	}
	return nil, order.ErrOrderNotFound
}

type fakeUsers map[uint]*user.User

func (f fakeUsers) GetProfile(ctx context.Context, userID uint) (*user.User, error) {
	u, ok := f[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

type fakeCart struct {
	summary *cart.Summary
}

func (f *fakeCart) Summary(ctx context.Context, store cart.Store) (*cart.Summary, error) {
	return f.summary, nil
}

type recordingNotifier struct {
	placed []*order.Order
}

func (r *recordingNotifier) OrderPlaced(o *order.Order) {
	r.placed = append(r.placed, o)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func filledCart() *cart.Summary {
	a := &product.SellerProduct{ID: 1, Product: product.Product{Name: "Phone"}, Seller: product.Seller{Name: "Acme"}}
	b := &product.SellerProduct{ID: 2, Product: product.Product{Name: "Case"}, Seller: product.Seller{Name: "Acme"}}
	return &cart.Summary{
		Items: []cart.Item{
			{ProductID: 1, Quantity: 1, Product: a, Price: decimal.NewFromInt(100), DiscountedPrice: decimal.NewFromInt(100)},
			{ProductID: 2, Quantity: 2, Product: b, Price: decimal.NewFromInt(40), DiscountedPrice: decimal.NewFromInt(30)},
		},
		TotalQuantity:        3,
		TotalPrice:           decimal.NewFromInt(180),
		TotalDiscountedPrice: decimal.NewFromInt(160),
	}
}

type fixture struct {
	svc      *Service
	orders   *fakeOrders
	cart     *fakeCart
	notifier *recordingNotifier
	mock     sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	orders := newFakeOrders()
	orders.txDB = db

	users := fakeUsers{
		7: {ID: 7, Email: "ivan@example.com", FirstName: "Ivan", LastName: "Petrov", Phone: "+79990000000", City: "Moscow", Address: "Tverskaya 1"},
	}
	c := &fakeCart{summary: filledCart()}
	n := &recordingNotifier{}

	return &fixture{
		svc:      NewService(orders, users, c, n, quietLogger()),
		orders:   orders,
		cart:     c,
		notifier: n,
		mock:     mock,
	}
}

func uid(v uint) *uint { return &v }

func TestStepOneInitialAnonymousGetsDefaults(t *testing.T) {
	f := newFixture(t)

	in, err := f.svc.StepOneInitial(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Initial{Delivery: "exp", PaymentMethod: "card"}, in)
}

func TestStepOneInitialPrefersDraftOverProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in, err := f.svc.StepOneInitial(ctx, uid(7))
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", in.FIO)
	assert.Equal(t, "Moscow", in.City)
	assert.Equal(t, "exp", in.Delivery)

	_, err = f.svc.StepOne(ctx, 7, StepOneForm{FIO: "Ivan P.", Email: "ivan@work.example.com", Phone: "8 (999) 111-22-33"})
	require.NoError(t, err)

	first, err := f.svc.StepOneInitial(ctx, uid(7))
	require.NoError(t, err)
	second, err := f.svc.StepOneInitial(ctx, uid(7))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Ivan P.", first.FIO)
	assert.Equal(t, "ivan@work.example.com", first.Email)
	assert.Equal(t, "+79991112233", first.Phone)
	assert.Equal(t, "Moscow", first.City)
}

func TestStepOneInvalidDoesNotMutate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StepOne(context.Background(), 7, StepOneForm{FIO: "  ", Email: "not-an-email"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StepOne, verr.Step)
	assert.Contains(t, verr.Fields, "fio")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "phone")
	assert.Zero(t, f.orders.created)
}

func TestStepOneReusesDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := StepOneForm{FIO: "Ivan", Email: "ivan@example.com", Phone: "+79990000000"}

	first, err := f.svc.StepOne(ctx, 7, form)
	require.NoError(t, err)
	second, err := f.svc.StepOne(ctx, 7, form)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.orders.created)
}

func TestStepTwoWithoutDraft(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StepTwo(context.Background(), 7, StepTwoForm{Delivery: "ord", City: "Moscow", Address: "Arbat 2"})
	assert.ErrorIs(t, err, order.ErrDraftNotFound)

	_, err = f.svc.StepTwoInitial(context.Background(), 7)
	assert.ErrorIs(t, err, order.ErrDraftNotFound)
}

func TestStepTwoRejectsUnknownDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.StepOne(ctx, 7, StepOneForm{FIO: "Ivan", Email: "ivan@example.com", Phone: "1"})
	require.NoError(t, err)

	_, err = f.svc.StepTwo(ctx, 7, StepTwoForm{Delivery: "drone", City: "Moscow", Address: "Arbat 2"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be one of: ord, exp", verr.Fields["delivery"])

	draft, err := f.orders.FindDraft(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, draft.Delivery)
}

func TestFullCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mock.ExpectExec(`DELETE FROM "cart_items" WHERE user_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	_, err := f.svc.StepOne(ctx, 7, StepOneForm{FIO: "Ivan", Email: "ivan@example.com", Phone: "+79990000000"})
	require.NoError(t, err)
	_, err = f.svc.StepTwo(ctx, 7, StepTwoForm{Delivery: "ord", City: "Moscow", Address: "Arbat 2"})
	require.NoError(t, err)

	placed, err := f.svc.StepThree(ctx, 7, nil, StepThreeForm{PaymentMethod: "account"})
	require.NoError(t, err)

	assert.True(t, placed.InOrder)
	assert.Equal(t, order.PaymentAccount, placed.PaymentMethod)
	assert.True(t, placed.TotalDiscountedSum.Equal(decimal.NewFromInt(160)))
	require.Len(t, placed.Products, 2)
	assert.Equal(t, "Case", placed.Products[1].Name)
	assert.Equal(t, "Acme", placed.Products[1].SellerName)
	assert.Equal(t, 2, placed.Products[1].Quantity)
	assert.Len(t, f.notifier.placed, 1)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	last, err := f.svc.StepFour(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, last.ID)

	// the draft is gone so a second submit cannot place again
	_, err = f.svc.StepThree(ctx, 7, nil, StepThreeForm{PaymentMethod: "account"})
	assert.ErrorIs(t, err, order.ErrDraftNotFound)
	assert.True(t, last.InOrder)
}

func TestStepThreeEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.summary = &cart.Summary{Items: []cart.Item{}}

	_, err := f.svc.StepOne(ctx, 7, StepOneForm{FIO: "Ivan", Email: "ivan@example.com", Phone: "1"})
	require.NoError(t, err)
	_, err = f.svc.StepTwo(ctx, 7, StepTwoForm{Delivery: "ord", City: "Moscow", Address: "Arbat 2"})
	require.NoError(t, err)

	_, err = f.svc.StepThree(ctx, 7, nil, StepThreeForm{PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.notifier.placed)
}

func TestStepThreeRequiresStepTwo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StepOne(ctx, 7, StepOneForm{FIO: "Ivan", Email: "ivan@example.com", Phone: "+79990000000"})
	require.NoError(t, err)

	_, err = f.svc.StepThree(ctx, 7, nil, StepThreeForm{PaymentMethod: "card"})
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, StepTwo, incomplete.Missing)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	_, err = f.svc.StepThreeInitial(ctx, 7)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	draft, err := f.orders.FindDraft(ctx, 7)
	require.NoError(t, err)
	assert.False(t, draft.InOrder)
	assert.Empty(t, f.orders.placed)
	assert.Empty(t, f.notifier.placed)
}

func TestStepTwoRequiresContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.drafts[7] = &order.Order{ID: 40, UserID: 7}

	_, err := f.svc.StepTwo(ctx, 7, StepTwoForm{Delivery: "ord", City: "Moscow", Address: "Arbat 2"})
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, StepOne, incomplete.Missing)
	assert.Empty(t, f.orders.drafts[7].City)

	_, err = f.svc.StepTwoInitial(ctx, 7)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	_, err = f.svc.StepThree(ctx, 7, nil, StepThreeForm{PaymentMethod: "card"})
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, StepOne, incomplete.Missing)
}

func TestStepFourWithoutOrders(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StepFour(context.Background(), 7)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Step: StepTwo, Fields: map[string]string{"city": "x", "address": "y"}}
	assert.Equal(t, "invalid step_two form: address, city", err.Error())
}
