package user

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMerger struct {
	merged []uint
	err    error
}

func (r *recordingMerger) MergeSessionIntoUser(ctx context.Context, sess *session.Session, userID uint) error {
	r.merged = append(r.merged, userID)
	return r.err
}

type recordingMailer struct {
	passwords []string
}

func (r *recordingMailer) SendWelcomeEmail(ctx context.Context, userEmail, userName string) error {
	return nil
}

func (r *recordingMailer) SendTemporaryPasswordEmail(ctx context.Context, userEmail, userName, password string) error {
	r.passwords = append(r.passwords, password)
	return nil
}

type fakeStats struct {
	last  *order.Order
	count int64
}

func (f fakeStats) LastPlaced(ctx context.Context, userID uint) (*order.Order, error) {
	if f.last == nil {
		return nil, order.ErrOrderNotFound
	}
	return f.last, nil
}

func (f fakeStats) CountPlaced(ctx context.Context, userID uint) (int64, error) {
	return f.count, nil
}

type fakeViewed []product.Product

func (f fakeViewed) RecentlyViewed(ctx context.Context, userID uint, limit int) ([]product.Product, error) {
	if len(f) > limit {
		return f[:limit], nil
	}
	return f, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "storefront"},
		JWT:      config.JWTConfig{Secret: "a-very-long-test-secret-with-32-plus-chars", AccessTokenExpiry: 15 * time.Minute, RefreshTokenExpiry: time.Hour},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
}

func newTestService(t *testing.T, deps Deps) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewService(db, testConfig(), deps, l), mock
}

var userColumns = []string{"id", "email", "password", "first_name", "last_name", "phone", "city", "address", "is_active"}

func hashed(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLoginMergesSessionCart(t *testing.T) {
	merger := &recordingMerger{}
	svc, mock := newTestService(t, Deps{Carts: merger})

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE .*email = .+ AND is_active = .+`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "ivan@example.com", hashed(t, "Str0ng!Pw"), "Ivan", "Petrov", "+79990000000", "Moscow", "Tverskaya 1", true))
	mock.ExpectExec(`UPDATE "users" SET "last_login_at"=.+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), session.New(), &LoginRequest{Email: " Ivan@Example.com ", Password: "Str0ng!Pw"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Empty(t, resp.User.Password)
	assert.Equal(t, []uint{7}, merger.merged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSurvivesMergeFailure(t *testing.T) {
	merger := &recordingMerger{err: fmt.Errorf("%w: %v", session.ErrLocked, context.DeadlineExceeded)}
	svc, mock := newTestService(t, Deps{Carts: merger})

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "ivan@example.com", hashed(t, "Str0ng!Pw"), "Ivan", "Petrov", "", "", "", true))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), session.New(), &LoginRequest{Email: "ivan@example.com", Password: "Str0ng!Pw"})
	require.NoError(t, err, "a busy session lock does not fail the login")
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, []uint{7}, merger.merged)
}

func TestLoginWrongPassword(t *testing.T) {
	merger := &recordingMerger{}
	svc, mock := newTestService(t, Deps{Carts: merger})

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "ivan@example.com", hashed(t, "Str0ng!Pw"), "Ivan", "Petrov", "", "", "", true))

	_, err := svc.Login(context.Background(), session.New(), &LoginRequest{Email: "ivan@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, merger.merged)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock := newTestService(t, Deps{})

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := svc.Login(context.Background(), nil, &LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, mock := newTestService(t, Deps{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = .+`).
		WithArgs("ivan@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.Register(context.Background(), nil, &RegisterRequest{
		Email: "IVAN@example.com", Password: "Str0ng!Pw", ConfirmPassword: "Str0ng!Pw",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidatesPasswords(t *testing.T) {
	svc, mock := newTestService(t, Deps{})

	_, err := svc.Register(context.Background(), nil, &RegisterRequest{Email: "a@example.com", Password: "a", ConfirmPassword: "b"})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err = svc.Register(context.Background(), nil, &RegisterRequest{Email: "a@example.com", Password: "weak", ConfirmPassword: "weak"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRestorePasswordMailsTemporaryPassword(t *testing.T) {
	mailer := &recordingMailer{}
	svc, mock := newTestService(t, Deps{Mailer: mailer})

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE .*email = .+`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "ivan@example.com", "old", "Ivan", "Petrov", "", "", "", true))
	mock.ExpectExec(`UPDATE "users" SET "password"=.+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.RestorePassword(context.Background(), "ivan@example.com"))
	require.Len(t, mailer.passwords, 1)
	assert.Len(t, mailer.passwords[0], 15)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestorePasswordUnknownEmail(t *testing.T) {
	mailer := &recordingMailer{}
	svc, mock := newTestService(t, Deps{Mailer: mailer})

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(sqlmock.NewRows(userColumns))

	err := svc.RestorePassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, mailer.passwords)
}

func TestAccountOverview(t *testing.T) {
	viewed := fakeViewed{{ID: 5, Name: "Phone"}, {ID: 4, Name: "Case"}, {ID: 3, Name: "Cable"}, {ID: 2, Name: "Charger"}}
	svc, mock := newTestService(t, Deps{
		Orders: fakeStats{last: &order.Order{ID: 9, UserID: 7, InOrder: true}, count: 4},
		Viewed: viewed,
	})

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE .*id = .+ AND is_active = .+`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "ivan@example.com", "hash", "Ivan", "Petrov", "", "", "", true))

	account, err := svc.Account(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, uint(9), account.LastOrder.ID)
	assert.Equal(t, int64(4), account.OrdersCount)
	assert.Len(t, account.ViewedProducts, 3)
	assert.Empty(t, account.User.Password)
}

func TestAccountWithoutOrders(t *testing.T) {
	svc, mock := newTestService(t, Deps{Orders: fakeStats{}, Viewed: fakeViewed{}})

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "ivan@example.com", "hash", "Ivan", "", "", "", "", true))

	account, err := svc.Account(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, account.LastOrder)
	assert.Zero(t, account.OrdersCount)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+7 (999) 111-22-33": "+79991112233",
		"8 999 111 22 33":    "+79991112233",
		"9991112233":         "+79991112233",
		"+44 20 7946 0958":   "+442079460958",
		"  ":                 "",
		"442079460958":       "+442079460958",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{Email: "ivan@example.com"}
	assert.Equal(t, "ivan@example.com", u.GetDisplayName())
	u.FirstName, u.LastName = "Ivan", "Petrov"
	assert.Equal(t, "Ivan Petrov", u.GetDisplayName())
}
