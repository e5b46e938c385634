package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoginRotatesSession(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "a-very-long-test-secret-with-32-plus-chars", AccessTokenExpiry: time.Minute, RefreshTokenExpiry: time.Hour},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
	sessCfg := config.SessionConfig{CookieName: "session_id", TTL: time.Hour}

	mr := miniredis.RunT(t)
	sessions := session.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), sessCfg)
	h := NewAuthHandler(user.NewService(db, cfg, user.Deps{}, log), sessions, sessCfg, log)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Session(sessions, sessCfg, log))
	api.POST("/auth/login", h.Login)

	// an anonymous session that already holds a cart
	ctx := context.Background()
	anon := session.New()
	require.NoError(t, anon.Set("cart", []int{1}))
	require.NoError(t, sessions.Save(ctx, anon))

	hash, err := auth.NewPasswordManager(4).HashUnchecked("Str0ng!Pw")
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "is_active"}).
			AddRow(7, "ivan@example.com", hash, true))
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"ivan@example.com","password":"Str0ng!Pw"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "session_id", Value: anon.ID})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	newID := w.Header().Get("X-Session-ID")
	assert.NotEqual(t, anon.ID, newID)
	assert.False(t, mr.Exists("session:"+anon.ID))
	assert.True(t, mr.Exists("session:"+newID))

	var cookieID string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "session_id" {
			cookieID = ck.Value
		}
	}
	assert.Equal(t, newID, cookieID)

	rotated, err := sessions.Load(ctx, newID)
	require.NoError(t, err)
	assert.True(t, rotated.Has("cart"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
