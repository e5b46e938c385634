// internal/domain/cart/store.go
package cart

import (
	"context"
	"fmt"

	"github.com/your-org/storefront/internal/domain/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionKey is where the anonymous cart lives inside a session
const SessionKey = "cart"

// Store persists the lines of one cart. Put with a quantity below 1
// removes the line.
type Store interface {
	Lines(ctx context.Context) ([]Line, error)
	Line(ctx context.Context, productID uint) (Line, bool, error)
	Put(ctx context.Context, line Line) error
	Delete(ctx context.Context, productID uint) error
	Clear(ctx context.Context) error
}

// SessionSaver writes a session back to its backing store
type SessionSaver interface {
	Save(ctx context.Context, sess *session.Session) error
}

// SessionStore keeps anonymous cart lines in the session, in insertion order
type SessionStore struct {
	sess  *session.Session
	saver SessionSaver
}

// NewSessionStore creates a cart store over an explicit session
func NewSessionStore(sess *session.Session, saver SessionSaver) *SessionStore {
	return &SessionStore{sess: sess, saver: saver}
}

func (s *SessionStore) read() ([]Line, error) {
	var lines []Line
	if _, err := s.sess.Get(SessionKey, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *SessionStore) write(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		s.sess.Delete(SessionKey)
	} else if err := s.sess.Set(SessionKey, lines); err != nil {
		return err
	}
	return s.saver.Save(ctx, s.sess)
}

// Lines returns every line in insertion order
func (s *SessionStore) Lines(ctx context.Context) ([]Line, error) {
	return s.read()
}

// Line returns the line for a product
func (s *SessionStore) Line(ctx context.Context, productID uint) (Line, bool, error) {
	lines, err := s.read()
	if err != nil {
		return Line{}, false, err
	}
	for _, l := range lines {
		if l.ProductID == productID {
			return l, true, nil
		}
	}
	return Line{}, false, nil
}

// Put inserts or replaces a line
func (s *SessionStore) Put(ctx context.Context, line Line) error {
	if line.Quantity < 1 {
		return s.Delete(ctx, line.ProductID)
	}

	lines, err := s.read()
	if err != nil {
		return err
	}

	replaced := false
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity = line.Quantity
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}

	return s.write(ctx, lines)
}

// Delete removes a line; absent lines are ignored
func (s *SessionStore) Delete(ctx context.Context, productID uint) error {
	lines, err := s.read()
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(lines) {
		return nil
	}

	return s.write(ctx, kept)
}

// Clear empties the anonymous cart
func (s *SessionStore) Clear(ctx context.Context) error {
	if !s.sess.Has(SessionKey) {
		return nil
	}
	return s.write(ctx, nil)
}

// DBStore keeps an authenticated user's lines in cart_items
type DBStore struct {
	db     *gorm.DB
	userID uint
}

// NewDBStore creates a cart store for a user. Pass a transaction to make
// several operations atomic.
func NewDBStore(db *gorm.DB, userID uint) *DBStore {
	return &DBStore{db: db, userID: userID}
}

// Lines returns the user's lines, oldest first
func (s *DBStore) Lines(ctx context.Context) ([]Line, error) {
	var items []CartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines, nil
}

// Line returns the line for a product
func (s *DBStore) Line(ctx context.Context, productID uint) (Line, bool, error) {
	var items []CartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", s.userID, productID).
		Limit(1).
		Find(&items).Error; err != nil {
		return Line{}, false, fmt.Errorf("failed to retrieve cart item: %w", err)
	}
	if len(items) == 0 {
		return Line{}, false, nil
	}
	return Line{ProductID: items[0].ProductID, Quantity: items[0].Quantity}, true, nil
}

// Put upserts a line on (user_id, product_id)
func (s *DBStore) Put(ctx context.Context, line Line) error {
	if line.Quantity < 1 {
		return s.Delete(ctx, line.ProductID)
	}

	item := CartItem{UserID: s.userID, ProductID: line.ProductID, Quantity: line.Quantity}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

// Delete removes a line; absent lines are ignored
func (s *DBStore) Delete(ctx context.Context, productID uint) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", s.userID, productID).
		Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear empties the user's cart
func (s *DBStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
