// internal/domain/compare/list.go
package compare

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Spec is one named attribute of a compared product
type Spec struct {
	Name  string
	Value string
}

// Specs keeps attribute order; it encodes as a JSON object
type Specs []Spec

// Get returns the value of an attribute
func (s Specs) Get(name string) (string, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec.Value, true
		}
	}
	return "", false
}

func (s Specs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, spec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, spec.Name, spec.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Specs) UnmarshalJSON(data []byte) error {
	specs := Specs{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("specification %q: %w", key, err)
		}
		specs = append(specs, Spec{Name: key, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*s = specs
	return nil
}

// Entry is the snapshot of an offer taken when it was added. It encodes
// as [price, discounted_price, rating, {spec: value}, image_or_null, id].
type Entry struct {
	Name            string
	Price           decimal.Decimal
	DiscountedPrice decimal.Decimal
	Rating          float64
	Specifications  Specs
	Image           *string
	ProductID       uint
}

func (e Entry) MarshalJSON() ([]byte, error) {
	specs := e.Specifications
	if specs == nil {
		specs = Specs{}
	}
	return json.Marshal([]interface{}{
		e.Price,
		e.DiscountedPrice,
		e.Rating,
		specs,
		e.Image,
		e.ProductID,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 6 {
		return fmt.Errorf("compared entry has %d fields, want 6", len(parts))
	}

	targets := []interface{}{
		&e.Price,
		&e.DiscountedPrice,
		&e.Rating,
		&e.Specifications,
		&e.Image,
		&e.ProductID,
	}
	for i, target := range targets {
		if err := json.Unmarshal(parts[i], target); err != nil {
			return fmt.Errorf("compared entry field %d: %w", i, err)
		}
	}
	return nil
}

// List is a bounded, insertion ordered set of compared products keyed by
// product name
type List struct {
	entries  []Entry
	capacity int
}

// NewList creates an empty list holding at most capacity entries
func NewList(capacity int) *List {
	if capacity < 1 {
		capacity = 1
	}
	return &List{capacity: capacity}
}

// Capacity returns the maximum number of entries
func (l *List) Capacity() int { return l.capacity }

// Count returns the number of entries
func (l *List) Count() int { return len(l.entries) }

// All returns the entries, oldest first
func (l *List) All() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *List) index(name string) int {
	for i, e := range l.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether a product name is compared
func (l *List) Has(name string) bool {
	return l.index(name) >= 0
}

// Add stores a snapshot. An entry with the same name is replaced where it
// stands. Otherwise a full list evicts its oldest entry first, which is
// returned.
func (l *List) Add(e Entry) (evicted *Entry) {
	if i := l.index(e.Name); i >= 0 {
		l.entries[i] = e
		return nil
	}

	if len(l.entries) >= l.capacity {
		if old, ok := l.EvictOldest(); ok {
			evicted = &old
		}
	}
	l.entries = append(l.entries, e)
	return evicted
}

// EvictOldest drops the earliest inserted entry
func (l *List) EvictOldest() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	old := l.entries[0]
	l.entries = append(l.entries[:0:0], l.entries[1:]...)
	return old, true
}

// Remove drops an entry by product name; unknown names are ignored
func (l *List) Remove(name string) bool {
	i := l.index(name)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return true
}

func (l *List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, e.Name, e); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the stored order. Entries over capacity are evicted
// oldest first.
func (l *List) UnmarshalJSON(data []byte) error {
	if l.capacity < 1 {
		l.capacity = 1
	}
	l.entries = nil

	return decodeObject(data, func(key string, raw json.RawMessage) error {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("compared product %q: %w", key, err)
		}
		e.Name = key
		l.Add(e)
		return nil
	})
}

func writeMember(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// decodeObject walks a JSON object's members in document order
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
