package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/discount"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
)

func entry(name string, id uint, specs ...Spec) Entry {
	return Entry{
		Name:            name,
		Price:           decimal.NewFromInt(int64(id) * 10),
		DiscountedPrice: decimal.NewFromInt(int64(id) * 9),
		Rating:          4.5,
		Specifications:  specs,
		ProductID:       id,
	}
}

func TestListEvictsOldestWhenFull(t *testing.T) {
	l := NewList(4)
	for i := uint(1); i <= 4; i++ {
		assert.Nil(t, l.Add(entry(fmt.Sprintf("p%d", i), i)))
	}

	evicted := l.Add(entry("p5", 5))
	require.NotNil(t, evicted)
	assert.Equal(t, "p1", evicted.Name)
	assert.Equal(t, 4, l.Count())
	assert.True(t, l.Has("p5"))

	names := []string{}
	for _, e := range l.All() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"p2", "p3", "p4", "p5"}, names)
}

func TestListNeverExceedsCapacity(t *testing.T) {
	l := NewList(4)
	for i := uint(1); i <= 20; i++ {
		l.Add(entry(fmt.Sprintf("p%d", i), i))
		assert.LessOrEqual(t, l.Count(), 4)
		assert.True(t, l.Has(fmt.Sprintf("p%d", i)))
	}
}

func TestListReAddRefreshesInPlace(t *testing.T) {
	l := NewList(4)
	for i := uint(1); i <= 4; i++ {
		l.Add(entry(fmt.Sprintf("p%d", i), i))
	}

	fresh := entry("p2", 2)
	fresh.DiscountedPrice = decimal.NewFromInt(1)
	assert.Nil(t, l.Add(fresh))

	all := l.All()
	assert.Len(t, all, 4)
	assert.Equal(t, "p2", all[1].Name)
	assert.True(t, all[1].DiscountedPrice.Equal(decimal.NewFromInt(1)))
}

func TestListRemoveAbsentIsNoop(t *testing.T) {
	l := NewList(4)
	l.Add(entry("p1", 1))

	assert.False(t, l.Remove("missing"))
	assert.True(t, l.Remove("p1"))
	assert.Zero(t, l.Count())

	_, ok := l.EvictOldest()
	assert.False(t, ok)
}

func TestListJSONShape(t *testing.T) {
	img := "/media/phone.png"
	l := NewList(4)
	e := entry("Phone", 3, Spec{"color", "red"}, Spec{"size", "M"})
	e.Image = &img
	l.Add(e)
	l.Add(entry("Case", 1))

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"Phone":["30","27",4.5,{"color":"red","size":"M"},"/media/phone.png",3],"Case":["10","9",4.5,{},null,1]}`,
		string(data))

	// order survives a round trip
	decoded := NewList(4)
	require.NoError(t, json.Unmarshal(data, decoded))
	all := decoded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Phone", all[0].Name)
	assert.Equal(t, "Case", all[1].Name)
	assert.Equal(t, Specs{{"color", "red"}, {"size", "M"}}, all[0].Specifications)
	assert.Equal(t, img, *all[0].Image)
	assert.Nil(t, all[1].Image)
	assert.True(t, all[0].Price.Equal(decimal.NewFromInt(30)))
}

func TestEntryRejectsWrongArity(t *testing.T) {
	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`["1","2",3]`), &e))
}

func TestBuildTable(t *testing.T) {
	entries := []Entry{
		entry("a", 1, Spec{"color", "red"}, Spec{"size", "M"}),
		entry("b", 2, Spec{"color", "blue"}, Spec{"size", "M"}),
		entry("c", 3, Spec{"size", "M"}, Spec{"color", "red"}),
		entry("d", 4, Spec{"size", "M"}),
	}

	table := BuildTable(entries, "no data")
	require.Len(t, table.Rows, 2)

	color := table.Rows[0]
	assert.Equal(t, "color", color.Name)
	assert.Equal(t, []string{"red", "blue", "red", "no data"}, color.Values)
	assert.False(t, color.Uniform)

	size := table.Rows[1]
	assert.Equal(t, "size", size.Name)
	assert.Equal(t, []string{"M", "M", "M", "M"}, size.Values)
	assert.True(t, size.Uniform)

	entries[3].Specifications = Specs{{"size", "L"}}
	assert.False(t, BuildTable(entries, "no data").Rows[1].Uniform)
}

type fakeCatalog map[uint]*product.SellerProduct

func (f fakeCatalog) GetSellerProduct(ctx context.Context, id uint) (*product.SellerProduct, error) {
	sp, ok := f[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return sp, nil
}

type countingSaver struct{ saves int }

func (c *countingSaver) Save(ctx context.Context, sess *session.Session) error {
	c.saves++
	return nil
}

func offer(id uint, name string, price int64, specs map[string]string) *product.SellerProduct {
	sp := &product.SellerProduct{
		ID:      id,
		Price:   decimal.NewFromInt(price),
		Product: product.Product{Name: name, Rating: 4},
	}
	for k, v := range specs {
		sp.Product.Specifications = append(sp.Product.Specifications, product.ProductSpecification{
			Specification: product.Specification{Name: k},
			Value:         v,
		})
	}
	return sp
}

func TestServiceAddRemoveTable(t *testing.T) {
	catalog := fakeCatalog{
		1: offer(1, "Phone", 100, map[string]string{"color": "red"}),
		2: offer(2, "Tablet", 300, map[string]string{"color": "red"}),
	}
	saver := &countingSaver{}
	svc := NewService(catalog, discount.NewResolver(), saver, config.CompareConfig{Capacity: 4, Placeholder: "no data"})

	sess := session.New()
	ctx := context.Background()

	_, err := svc.Add(ctx, sess, 1)
	require.NoError(t, err)
	list, err := svc.Add(ctx, sess, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count())
	assert.Equal(t, 2, saver.saves)

	table, err := svc.Table(sess)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.True(t, table.Rows[0].Uniform)

	_, err = svc.Remove(ctx, sess, "Nope")
	require.NoError(t, err)
	assert.Equal(t, 2, saver.saves)

	list, err = svc.Remove(ctx, sess, "Phone")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count())

	_, err = svc.Add(ctx, sess, 99)
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}
