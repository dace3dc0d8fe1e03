package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationRegistry_Register(t *testing.T) {
	r := NewLocationRegistry()

	e := Entry{Name: "shop.sales.orders", Location: "data/orders.csv", FileType: "CSV"}
	r.Register(e)

	assert.Equal(t, 1, r.Count())

	got, ok := r.Get("SHOP.Sales.Orders")
	require.True(t, ok, "lookup is case-insensitive")
	assert.Equal(t, e, got)
}

func TestLocationRegistry_Overwrite(t *testing.T) {
	r := NewLocationRegistry()

	r.Register(Entry{Name: "c.s.t", Location: "old.csv"})
	r.Register(Entry{Name: "C.S.T", Location: "new.csv"})

	assert.Equal(t, 1, r.Count(), "later inserts overwrite")
	got, ok := r.Get("c.s.t")
	require.True(t, ok)
	assert.Equal(t, "new.csv", got.Location)
}

func TestLocationRegistry_Resolve(t *testing.T) {
	r := NewLocationRegistry()
	r.Register(Entry{Name: "shop.sales.orders", Location: "orders.csv"})
	r.Register(Entry{Name: "shop.hr.people", Location: "people.csv"})

	tests := []struct {
		name      string
		tableName string
		wantName  string
		wantFound bool
	}{
		{"fully qualified", "shop.sales.orders", "shop.sales.orders", true},
		{"schema qualified", "sales.orders", "shop.sales.orders", true},
		{"bare", "people", "shop.hr.people", true},
		{"mixed case", "Sales.Orders", "shop.sales.orders", true},
		{"wrong schema", "hr.orders", "", false},
		{"unknown", "missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.tableName)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestLocationRegistry_All(t *testing.T) {
	r := NewLocationRegistry()
	r.Register(Entry{Name: "c.s.b"})
	r.Register(Entry{Name: "c.s.a"})
	r.Register(Entry{Name: "a.s.z"})

	var names []string
	for _, e := range r.All() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.s.z", "c.s.a", "c.s.b"}, names)
}

func TestLocationRegistry_ResolveAll(t *testing.T) {
	r := NewLocationRegistry()
	r.Register(Entry{Name: "shop.sales.orders"})

	external, unresolved := r.ResolveAll([]string{"orders", "sales.orders", "customers", "customers"})
	require.Len(t, external, 1)
	assert.Equal(t, "shop.sales.orders", external[0].Name)
	assert.Equal(t, []string{"customers"}, unresolved)
}

func TestLocationRegistry_Concurrent(t *testing.T) {
	r := NewLocationRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("c.s.t%d", i%10)
			r.Register(Entry{Name: name})
			r.Resolve(name)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Count())
}
