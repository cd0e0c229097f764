// Package generator produces fake order exports for local runs and load tests.
package generator

import (
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/samber/lo"
)

// Config controls the shape of generated orders.
type Config struct {
	Count       int
	MaxProducts int
	// MissingCustomer drops the customer from the last order.
	MissingCustomer bool
	// Sparse drops or nulls roughly one leaf field in five.
	Sparse bool
	Seed   int64
}

// Generator generates fake orders
type Generator struct {
	config Config
	faker  faker.Faker
	ids    *rand.Rand
}

// NewGenerator creates a new order generator. A zero seed uses the clock;
// any other seed makes the output reproducible.
func NewGenerator(config Config) *Generator {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.MaxProducts < 0 {
		config.MaxProducts = 0
	}
	return &Generator{
		config: config,
		faker:  faker.NewWithSeed(rand.NewSource(seed)),
		ids:    rand.New(rand.NewSource(seed)),
	}
}

// Orders generates the configured number of orders. Each order is a JSON
// object so sparse output can omit keys.
func (g *Generator) Orders() []map[string]any {
	orders := make([]map[string]any, 0, g.config.Count)
	for i := 0; i < g.config.Count; i++ {
		o := g.order()
		if g.config.MissingCustomer && i == g.config.Count-1 {
			delete(o, "customer")
		}
		orders = append(orders, o)
	}
	return orders
}

// Write encodes the generated orders as a JSON array.
func (g *Generator) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.Orders())
}

func (g *Generator) order() map[string]any {
	n := g.faker.IntBetween(0, g.config.MaxProducts)
	products := make([]map[string]any, 0, n)
	total := 0.0
	for range n {
		p := g.product()
		total += p["price"].(float64) * float64(p["quantity"].(int))
		products = append(products, g.sparse(p))
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	o := map[string]any{
		"order_id":     g.faker.IntBetween(1000, 999999),
		"order_date":   g.faker.Time().TimeBetween(start, start.AddDate(2, 0, 0)).Format("2006-01-02"),
		"total_amount": math.Round(total*100) / 100,
		"customer":     g.sparse(g.customer()),
		"products":     products,
	}
	return g.sparse(o, "customer", "products")
}

func (g *Generator) customer() map[string]any {
	return map[string]any{
		"customer_id": "C" + g.uuid()[0:8],
		"name":        g.faker.Person().Name(),
		"email":       g.faker.Internet().Email(),
		"address":     g.faker.Address().Address(),
	}
}

func (g *Generator) product() map[string]any {
	return map[string]any{
		"product_id": g.uuid(),
		"name":       g.faker.Lorem().Word(),
		"category":   g.randomCategory(),
		"price":      g.faker.Float64(2, 1, 500),
		"quantity":   g.faker.IntBetween(1, 10),
	}
}

// sparse drops or nulls leaf fields when Sparse is set. Keys in keep are
// never touched.
func (g *Generator) sparse(m map[string]any, keep ...string) map[string]any {
	if !g.config.Sparse {
		return m
	}
	protected := make(map[string]bool, len(keep))
	for _, k := range keep {
		protected[k] = true
	}
	keys := lo.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		if protected[k] {
			continue
		}
		switch g.faker.IntBetween(1, 10) {
		case 1:
			delete(m, k)
		case 2:
			m[k] = nil
		}
	}
	return m
}

// uuid draws a version 4 UUID from the seeded source.
func (g *Generator) uuid() string {
	return uuid.Must(uuid.NewRandomFromReader(g.ids)).String()
}

func (g *Generator) randomCategory() string {
	categories := []string{
		"Electronics",
		"Books",
		"Home",
		"Garden",
		"Toys",
		"Grocery",
		"Sports",
		"Beauty",
	}
	return categories[g.faker.IntBetween(0, len(categories)-1)]
}
