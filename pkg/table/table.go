// Package table holds the flattened, row-per-(order, product) form of an
// order batch.
//
// The column set and its order are fixed; encoders and catalog consumers rely
// on it. Column types are not fixed: they are inferred from the values each
// batch actually carries, see InferKinds.
package table

import (
	"github.com/samber/lo"

	"github.com/jittakal/ordersetl/pkg/order"
)

// Column names in output order.
const (
	ColOrderID      = "order_id"
	ColOrderDate    = "order_date"
	ColTotalAmount  = "total_amount"
	ColCustomerID   = "customer_id"
	ColCustomerName = "customer_name"
	ColEmail        = "email"
	ColAddress      = "address"
	ColProductID    = "product_id"
	ColProductName  = "product_name"
	ColCategory     = "category"
	ColPrice        = "price"
	ColQuantity     = "quantity"
)

// NumColumns is the width of every row.
const NumColumns = 12

var columns = [NumColumns]string{
	ColOrderID,
	ColOrderDate,
	ColTotalAmount,
	ColCustomerID,
	ColCustomerName,
	ColEmail,
	ColAddress,
	ColProductID,
	ColProductName,
	ColCategory,
	ColPrice,
	ColQuantity,
}

// Columns returns the column names in output order.
func Columns() []string {
	out := make([]string, NumColumns)
	copy(out, columns[:])
	return out
}

// Row is one flattened (order, product) pair, indexed like Columns.
type Row [NumColumns]order.Value

// Get returns the value of the named column, or null for unknown names.
func (r Row) Get(name string) order.Value {
	if i := lo.IndexOf(columns[:], name); i >= 0 {
		return r[i]
	}
	return order.Null()
}

// Map returns the row keyed by column name with plain Go values.
func (r Row) Map() map[string]any {
	m := make(map[string]any, NumColumns)
	for i, name := range columns {
		m[name] = r[i].Interface()
	}
	return m
}

// Table is an ordered collection of rows.
type Table struct {
	Rows []Row
}

// New returns an empty table with room for n rows.
func New(n int) *Table {
	return &Table{Rows: make([]Row, 0, n)}
}

// Append adds a row.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) {
	return t.Len(), NumColumns
}

// Head returns up to n leading rows as maps, for log previews.
func (t *Table) Head(n int) []map[string]any {
	if t.Empty() || n <= 0 {
		return nil
	}
	return lo.Map(t.Rows[:min(n, len(t.Rows))], func(r Row, _ int) map[string]any {
		return r.Map()
	})
}
