// Package flatten denormalizes nested orders into one row per (order, product).
package flatten

import (
	"github.com/jittakal/ordersetl/internal/errors"
	"github.com/jittakal/ordersetl/pkg/order"
	"github.com/jittakal/ordersetl/pkg/table"
)

// Flatten produces one row per product of every order, in input order, with
// the order and customer fields repeated on each row.
//
// Orders without products contribute no rows. Every order must carry a
// customer, even one without products; the first order missing it fails the
// whole batch and no table is returned.
func Flatten(orders []order.Order) (*table.Table, error) {
	n := 0
	for i, o := range orders {
		if !o.HasCustomer() {
			return nil, &errors.RecordError{Index: i, Err: errors.ErrMissingCustomer}
		}
		n += len(o.Products)
	}

	t := table.New(n)
	for _, o := range orders {
		c := o.Customer
		for _, p := range o.Products {
			t.Append(table.Row{
				o.OrderID,
				o.OrderDate,
				o.TotalAmount,
				c.CustomerID,
				c.Name,
				c.Email,
				c.Address,
				p.ProductID,
				p.Name,
				p.Category,
				p.Price,
				p.Quantity,
			})
		}
	}
	return t, nil
}

// FlattenJSON decodes data as an order array and flattens it.
func FlattenJSON(data []byte) (*table.Table, int, error) {
	orders, err := order.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	t, err := Flatten(orders)
	if err != nil {
		return nil, len(orders), err
	}
	return t, len(orders), nil
}
