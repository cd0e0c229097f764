// Package order defines the nested order records read from the source object
// and decodes them from JSON.
//
// Leaf fields are kept as dynamically typed Values so that absent keys surface
// as nulls instead of zero values. Only the structural fields are checked while
// decoding: the top level must be an array of objects, customer must be an
// object when present and products must be an array of objects when present.
package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/jittakal/ordersetl/internal/errors"
)

// Customer is the customer embedded in an Order.
type Customer struct {
	CustomerID Value
	Name       Value
	Email      Value
	Address    Value
}

// Product is one entry of an Order's product list.
type Product struct {
	ProductID Value
	Name      Value
	Category  Value
	Price     Value
	Quantity  Value
}

// Order is a top-level input record.
type Order struct {
	OrderID     Value
	OrderDate   Value
	TotalAmount Value

	// Customer is nil when the key is absent from the input.
	Customer *Customer
	Products []Product
}

// HasCustomer reports whether the order carried a customer object.
func (o Order) HasCustomer() bool {
	return o.Customer != nil
}

// object is a decoded JSON object whose members are parsed lazily.
type object map[string]json.RawMessage

// Decode parses UTF-8 JSON text into orders.
func Decode(data []byte) ([]Order, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: source is not valid UTF-8", errors.ErrInvalidInput)
	}

	var elements []json.RawMessage
	if isNull(data) {
		return nil, fmt.Errorf("%w: top level must be a JSON array of orders, got null", errors.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: top level must be a JSON array of orders: %v", errors.ErrInvalidInput, err)
	}

	orders := make([]Order, 0, len(elements))
	for i, raw := range elements {
		o, err := decodeOrder(raw)
		if err != nil {
			return nil, &errors.RecordError{Index: i, Err: err}
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func decodeOrder(raw json.RawMessage) (Order, error) {
	obj, err := decodeObject(raw, "order")
	if err != nil {
		return Order{}, err
	}

	var o Order
	if o.OrderID, err = obj.value("order_id"); err != nil {
		return Order{}, err
	}
	if o.OrderDate, err = obj.value("order_date"); err != nil {
		return Order{}, err
	}
	if o.TotalAmount, err = obj.value("total_amount"); err != nil {
		return Order{}, err
	}

	if rawCustomer, ok := obj["customer"]; ok {
		c, err := decodeCustomer(rawCustomer)
		if err != nil {
			return Order{}, err
		}
		o.Customer = &c
	}

	if rawProducts, ok := obj["products"]; ok {
		if o.Products, err = decodeProducts(rawProducts); err != nil {
			return Order{}, err
		}
	}

	return o, nil
}

func decodeCustomer(raw json.RawMessage) (Customer, error) {
	obj, err := decodeObject(raw, "customer")
	if err != nil {
		return Customer{}, err
	}

	var c Customer
	for _, f := range []struct {
		key string
		dst *Value
	}{
		{"customer_id", &c.CustomerID},
		{"name", &c.Name},
		{"email", &c.Email},
		{"address", &c.Address},
	} {
		if *f.dst, err = obj.value(f.key); err != nil {
			return Customer{}, err
		}
	}
	return c, nil
}

func decodeProducts(raw json.RawMessage) ([]Product, error) {
	var elements []json.RawMessage
	if isNull(raw) {
		return nil, fmt.Errorf("%w: products must be an array, got null", errors.ErrInvalidInput)
	}
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: products must be an array: %v", errors.ErrInvalidInput, err)
	}

	products := make([]Product, 0, len(elements))
	for i, el := range elements {
		obj, err := decodeObject(el, "product")
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}

		var p Product
		for _, f := range []struct {
			key string
			dst *Value
		}{
			{"product_id", &p.ProductID},
			{"name", &p.Name},
			{"category", &p.Category},
			{"price", &p.Price},
			{"quantity", &p.Quantity},
		} {
			if *f.dst, err = obj.value(f.key); err != nil {
				return nil, fmt.Errorf("product %d: %w", i, err)
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func decodeObject(raw json.RawMessage, what string) (object, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: %s must be an object, got null", errors.ErrInvalidInput, what)
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s must be an object: %v", errors.ErrInvalidInput, what, err)
	}
	return obj, nil
}

// value returns the member as a Value; absent keys are null.
func (o object) value(key string) (Value, error) {
	raw, ok := o[key]
	if !ok {
		return Null(), nil
	}
	v, err := parseValue(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%w: field %s: %v", errors.ErrInvalidInput, key, err)
	}
	return v, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
