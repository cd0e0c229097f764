package table

import "github.com/jittakal/ordersetl/pkg/order"

// ColumnKind is the physical type chosen for a column.
type ColumnKind uint8

const (
	KindString ColumnKind = iota
	KindInt64
	KindDouble
	KindBool
)

// String returns the kind name.
func (k ColumnKind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// InferKinds chooses a physical type per column from the values present.
//
// Nulls never influence the result. A column with only integers is int64, a
// mix of integers and floats is double, only strings is string, only bools is
// bool. Any other mix, or a column with nothing but nulls, is string.
func (t *Table) InferKinds() [NumColumns]ColumnKind {
	var kinds [NumColumns]ColumnKind
	for col := range NumColumns {
		kinds[col] = t.inferColumn(col)
	}
	return kinds
}

func (t *Table) inferColumn(col int) ColumnKind {
	var seenInt, seenFloat, seenString, seenBool, seenRaw bool
	for _, r := range t.Rows {
		switch r[col].Kind() {
		case order.KindInt:
			seenInt = true
		case order.KindFloat:
			seenFloat = true
		case order.KindString:
			seenString = true
		case order.KindBool:
			seenBool = true
		case order.KindRaw:
			seenRaw = true
		}
	}

	numeric := seenInt || seenFloat
	switch {
	case seenRaw || seenString:
		return KindString
	case numeric && seenBool:
		return KindString
	case seenFloat:
		return KindDouble
	case seenInt:
		return KindInt64
	case seenBool:
		return KindBool
	default:
		return KindString
	}
}
