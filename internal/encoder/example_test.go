package encoder_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/jittakal/ordersetl/internal/encoder"
	"github.com/jittakal/ordersetl/internal/flatten"
	pkgencoder "github.com/jittakal/ordersetl/pkg/encoder"
)

// Example_parquetEncoder flattens a small batch and encodes it as Parquet.
func Example_parquetEncoder() {
	tbl, _, err := flatten.FlattenJSON([]byte(`[
		{"order_id": 1, "order_date": "2024-01-01", "total_amount": 30,
		 "customer": {"customer_id": "c1", "name": "Al", "email": "a@x.com", "address": "1 St"},
		 "products": [
		   {"product_id": "p1", "name": "Widget", "category": "tools", "price": 10, "quantity": 2},
		   {"product_id": "p2", "name": "Gadget", "category": "tools", "price": 10, "quantity": 1}
		 ]}
	]`))
	if err != nil {
		log.Fatal(err)
	}

	enc, err := encoder.NewFactory(pkgencoder.FormatParquet, "snappy").CreateEncoder()
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	stats, err := enc.Encode(&buf, tbl)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("rows: %d\n", stats.RowCount)
	fmt.Printf("extension: %s\n", enc.FileExtension())
	fmt.Printf("magic: %s\n", buf.Bytes()[:4])
	// Output:
	// rows: 2
	// extension: .parquet
	// magic: PAR1
}
