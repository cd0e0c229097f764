// Package encoder writes flattened order tables to analytics file formats.
//
// # Supported Formats
//
//   - Parquet: columnar format read by the Glue crawler and Athena (default)
//   - Avro: row-based OCF container with an embedded schema
//
// # Encoder Factory
//
//	factory := encoder.NewFactory(encoder.FormatParquet, "snappy")
//	enc, err := factory.CreateEncoder()
//	if err != nil {
//	    return err
//	}
//	stats, err := enc.Encode(&buf, tbl)
//
// # Schema
//
// Both encoders emit the twelve table columns in their fixed order. Every
// column is nullable. The physical type of a column is inferred per batch
// from the values present (see table.InferKinds): integer columns become
// int64/long, integer and float mixes become double, and anything mixed or
// entirely null is written as text.
//
// # Compression
//
//	Parquet: "snappy" (default), "gzip", "lz4", "zstd", "uncompressed"
//	Avro:    "deflate" (default), "snappy", "null"
//
// Unknown Parquet codecs fall back to Snappy. Unknown Avro codecs are an error.
package encoder
