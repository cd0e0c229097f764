// Package event defines the storage notification that triggers an invocation.
//
// Notifications use the S3 event shape from aws-lambda-go. MinIO and other
// S3-compatible stores emit the same JSON, so one model covers Lambda, the
// webhook server and Kafka-delivered notifications:
//
//	e, err := event.Parse(body)
//	if err != nil {
//	    return err
//	}
//	loc, err := event.Source(e)
//	// loc.Bucket, loc.Key
//
// Only the first record of a notification is processed. Object keys are
// URL-decoded, so "orders+2024%2F01.json" names "orders 2024/01.json".
package event
