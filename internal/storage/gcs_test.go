package storage

import (
	"testing"
)

func TestGCSConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  GCSConfig
		wantErr bool
	}{
		{"default credentials", GCSConfig{UseDefaultCredential: true}, false},
		{"credentials file", GCSConfig{CredentialsFile: "/etc/sa.json"}, false},
		{"credentials JSON", GCSConfig{CredentialsJSON: `{"type":"service_account"}`}, false},
		{"both credentials", GCSConfig{CredentialsFile: "/etc/sa.json", CredentialsJSON: "{}"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGCSConfig_ClientOptions(t *testing.T) {
	tests := []struct {
		name   string
		config GCSConfig
		want   int
	}{
		{"nothing set", GCSConfig{}, 0},
		{"endpoint only", GCSConfig{Endpoint: "http://localhost:4443"}, 1},
		{"default credentials ignore file", GCSConfig{UseDefaultCredential: true, CredentialsFile: "/x"}, 0},
		{"endpoint and file", GCSConfig{Endpoint: "http://localhost:4443", CredentialsFile: "/x"}, 2},
		{"json", GCSConfig{CredentialsJSON: "{}"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.config.clientOptions()); got != tt.want {
				t.Errorf("clientOptions() = %d options, want %d", got, tt.want)
			}
		})
	}
}

func TestGCSStore_URI(t *testing.T) {
	store := &GCSStore{base: newBase(BackendGCS, "gs", nil, nil)}
	if got := store.uri("bucket", "a/b.parquet"); got != "gs://bucket/a/b.parquet" {
		t.Errorf("uri() = %s", got)
	}
	if store.Backend() != "gcs" {
		t.Errorf("Backend() = %s", store.Backend())
	}
}
