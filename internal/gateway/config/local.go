package config

import (
	"os"
	"strings"
)

// applyLocalDefaults points the s3 backend at the docker-compose MinIO when
// nothing else is configured.
func applyLocalDefaults(cfg *Config) {
	s3 := &cfg.Store.S3
	s3.Endpoint = firstNonEmpty(s3.Endpoint, strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000")
	s3.AccessKey = firstNonEmpty(s3.AccessKey, "oasis")
	s3.SecretKey = firstNonEmpty(s3.SecretKey, "oasis123")
	s3.UseSSL = false
}
