package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/cvextract/internal/platform/envutil"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
	// ObjectStorageModeMemory keeps objects in process memory. Local runs and tests only.
	ObjectStorageModeMemory ObjectStorageMode = "memory"
)

type ObjectStorageConfig struct {
	Mode         ObjectStorageMode
	EmulatorHost string

	DocumentBucket   string
	ResponseBucket   string
	TranscriptBucket string
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

func (cfg ObjectStorageConfig) bucketName(category BucketCategory) (string, error) {
	var name string
	switch category {
	case BucketCategoryDocument:
		name = cfg.DocumentBucket
	case BucketCategoryResponse:
		name = cfg.ResponseBucket
	case BucketCategoryTranscript:
		name = cfg.TranscriptBucket
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
	if name == "" {
		return "", fmt.Errorf("no bucket configured for category %s", category)
	}
	return name, nil
}

type ObjectStorageConfigErrorCode string

const (
	ObjectStorageConfigErrorInvalidMode         ObjectStorageConfigErrorCode = "invalid_mode"
	ObjectStorageConfigErrorMissingEmulatorHost ObjectStorageConfigErrorCode = "missing_emulator_host"
	ObjectStorageConfigErrorInvalidEmulatorHost ObjectStorageConfigErrorCode = "invalid_emulator_host"
	ObjectStorageConfigErrorMissingBucket       ObjectStorageConfigErrorCode = "missing_bucket"
)

type ObjectStorageConfigError struct {
	Code         ObjectStorageConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ObjectStorageConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q)",
			e.Mode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeMemory)
	case ObjectStorageConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ObjectStorageModeGCSEmulator)
	case ObjectStorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	case ObjectStorageConfigErrorMissingBucket:
		return "missing env var GCS_DOCUMENT_BUCKET"
	default:
		return "invalid object storage config"
	}
}

func (e *ObjectStorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveObjectStorageConfigFromEnv reads OBJECT_STORAGE_MODE and the bucket
// names. An unset mode with STORAGE_EMULATOR_HOST present selects the emulator.
// Response and transcript buckets default to the document bucket.
func ResolveObjectStorageConfigFromEnv() (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		EmulatorHost:     envutil.String("STORAGE_EMULATOR_HOST", ""),
		DocumentBucket:   envutil.String("GCS_DOCUMENT_BUCKET", ""),
		ResponseBucket:   envutil.String("GCS_RESPONSE_BUCKET", ""),
		TranscriptBucket: envutil.String("GCS_TRANSCRIPT_BUCKET", ""),
	}
	if cfg.ResponseBucket == "" {
		cfg.ResponseBucket = cfg.DocumentBucket
	}
	if cfg.TranscriptBucket == "" {
		cfg.TranscriptBucket = cfg.DocumentBucket
	}

	rawMode := envutil.String("OBJECT_STORAGE_MODE", "")
	switch mode := ObjectStorageMode(strings.ToLower(rawMode)); mode {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
		} else {
			cfg.Mode = ObjectStorageModeGCS
		}
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeMemory:
		cfg.Mode = mode
	default:
		return cfg, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: rawMode}
	}

	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	switch cfg.Mode {
	case ObjectStorageModeMemory:
		return nil
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator:
	default:
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if cfg.DocumentBucket == "" {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingBucket, Mode: string(cfg.Mode)}
	}
	if !cfg.IsEmulatorMode() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &ObjectStorageConfigError{
			Code:         ObjectStorageConfigErrorInvalidEmulatorHost,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
	}
	return nil
}
