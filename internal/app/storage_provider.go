package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

var newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveBucketService(log *logger.Logger, storageCfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"emulator_host", storageCfg.EmulatorHost,
	)

	bucket, err := newBucketServiceWithConfig(log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return bucket, nil
}

var configErrorCodes = map[gcp.ObjectStorageConfigErrorCode]StorageProviderBootstrapErrorCode{
	gcp.ObjectStorageConfigErrorInvalidMode:         StorageProviderBootstrapErrorInvalidMode,
	gcp.ObjectStorageConfigErrorMissingEmulatorHost: StorageProviderBootstrapErrorMissingEmulatorHost,
	gcp.ObjectStorageConfigErrorInvalidEmulatorHost: StorageProviderBootstrapErrorInvalidEmulatorHost,
	gcp.ObjectStorageConfigErrorMissingBucket:       StorageProviderBootstrapErrorMissingBucket,
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		if mapped, ok := configErrorCodes[cfgErr.Code]; ok {
			code = mapped
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
