package app

import (
	"errors"
	"testing"

	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	tests := []struct {
		name string
		cfg  gcp.ObjectStorageConfig
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{
			name: "invalid mode",
			cfg:  gcp.ObjectStorageConfig{Mode: "bad-mode"},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Mode: "bad-mode"},
			want: StorageProviderBootstrapErrorInvalidMode,
		},
		{
			name: "missing emulator host",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost},
			want: StorageProviderBootstrapErrorMissingEmulatorHost,
		},
		{
			name: "invalid emulator host",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator, EmulatorHost: "fake-gcs:4443"},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost},
			want: StorageProviderBootstrapErrorInvalidEmulatorHost,
		},
		{
			name: "missing bucket",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket},
			want: StorageProviderBootstrapErrorMissingBucket,
		},
		{
			name: "connect failure",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS, DocumentBucket: "cvs"},
			err:  errors.New("dial tcp: refused"),
			want: StorageProviderBootstrapErrorConnectFailed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(tc.cfg, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause not preserved: %v", err)
			}
		})
	}
}

func TestResolveBucketServiceMemoryMode(t *testing.T) {
	bucket, err := resolveBucketService(logger.Nop(), gcp.ObjectStorageConfig{
		Mode:           gcp.ObjectStorageModeMemory,
		DocumentBucket: "cvs",
	})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if bucket == nil {
		t.Fatalf("expected bucket service")
	}
}

func TestResolveBucketServiceRejectsInvalidEmulatorHost(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), gcp.ObjectStorageConfig{
		Mode:           gcp.ObjectStorageModeGCSEmulator,
		EmulatorHost:   "fake-gcs:4443",
		DocumentBucket: "cvs",
	})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorInvalidEmulatorHost {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorInvalidEmulatorHost, code, err)
	}
}

func TestResolveBucketServiceUsesFactory(t *testing.T) {
	prev := newBucketServiceWithConfig
	t.Cleanup(func() { newBucketServiceWithConfig = prev })

	var seen gcp.ObjectStorageConfig
	newBucketServiceWithConfig = func(log *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		seen = cfg
		return nil, errors.New("boom")
	}
	cfg := gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS, DocumentBucket: "cvs"}
	_, err := resolveBucketService(logger.Nop(), cfg)
	if storageProviderBootstrapErrorCode(err) != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("expected connect_failed, got %v", err)
	}
	if seen.DocumentBucket != "cvs" {
		t.Fatalf("factory saw %+v", seen)
	}
}
