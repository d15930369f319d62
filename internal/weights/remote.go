package weights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Remote store
// ---------------------------------------------------------------------------

// RemoteConfig locates the object-storage bucket holding trained weights.
type RemoteConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RemoteStore resolves from a local directory first and backfills missing
// blobs from object storage. Each downloaded blob is verified against a
// SHA-256 checksum stored in the object's metadata before it is trusted.
type RemoteStore struct {
	client *minio.Client
	cfg    RemoteConfig
	local  *LocalStore
	log    logging.Logger
}

// checksumMetaKey is the user-metadata key carrying the expected SHA-256
// hex digest of a weight object.
const checksumMetaKey = "Sha256"

// NewRemoteStore connects to the configured object storage. The local
// store receives every verified download.
func NewRemoteStore(cfg RemoteConfig, local *LocalStore, log logging.Logger) (*RemoteStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "connecting to weight storage")
	}
	return &RemoteStore{client: client, cfg: cfg, local: local, log: log}, nil
}

// Resolve returns the local blob when present, otherwise downloads,
// verifies, and persists it before resolving again.
func (s *RemoteStore) Resolve(ctx context.Context, id string) ([]byte, error) {
	blob, err := s.local.Resolve(ctx, id)
	if err == nil {
		return blob, nil
	}
	if !errors.IsCode(err, errors.CodeUnknownModel) {
		return nil, err
	}
	if err := s.download(ctx, id); err != nil {
		return nil, err
	}
	return s.local.Resolve(ctx, id)
}

func (s *RemoteStore) download(ctx context.Context, id string) error {
	key := path.Join(s.cfg.Prefix, id+".json")
	s.log.Info("downloading model weights",
		logging.String("model", id),
		logging.String("bucket", s.cfg.Bucket),
		logging.String("key", key),
	)

	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return errors.Wrap(err, errors.CodeWeightDownload, "fetching weights for "+id)
	}
	defer obj.Close()

	blob, err := io.ReadAll(obj)
	if err != nil {
		return errors.Wrap(err, errors.CodeWeightDownload, "reading weights for "+id)
	}
	stat, err := obj.Stat()
	if err != nil {
		return errors.Wrap(err, errors.CodeWeightDownload, "stating weights for "+id)
	}

	if want := stat.UserMetadata[checksumMetaKey]; want != "" {
		sum := sha256.Sum256(blob)
		if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, want) {
			return errors.Newf(errors.CodeWeightCorrupt,
				"weights for %s: checksum %s does not match expected %s", id, got, want)
		}
	}

	if err := os.MkdirAll(s.local.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeIO, "creating weight directory")
	}
	if err := os.WriteFile(s.local.Path(id), blob, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeIO, "persisting weights for "+id)
	}
	return nil
}
