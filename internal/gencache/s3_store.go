package gencache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// S3Store writes each artifact to artifacts/<id>.json. Two families of empty
// marker objects give ordering: seq/<nanos>-<id> for List and
// hash/<digest>/<nanos>-<id> for FirstByHash. Object listing is
// lexicographic, so zero-padded nanos sort by creation time.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string

	initMu    sync.Mutex
	initReady bool
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.initReady = true
	return nil
}

func (s *S3Store) Append(ctx context.Context, a Artifact) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.DNAHash) == "" {
		return fmt.Errorf("hash is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if err := s.putArtifact(ctx, a); err != nil {
		return err
	}
	stamp := fmt.Sprintf("%020d-%s", a.CreatedAt.UnixNano(), a.ID)
	for _, key := range []string{"seq/" + stamp, "hash/" + a.DNAHash + "/" + stamp} {
		if _, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{}); err != nil {
			return fmt.Errorf("write index %s: %w", key, err)
		}
	}
	return nil
}

func (s *S3Store) putArtifact(ctx context.Context, a Artifact) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucketName, artifactKey(a.ID), bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (s *S3Store) FirstByHash(ctx context.Context, hash string) (Artifact, bool, error) {
	if s == nil {
		return Artifact{}, false, fmt.Errorf("store is nil")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Artifact{}, false, fmt.Errorf("ensure bucket: %w", err)
	}
	ids, err := s.listIDs(ctx, "hash/"+strings.TrimSpace(hash)+"/", 1)
	if err != nil {
		return Artifact{}, false, err
	}
	if len(ids) == 0 {
		return Artifact{}, false, nil
	}
	a, err := s.Get(ctx, ids[0])
	if err != nil {
		return Artifact{}, false, err
	}
	return a, true, nil
}

func (s *S3Store) Get(ctx context.Context, id string) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Artifact{}, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, artifactKey(strings.TrimSpace(id)), minio.GetObjectOptions{})
	if err != nil {
		return Artifact{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact %s: %w", id, err)
	}
	return a, nil
}

func (s *S3Store) List(ctx context.Context) ([]Artifact, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	ids, err := s.listIDs(ctx, "seq/", 0)
	if err != nil {
		return nil, err
	}
	out := make([]Artifact, 0, len(ids))
	for _, id := range ids {
		a, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *S3Store) UpdateMeta(ctx context.Context, id string, isTemplate bool, meta *TemplateMeta) (Artifact, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	a.IsTemplate = isTemplate
	a.TemplateMeta = nil
	if meta != nil {
		m := *meta
		a.TemplateMeta = &m
	}
	if err := s.putArtifact(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// listIDs returns artifact ids from marker keys under prefix in key order.
// limit <= 0 lists everything.
func (s *S3Store) listIDs(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, 0, 32)
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, id, ok := strings.Cut(k, "-"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func artifactKey(id string) string {
	return "artifacts/" + id + ".json"
}
