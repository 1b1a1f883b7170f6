package aws_s3

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/darion/resultfetch/config"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	crd "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadObserver is told the outcome of every file after its upload
// attempt. url is empty when err is non-nil.
type UploadObserver func(path, url string, err error)

type BucketClient interface {
	UploadFile(ctx context.Context, localPath, runID string) (string, error)
	UploadFiles(ctx context.Context, paths []string, runID string, obs UploadObserver) (int, error)
	UploadDir(ctx context.Context, dir string, obs UploadObserver) (int, error)
}

type S3BucketClient struct {
	client *s3.Client
	cfg    *config.S3Config
	log    *slog.Logger
}

func NewS3BucketClient(cfg *config.S3Config, log *slog.Logger) *S3BucketClient {
	log.Info("connecting to s3...")
	ctx := context.Background()

	s3Config, err := awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithCredentialsProvider(crd.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, "")),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithBaseEndpoint(cfg.AwsBaseEndpoint))
	if err != nil {
		log.Error("failed to load s3 config.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// LocalStack does not support `virtual host addressing style` that uses s3 by default.
	// For test purposes use configuration with disabled 'virtual hosted bucket addressing'.
	var s3client *s3.Client
	if cfg.AwsAccessKey == "test" {
		log.Warn("test configuration for s3")
		s3client = s3.NewFromConfig(s3Config, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	} else {
		s3client = s3.NewFromConfig(s3Config)
	}
	log.Info("connected to s3")

	return &S3BucketClient{
		client: s3client,
		cfg:    cfg,
		log:    log,
	}
}

// UploadFile puts one report artifact under <key_prefix>/<runID>/ and
// returns the object URL.
func (bc *S3BucketClient) UploadFile(ctx context.Context, localPath, runID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	s3Key := fmt.Sprintf("%s/%s/%s", bc.cfg.KeyPrefix, runID, filepath.Base(localPath))
	_, err = bc.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bc.cfg.BucketName,
		Key:    &s3Key,
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", s3Key, err)
	}
	bc.log.Debug("report artifact saved to s3.", slog.String("key", s3Key))

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bc.cfg.BucketName, bc.cfg.Region, s3Key), nil
}

// UploadFiles uploads each path under <key_prefix>/<runID>/ and reports
// every per-file outcome to obs. One file failing does not stop the
// rest; the error summarizes how many were left behind.
func (bc *S3BucketClient) UploadFiles(ctx context.Context, paths []string, runID string, obs UploadObserver) (int, error) {
	uploaded, failed := 0, 0
	for _, path := range paths {
		url, err := bc.UploadFile(ctx, path, runID)
		if obs != nil {
			obs(path, url, err)
		}
		if err != nil {
			failed++
			continue
		}
		uploaded++
	}
	if failed > 0 {
		return uploaded, fmt.Errorf("%d of %d files failed to upload", failed, uploaded+failed)
	}

	return uploaded, nil
}

// UploadDir uploads every file in a run directory, keyed by the
// directory's base name. Returns the number of files uploaded.
func (bc *S3BucketClient) UploadDir(ctx context.Context, dir string, obs UploadObserver) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}

	return bc.UploadFiles(ctx, paths, filepath.Base(dir), obs)
}
