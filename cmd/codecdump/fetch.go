package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cenkalti/backoff/v4"
)

// fetchInput returns name's bytes: a local read for a plain path, or an
// S3 GetObject (retried with exponential backoff for transient network
// errors, the same pattern cosnicolaou-pbzip2's cmd/pbzip2 uses for its
// S3-backed inputs) for an s3://bucket/key URI.
func fetchInput(name string) ([]byte, error) {
	if !strings.HasPrefix(name, "s3://") {
		return os.ReadFile(name)
	}
	bucket, key, err := splitS3URI(name)
	if err != nil {
		return nil, err
	}

	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	downloader := s3manager.NewDownloader(sess)

	var buf aws.WriteAtBuffer
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second

	err = backoff.Retry(func() error {
		_, err := downloader.Download(&buf, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	}, b)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return "", "", fmt.Errorf("malformed s3 URI %q: missing key", uri)
	}
	return rest[:idx], rest[idx+1:], nil
}
