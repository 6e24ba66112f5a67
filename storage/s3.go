package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options beschreibt einen S3-kompatiblen Endpunkt (AWS, MinIO, Strato HiDrive ...).
type Options struct {
	URL    string
	Region string
	Key    string
	Secret string
	Bucket string
}

// Object ist ein Eintrag im Bucket.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Bucket kapselt einen S3-Client für genau einen Bucket.
type Bucket struct {
	client *s3.Client
	opts   Options
}

// NewS3Client erstellt einen S3-Client für einen festen Endpunkt.
func NewS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               opts.URL,
				SigningRegion:     opts.Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// NewBucket erstellt Client und Bucket-Handle in einem Schritt.
func NewBucket(ctx context.Context, opts Options) (*Bucket, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket name is empty")
	}
	client, err := NewS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Bucket{client: client, opts: opts}, nil
}

// Upload lädt eine Datei ins S3 hoch und gibt den Link zurück.
func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.opts.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return "", err
	}
	return b.URL(key), nil
}

// URL baut den Pfad-Style-Link zu einem Objekt.
func (b *Bucket) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(b.opts.URL, "/"), b.opts.Bucket, key)
}

// List gibt alle Objekte mit dem Präfix zurück, neueste zuerst.
func (b *Bucket) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.opts.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			objects = append(objects, o)
		}
	}
	SortNewestFirst(objects)
	return objects, nil
}

// Delete entfernt ein Objekt.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.opts.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// SortNewestFirst sortiert nach LastModified absteigend, bei Gleichstand nach Key.
func SortNewestFirst(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].LastModified.Equal(objects[j].LastModified) {
			return objects[i].Key > objects[j].Key
		}
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}

// Expired gibt die Objekte zurück, die über die ersten keep hinausgehen. Erwartet sortierte Eingabe.
func Expired(objects []Object, keep int) []Object {
	if keep < 0 {
		keep = 0
	}
	if len(objects) <= keep {
		return nil
	}
	return objects[keep:]
}
