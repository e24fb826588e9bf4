package objstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the narrow slice of the S3 client the orchestrator uses.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client performs the orchestrator's object-store operations: verifying that
// an output prefix is reachable and publishing the generated samplesheet.
type Client struct {
	api API
}

// New builds a Client from the ambient AWS configuration (env, shared config,
// or instance role).
func New(ctx context.Context) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{api: s3.NewFromConfig(cfg)}, nil
}

// NewWithAPI wires a custom API implementation (primarily for tests).
func NewWithAPI(api API) *Client {
	return &Client{api: api}
}

// CheckPrefix verifies the bucket behind the given s3:// prefix is reachable
// with the current credentials. The prefix itself may be empty; only the
// bucket must exist.
func (c *Client) CheckPrefix(ctx context.Context, rawURI string) error {
	loc, err := ParseURI(rawURI)
	if err != nil {
		return err
	}
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(loc.Bucket),
		MaxKeys: aws.Int32(1),
	}
	if loc.Key != "" {
		input.Prefix = aws.String(loc.Key + "/")
	}
	if _, err := c.api.ListObjectsV2(ctx, input); err != nil {
		return fmt.Errorf("prefix %s unreachable: %w", rawURI, err)
	}
	return nil
}

// Put writes body to the given s3:// location.
func (c *Client) Put(ctx context.Context, rawURI string, body []byte) error {
	loc, err := ParseURI(rawURI)
	if err != nil {
		return err
	}
	if loc.Key == "" {
		return fmt.Errorf("s3 URI missing object key: %q", rawURI)
	}
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", rawURI, err)
	}
	return nil
}
