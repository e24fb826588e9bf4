package objstore_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"spatialops/internal/objstore"
)

func TestParseURI(t *testing.T) {
	cases := []struct {
		raw        string
		bucket     string
		key        string
		rendered   string
		shouldFail bool
	}{
		{raw: "s3://bucket/proj", bucket: "bucket", key: "proj", rendered: "s3://bucket/proj"},
		{raw: "s3://bucket/proj/deep/", bucket: "bucket", key: "proj/deep", rendered: "s3://bucket/proj/deep"},
		{raw: "s3://bucket", bucket: "bucket", key: "", rendered: "s3://bucket"},
		{raw: "  s3://bucket/k  ", bucket: "bucket", key: "k", rendered: "s3://bucket/k"},
		{raw: "gs://bucket/k", shouldFail: true},
		{raw: "/local/path", shouldFail: true},
		{raw: "s3://", shouldFail: true},
	}
	for _, tc := range cases {
		loc, err := objstore.ParseURI(tc.raw)
		if tc.shouldFail {
			if err == nil {
				t.Fatalf("ParseURI(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseURI(%q) returned error: %v", tc.raw, err)
		}
		if loc.Bucket != tc.bucket || loc.Key != tc.key {
			t.Fatalf("ParseURI(%q) = %+v", tc.raw, loc)
		}
		if loc.String() != tc.rendered {
			t.Fatalf("String() = %q, want %q", loc.String(), tc.rendered)
		}
	}
}

func TestJoinNormalizesSlashes(t *testing.T) {
	cases := []struct {
		base  string
		parts []string
		want  string
	}{
		{"s3://bucket/proj", []string{"staging", "S1"}, "s3://bucket/proj/staging/S1"},
		{"s3://bucket/proj/", []string{"staging/", "/S1/"}, "s3://bucket/proj/staging/S1"},
		{"s3://bucket/proj///", []string{"results"}, "s3://bucket/proj/results"},
		{"s3://bucket/proj", nil, "s3://bucket/proj"},
		{"s3://bucket/proj", []string{""}, "s3://bucket/proj"},
	}
	for _, tc := range cases {
		if got := objstore.Join(tc.base, tc.parts...); got != tc.want {
			t.Fatalf("Join(%q, %v) = %q, want %q", tc.base, tc.parts, got, tc.want)
		}
	}
	if strings.Contains(objstore.Join("s3://b/p/", "x/"), "//x") {
		t.Fatal("Join produced doubled separator")
	}
}

func TestIsS3URI(t *testing.T) {
	if !objstore.IsS3URI("s3://bucket/x") {
		t.Fatal("expected s3 URI to be recognized")
	}
	if objstore.IsS3URI("/tmp/out") || objstore.IsS3URI("syn123") {
		t.Fatal("non-S3 values must be rejected")
	}
}

type stubAPI struct {
	listErr error
	putErr  error
	puts    map[string]string
	lists   []string
}

func (s *stubAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	key := ""
	if params.Prefix != nil {
		key = *params.Prefix
	}
	s.lists = append(s.lists, *params.Bucket+"/"+key)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (s *stubAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if s.puts == nil {
		s.puts = map[string]string{}
	}
	s.puts[*params.Bucket+"/"+*params.Key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func TestCheckPrefix(t *testing.T) {
	api := &stubAPI{}
	client := objstore.NewWithAPI(api)
	if err := client.CheckPrefix(context.Background(), "s3://bucket/proj"); err != nil {
		t.Fatalf("CheckPrefix returned error: %v", err)
	}
	if len(api.lists) != 1 || api.lists[0] != "bucket/proj/" {
		t.Fatalf("unexpected list calls: %v", api.lists)
	}

	api.listErr = errors.New("access denied")
	if err := client.CheckPrefix(context.Background(), "s3://bucket/proj"); err == nil {
		t.Fatal("expected unreachable prefix error")
	}

	if err := client.CheckPrefix(context.Background(), "/local/dir"); err == nil {
		t.Fatal("expected error for non-S3 URI")
	}
}

func TestPut(t *testing.T) {
	api := &stubAPI{}
	client := objstore.NewWithAPI(api)
	if err := client.Put(context.Background(), "s3://bucket/proj/sheet.csv", []byte("sample,fastq_dir\n")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if api.puts["bucket/proj/sheet.csv"] != "sample,fastq_dir\n" {
		t.Fatalf("unexpected object contents: %v", api.puts)
	}

	if err := client.Put(context.Background(), "s3://bucket", []byte("x")); err == nil {
		t.Fatal("expected error for missing object key")
	}
}
