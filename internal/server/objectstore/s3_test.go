package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSDK replaces every SDK seam for the duration of the test.
func stubSDK(t *testing.T) *s3.Options {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPre := newS3PresignClient
	origPut := putObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		newS3PresignClient = origPre
		putObject = origPut
		presignGetObject = origGet
	})

	var captured s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&captured)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	return &captured
}

func TestNew_CustomEndpoint(t *testing.T) {
	opts := stubSDK(t)

	_, err := New(context.Background(), Config{Bucket: "b", Region: "us-east-1", BaseEndpoint: "http://127.0.0.1:9000"})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNew_DefaultEndpoint(t *testing.T) {
	opts := stubSDK(t)

	_, err := New(context.Background(), Config{Bucket: "b", Region: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, opts.BaseEndpoint)
	assert.False(t, opts.UsePathStyle)
}

func TestNew_ConfigError(t *testing.T) {
	stubSDK(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "no creds")
}

func TestPublicURL(t *testing.T) {
	hosted := &S3Store{cfg: Config{Bucket: "docs", Region: "us-east-2"}}
	assert.Equal(t, "https://docs.s3.us-east-2.amazonaws.com/planta/1-a.xlsx", hosted.PublicURL("planta/1-a.xlsx"))

	minio := &S3Store{cfg: Config{Bucket: "docs", BaseEndpoint: "http://localhost:9000/"}}
	assert.Equal(t, "http://localhost:9000/docs/planta/1-a.xlsx", minio.PublicURL("planta/1-a.xlsx"))
}

func TestPut(t *testing.T) {
	stubSDK(t)
	var got *s3.PutObjectInput
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = in
		return &s3.PutObjectOutput{}, nil
	}

	s, err := New(context.Background(), Config{Bucket: "docs", Region: "us-east-2"})
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "aguas/1-a.xlsx", "application/vnd.ms-excel", strings.NewReader("data"), 4)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.s3.us-east-2.amazonaws.com/aguas/1-a.xlsx", url)

	require.NotNil(t, got)
	assert.Equal(t, "docs", *got.Bucket)
	assert.Equal(t, "aguas/1-a.xlsx", *got.Key)
	assert.Equal(t, "application/vnd.ms-excel", *got.ContentType)
	assert.Equal(t, int64(4), *got.ContentLength)
	b, _ := io.ReadAll(got.Body)
	assert.Equal(t, "data", string(b))
}

func TestPut_Error(t *testing.T) {
	stubSDK(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	}

	s, err := New(context.Background(), Config{Bucket: "docs"})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "k", "", strings.NewReader(""), -1)
	assert.ErrorContains(t, err, "access denied")
}

func TestPresignGet(t *testing.T) {
	stubSDK(t)
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != 15*time.Minute {
			return nil, errors.New("unexpected expiry")
		}
		return &v4.PresignedHTTPRequest{URL: "https://signed/" + *in.Key}, nil
	}

	s, err := New(context.Background(), Config{Bucket: "docs"})
	require.NoError(t, err)

	url, err := s.PresignGet(context.Background(), "planta/1-a.xlsx", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/planta/1-a.xlsx", url)

	_, err = s.PresignGet(context.Background(), "k", time.Minute)
	assert.ErrorContains(t, err, "unexpected expiry")
}
