package aws

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
	lastKey string
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.StringValue(input.Bucket) + "/" + aws.StringValue(input.Key)
	body, ok := f.objects[f.lastKey]
	if !ok {
		return nil, errors.New("NoSuchKey: The specified key does not exist")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestGetObject(t *testing.T) {
	api := &fakeS3{objects: map[string]string{"fixtures/mock.json": `{"conversations":[]}`}}
	client := NewClientWithAPI("eu-west-1", api)

	data, err := client.GetObject(context.Background(), "fixtures", "mock.json")
	require.NoError(t, err)
	assert.Equal(t, `{"conversations":[]}`, string(data))
	assert.Equal(t, "fixtures/mock.json", api.lastKey)
}

func TestGetObject_Missing(t *testing.T) {
	client := NewClientWithAPI("eu-west-1", &fakeS3{objects: map[string]string{}})

	_, err := client.GetObject(context.Background(), "fixtures", "missing.json")
	assert.ErrorContains(t, err, "NoSuchKey")
}
