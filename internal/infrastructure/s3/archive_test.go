package s3infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjects struct{ mock.Mock }

func (m *mockObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	args := m.Called(*in.Bucket, *in.Key, *in.ContentType, string(body))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func newTestArchive(objects objectAPI) *Archive {
	return &Archive{
		client: objects,
		presign: func(_ context.Context, key string, ttl time.Duration) (string, error) {
			return "https://bucket.example/" + key + "?ttl=" + ttl.String(), nil
		},
		http:   http.DefaultClient,
		bucket: "evidence-bucket",
	}
}

func TestArchive_CopiesEvidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()
	objects := &mockObjects{}
	objects.On("PutObject", "evidence-bucket", "evidence/42/x.png", "image/png", "PNGDATA").Return(nil)

	key, err := newTestArchive(objects).Archive(context.Background(), "evidence/42/x.png", srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "evidence/42/x.png", key)
	objects.AssertExpectations(t)
}

func TestArchive_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	objects := &mockObjects{}

	_, err := newTestArchive(objects).Archive(context.Background(), "k.png", srv.URL, "image/png")
	assert.ErrorContains(t, err, "unexpected status 404")
	objects.AssertNotCalled(t, "PutObject")
}

func TestArchive_PutFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()
	objects := &mockObjects{}
	objects.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("denied"))

	_, err := newTestArchive(objects).Archive(context.Background(), "k.jpg", srv.URL, "image/jpeg")
	assert.ErrorContains(t, err, "s3 put object: denied")
}

func TestArchive_PresignedURL(t *testing.T) {
	url, err := newTestArchive(&mockObjects{}).PresignedURL(context.Background(), "evidence/42/x.png", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/evidence/42/x.png?ttl=1m0s", url)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", detectContentType("a.JPEG"))
	assert.Equal(t, "image/png", detectContentType("a.png"))
	assert.Equal(t, "application/octet-stream", detectContentType("a"))
}
