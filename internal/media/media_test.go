package media

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

type fakeUploader struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(input.Body)
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

func scanSchema() *schema.Schema {
	return &schema.Schema{ID: "scans.scan", Sections: []schema.Section{{ID: "main", Fields: []schema.Field{
		{Name: "title", Type: schema.KindText},
		{Name: "banner", Label: "Banner", Type: schema.KindImage},
		{Name: "report", Type: schema.KindFile},
		{Name: "thumb", Type: schema.KindImage},
	}}}}
}

func dataURL(t *testing.T, contentType string, data []byte) string {
	t.Helper()
	url := controls.DataURL(contentType, data)
	require.True(t, controls.IsDataURL(url))
	return url
}

func TestWrapUploadsInlineMedia(t *testing.T) {
	fake := &fakeUploader{}
	up := New(fake, "catalog", WithPrefix("/forms/"))
	up.newKey = func() string { return "fixed" }

	png := []byte("\x89PNG\r\n\x1a\n0000")
	var saved map[string]any
	save := up.Wrap(scanSchema(), func(_ context.Context, values map[string]any) error {
		saved = values
		return nil
	})

	values := map[string]any{
		"title":  "MRI",
		"banner": dataURL(t, "image/png", png),
		"report": dataURL(t, "application/pdf", []byte("%PDF-1.4")),
		"thumb":  "https://cdn.example.com/existing.png",
	}
	original := values["banner"]
	require.NoError(t, save(context.Background(), values))

	require.Len(t, fake.inputs, 2)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/forms/scans.scan/banner/fixed.png", saved["banner"])
	assert.Equal(t, "https://cdn.example.com/existing.png", saved["thumb"])
	assert.Equal(t, "MRI", saved["title"])
	assert.Contains(t, saved["report"], "forms/scans.scan/report/fixed")
	assert.Equal(t, original, values["banner"], "caller values must not be rewritten")

	byKey := map[string]*s3.PutObjectInput{}
	for _, in := range fake.inputs {
		byKey[aws.ToString(in.Key)] = in
	}
	banner := byKey["forms/scans.scan/banner/fixed.png"]
	require.NotNil(t, banner)
	assert.Equal(t, "catalog", aws.ToString(banner.Bucket))
	assert.Equal(t, "image/png", aws.ToString(banner.ContentType))
	assert.Contains(t, fake.bodies, png)
}

func TestWrapPublicURL(t *testing.T) {
	fake := &fakeUploader{}
	up := New(fake, "catalog", WithPublicURL("https://media.example.com/"))
	up.newKey = func() string { return "k" }

	var saved map[string]any
	save := up.Wrap(scanSchema(), func(_ context.Context, values map[string]any) error {
		saved = values
		return nil
	})
	require.NoError(t, save(context.Background(), map[string]any{"banner": dataURL(t, "image/png", []byte("\x89PNG\r\n\x1a\n0000"))}))
	assert.Equal(t, "https://media.example.com/scans.scan/banner/k.png", saved["banner"])
}

func TestWrapFailureReachesEngine(t *testing.T) {
	fake := &fakeUploader{err: errors.New("access denied")}
	up := New(fake, "catalog")

	inner := false
	s := scanSchema()
	form, err := engine.New(s, map[string]any{"banner": dataURL(t, "image/png", []byte("\x89PNG\r\n\x1a\n0000"))},
		engine.WithSave(up.Wrap(s, func(context.Context, map[string]any) error {
			inner = true
			return nil
		})),
	)
	require.NoError(t, err)

	result, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Message, "access denied")
	assert.Contains(t, result.Message, "Banner")
	assert.Equal(t, map[string][]string{"banner": {"Banner could not be uploaded, try again"}}, result.Feedback)
	assert.False(t, inner, "inner save must not run after a failed upload")
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Config{})
	assert.Error(t, err)
}
