package fixtures

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog/log"
)

//go:embed mock.json
var mockData []byte

// Source supplies the seed dataset at startup.
type Source interface {
	Load(ctx context.Context) (Dataset, error)
}

// ObjectGetter fetches a raw object from blob storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Decode parses a fixture document, rejecting unknown fields.
func Decode(data []byte, now time.Time) (Dataset, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var f File
	if err := decoder.Decode(&f); err != nil {
		return Dataset{}, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return f.Resolve(now)
}

// MockFile returns the built-in mock fixture document.
func MockFile() (File, error) {
	var f File
	if err := json.Unmarshal(mockData, &f); err != nil {
		return File{}, fmt.Errorf("failed to decode embedded fixture: %w", err)
	}
	return f, nil
}

// Embedded is the built-in mock dataset.
type Embedded struct {
	Now func() time.Time
}

func (e Embedded) Load(ctx context.Context) (Dataset, error) {
	return Decode(mockData, nowOf(e.Now))
}

// FileSource reads a fixture document from disk.
type FileSource struct {
	Path string
	Now  func() time.Time
}

func (f FileSource) Load(ctx context.Context) (Dataset, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read fixture %s: %w", f.Path, err)
	}
	return Decode(data, nowOf(f.Now))
}

// S3Source reads a fixture document from an object store.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
	Now    func() time.Time
}

func (s S3Source) Load(ctx context.Context) (Dataset, error) {
	data, err := s.Client.GetObject(ctx, s.Bucket, s.Key)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to fetch fixture s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return Decode(data, nowOf(s.Now))
}

// ParseS3URI splits "s3://bucket/key" into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri must be s3://bucket/key, got %s", uri)
	}
	return bucket, key, nil
}

// LoadWithLog loads a source and logs what it produced.
func LoadWithLog(ctx context.Context, name string, source Source) (Dataset, error) {
	ds, err := source.Load(ctx)
	if err != nil {
		log.Error().Err(err).Str("source", name).Msg("Failed to load fixtures")
		return Dataset{}, err
	}

	messages := 0
	for _, m := range ds.Messages {
		messages += len(m)
	}
	log.Info().
		Str("source", name).
		Int("conversations", len(ds.Conversations)).
		Int("messages", messages).
		Int("timing_sets", len(ds.Timings)).
		Msg("Fixtures loaded")

	return ds, nil
}

// Schema returns the JSON schema of the fixture document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&File{})
}

func nowOf(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
