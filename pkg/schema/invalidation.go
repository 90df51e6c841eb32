package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

const CacheInvalidationSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "cache_invalidation",
	"fields": [
		{"name": "origin", "type": "string"},
		{"name": "tags", "type": {"type": "array", "items": "string"}},
		{"name": "occurred_at", "type": "long"}
	]
}`

var cacheInvalidationV1 = avro.MustParse(CacheInvalidationSchemaTextV1)

type CacheInvalidationV1 struct {
	Origin     string   `avro:"origin"`
	Tags       []string `avro:"tags"`
	OccurredAt int64    `avro:"occurred_at"`
}

func CacheInvalidationV1Avro() avro.Schema {
	return cacheInvalidationV1
}

type Opt func(*invalidationOpts) error

type invalidationOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(o *invalidationOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		o.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(o *invalidationOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		o.si = si
		return nil
	}
}

func (o *invalidationOpts) apply(opts ...Opt) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	if o.subject == "" || o.si == nil {
		return ErrTooFewOpts
	}
	return nil
}

// An InvalidationSerde frames [CacheInvalidationV1] records with the
// schema registry wire header.
type InvalidationSerde struct {
	id     int
	framer *sr.Serde
}

// NewInvalidationSerde registers the schema under the subject
// and returns the serde bound to its registry id.
func NewInvalidationSerde(
	ctx context.Context, opts ...Opt,
) (InvalidationSerde, error) {
	const op = "NewInvalidationSerde"

	var o invalidationOpts
	if err := o.apply(opts...); err != nil {
		return InvalidationSerde{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := o.si.DetermineID(ctx, o.subject, CacheInvalidationSchemaTextV1)
	if err != nil {
		return InvalidationSerde{}, fmt.Errorf("%s: %w", op, err)
	}

	framer := new(sr.Serde)
	framer.Register(
		id,
		CacheInvalidationV1{},
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(cacheInvalidationV1, v)
		}),
		sr.DecodeFn(func(b []byte, v any) error {
			return avro.Unmarshal(cacheInvalidationV1, b, v)
		}),
	)

	return InvalidationSerde{id: id, framer: framer}, nil
}

// ID is the registry id written into every encoded record.
func (s InvalidationSerde) ID() int {
	return s.id
}

func (s InvalidationSerde) Encode(v any) ([]byte, error) {
	const op = "InvalidationSerde.Encode"

	b, err := s.framer.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// Decode fails for records written with another schema id.
func (s InvalidationSerde) Decode(b []byte, v any) error {
	const op = "InvalidationSerde.Decode"

	if err := s.framer.Decode(b, v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
