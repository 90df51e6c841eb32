package kafka

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

// ClientOpts are the [kgo.Client] options shared by producers and consumers.
func ClientOpts(seedBrokers []string, tlsCfg *tls.Config) []kgo.Opt {
	opts := []kgo.Opt{kgo.SeedBrokers(seedBrokers...)}
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	return opts
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func invalidationToSchemaV1(
	v domain.CacheInvalidation,
) (s schema.CacheInvalidationV1) {
	s.Origin = v.Origin
	s.OccurredAt = v.OccurredAt
	s.Tags = make([]string, len(v.Tags))
	for i := range v.Tags {
		s.Tags[i] = string(v.Tags[i])
	}
	return
}

func schemaV1ToInvalidation(
	s schema.CacheInvalidationV1,
) (v domain.CacheInvalidation) {
	v.Origin = s.Origin
	v.OccurredAt = s.OccurredAt
	v.Tags = make([]domain.CacheTag, len(s.Tags))
	for i := range s.Tags {
		v.Tags[i] = domain.CacheTag(s.Tags[i])
	}
	return
}
