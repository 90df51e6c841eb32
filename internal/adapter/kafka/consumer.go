package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.InvalidationConsumer = (*InvalidationConsumer)(nil)

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	Close()
}

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	cl      ConsumerClient
	decoder Decoder
	applier port.InvalidationApplier
}

// ConsumerClientOpt consumes topic from its end without a group:
// every replica sees every invalidation made after it started.
func ConsumerClientOpt(clientOpts []kgo.Opt, topic string) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := append([]kgo.Opt{
			kgo.ConsumeTopics(topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		}, clientOpts...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func ConsumerRawClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(co *consumerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ConsumerApplierOpt(a port.InvalidationApplier) ConsumerOpt {
	return func(co *consumerOpts) error {
		if a == nil {
			return errors.New("invalidation applier is nil")
		}
		co.applier = a
		return nil
	}
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil || co.applier == nil {
		return ErrTooFewOpts
	}
	return nil
}

// An InvalidationConsumer applies invalidations made by other
// replicas to the local query cache.
type InvalidationConsumer struct {
	opPrefix      string
	cl            ConsumerClient
	decoder       Decoder
	applier       port.InvalidationApplier
	slowDownTimer *time.Timer
}

func NewInvalidationConsumer(
	opts ...ConsumerOpt,
) (InvalidationConsumer, error) {
	const op = "NewInvalidationConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return InvalidationConsumer{}, opErr(err, op)
	}

	return InvalidationConsumer{
		opPrefix:      "InvalidationConsumer",
		cl:            options.cl,
		decoder:       options.decoder,
		applier:       options.applier,
		slowDownTimer: time.NewTimer(0),
	}, nil
}

// Run polls until ctx is done.
func (c InvalidationConsumer) Run(ctx context.Context) {
	const op = "Run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.slowDown(ctx)
			}
		}
	}
}

func (c InvalidationConsumer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowDownTimer.Stop()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

func (c InvalidationConsumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if err := c.handleFetchesErrs(fetches); err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	if err := c.processFetches(ctx, fetches); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c InvalidationConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"
	log := slog.With("op", makeOp(c.opPrefix, op))

	var errs []error
	fetches.EachRecord(func(r *kgo.Record) {
		var s schema.CacheInvalidationV1
		if err := c.decoder.Decode(r.Value, &s); err != nil {
			log.Error("failed to decode value", "offset", r.Offset, "err", err)
			return
		}

		err := c.applier.ApplyInvalidation(ctx, schemaV1ToInvalidation(s))
		if err != nil {
			errs = append(errs, err)
		}
	})

	if err := errors.Join(errs...); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c InvalidationConsumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c InvalidationConsumer) slowDown(ctx context.Context) {
	c.slowDownTimer.Reset(1 * time.Second)
	select {
	case <-ctx.Done():
	case <-c.slowDownTimer.C:
	}
}
