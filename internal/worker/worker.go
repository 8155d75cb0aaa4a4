// Package worker runs archive jobs received over Pub/Sub.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub/v2"

	"github.com/huffpack/huffman"
	"github.com/huffpack/huffman/internal/storage"
)

// Job modes.
const (
	// ModeCompress turns Source into an archive at Destination.
	ModeCompress = "compress"

	// ModeDecompress restores the data of the archive at Source into
	// Destination.
	ModeDecompress = "decompress"
)

// JobMsgSchema is the JSON body of a job message.  Source and Destination
// are locations as accepted by storage.ParseLocation.
type JobMsgSchema struct {
	UID         string `json:"UID"`
	Mode        string `json:"Mode"`
	Source      string `json:"Source"`
	Destination string `json:"Destination"`
}

// ResultMsgSchema is the JSON body published to the result topic once a job
// is finished.  Error is set when the job was rejected.
type ResultMsgSchema struct {
	UID            string `json:"UID"`
	Mode           string `json:"Mode"`
	Destination    string `json:"Destination"`
	OriginalSize   uint64 `json:"OriginalSize"`
	CompressedSize uint64 `json:"CompressedSize"`
	Error          string `json:"Error,omitempty"`
}

// PubSubClientInterface publishes messages to a topic.
type PubSubClientInterface interface {
	PublishMessage(ctx context.Context, topicID string, msg *pubsub.Message) (string, error)
}

// MessageInterface abstracts the Pub/Sub message for testing.
type MessageInterface interface {
	Ack()
	Nack()
	GetData() []byte
}

// RealPubSubClient implements PubSubClientInterface with a Pub/Sub client.
type RealPubSubClient struct {
	Client *pubsub.Client
}

// PublishMessage publishes msg to topicID and waits for the server ID.
func (c *RealPubSubClient) PublishMessage(ctx context.Context, topicID string, msg *pubsub.Message) (string, error) {
	publisher := c.Client.Publisher(topicID)
	result := publisher.Publish(ctx, msg)
	return result.Get(ctx)
}

// RealMessage implements MessageInterface for a received *pubsub.Message.
type RealMessage struct {
	Msg *pubsub.Message
}

func (r *RealMessage) Ack() {
	r.Msg.Ack()
}

func (r *RealMessage) Nack() {
	r.Msg.Nack()
}

func (r *RealMessage) GetData() []byte {
	return r.Msg.Data
}

// Application processes job messages with Store.
type Application struct {
	Store      *storage.Store
	Logger     *slog.Logger
	GCSTimeout time.Duration

	// PubSubClient and ResultTopicID are optional.  When both are set, a
	// ResultMsgSchema is published for every job with a UID that is Acked.
	PubSubClient  PubSubClientInterface
	ResultTopicID string
}

// errPermanent marks failures that redelivery cannot fix.
var errPermanent = errors.New("permanent failure")

// HandleMessage runs one job.  The message is Acked when the job succeeds or
// can never succeed (a bad job message, an empty input, a malformed
// archive), and Nacked when a retry might help.
func (app *Application) HandleMessage(ctx context.Context, msg MessageInterface) {
	log := app.logger()

	var job JobMsgSchema
	if err := json.Unmarshal(msg.GetData(), &job); err != nil {
		log.Error("Failed to unmarshal body from job message", "error", err)
		msg.Ack()
		return
	}
	log = log.With("job", job.UID, "mode", job.Mode)
	log.Info("Received job", "source", job.Source, "destination", job.Destination)

	stats, err := app.run(ctx, job, log)
	result := ResultMsgSchema{
		UID:            job.UID,
		Mode:           job.Mode,
		Destination:    job.Destination,
		OriginalSize:   stats.OriginalSize,
		CompressedSize: stats.CompressedSize,
	}

	switch {
	case err == nil:
		log.Info("Completed processing job", "original_size", stats.OriginalSize, "compressed_size", stats.CompressedSize)
	case errors.Is(err, errPermanent):
		log.Error("Rejected job", "error", err)
		result.Error = err.Error()
	default:
		log.Error("Failed to process job", "error", err)
		msg.Nack()
		return
	}

	if job.UID == "" {
		msg.Ack()
		return
	}
	if err := app.publishResult(ctx, result); err != nil {
		log.Error("Failed to publish job result", "error", err)
		msg.Nack()
		return
	}
	msg.Ack()
}

func (app *Application) run(ctx context.Context, job JobMsgSchema, log *slog.Logger) (huffman.Stats, error) {
	var stats huffman.Stats
	if job.UID == "" || job.Source == "" || job.Destination == "" {
		return stats, fmt.Errorf("%w: job message needs UID, Source and Destination", errPermanent)
	}
	if job.Mode != ModeCompress && job.Mode != ModeDecompress {
		return stats, fmt.Errorf("%w: unknown mode %q", errPermanent, job.Mode)
	}
	if _, err := storage.ParseLocation(job.Source); err != nil {
		return stats, fmt.Errorf("%w: %v", errPermanent, err)
	}
	if _, err := storage.ParseLocation(job.Destination); err != nil {
		return stats, fmt.Errorf("%w: %v", errPermanent, err)
	}

	if app.GCSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.GCSTimeout)
		defer cancel()
	}

	src, err := app.Store.OpenSource(ctx, job.Source)
	if err != nil {
		return stats, err
	}
	defer src.Close()
	log.Debug("Opened source")

	dst, err := app.Store.CreateDestination(ctx, job.Destination)
	if err != nil {
		return stats, err
	}

	a := huffman.Archiver{Logger: log}
	if job.Mode == ModeCompress {
		stats, err = a.Compress(dst, src)
	} else {
		stats, err = a.Decompress(dst, src)
	}
	if err != nil {
		_ = dst.Abort()
		if isDataError(err) {
			return stats, fmt.Errorf("%w: %w", errPermanent, err)
		}
		return stats, err
	}

	if err := dst.Close(); err != nil {
		return stats, fmt.Errorf("failed to commit %s: %w", job.Destination, err)
	}
	log.Debug("Committed destination")
	return stats, nil
}

func isDataError(err error) bool {
	return errors.Is(err, huffman.ErrEmptyInput) ||
		errors.Is(err, huffman.ErrMalformedHeader) ||
		errors.Is(err, huffman.ErrMalformedTree) ||
		errors.Is(err, huffman.ErrTruncated)
}

func (app *Application) publishResult(ctx context.Context, result ResultMsgSchema) error {
	if app.PubSubClient == nil || app.ResultTopicID == "" {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = app.PubSubClient.PublishMessage(ctx, app.ResultTopicID, &pubsub.Message{Data: data})
	return err
}

// Run receives jobs from subscription subID until ctx is canceled.  Jobs are
// processed one at a time.
func (app *Application) Run(ctx context.Context, client *pubsub.Client, subID string) error {
	sub := client.Subscriber(subID)
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	app.logger().Info("Listening for new job messages...", "subscription", subID)
	err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		app.HandleMessage(ctx, &RealMessage{Msg: msg})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cannot receive jobs: %w", err)
	}
	return nil
}

func (app *Application) logger() *slog.Logger {
	if app.Logger == nil {
		return slog.Default()
	}
	return app.Logger
}
