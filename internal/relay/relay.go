package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/replies-relay/internal/logger"
	"github.com/samvad-hq/replies-relay/internal/metrics"
	"github.com/samvad-hq/replies-relay/pkg/publishers"
	"github.com/samvad-hq/replies-relay/pkg/replies"
)

const (
	opCheckReplies   = "check_replies"
	opConfirmReplies = "confirm_replies"

	// MaxConfirmBatch is the service's documented cap on ids per confirm call.
	MaxConfirmBatch = 100
)

// Result summarizes one relay pass.
type Result struct {
	Received  int
	Skipped   int
	Forwarded int
	Failed    int
	Confirmed int
}

// Service moves pending replies from the replies API to the publishers and
// confirms them once every publisher accepted them.
type Service struct {
	api       RepliesAPI
	publisher EventPublisher
	ledger    Ledger
	metrics   *metrics.Metrics
	batchSize int
	log       logger.Logger
	now       func() time.Time
}

// NewService wires a relay. A nil ledger forwards every reply it sees; a nil
// metrics value records nothing.
func NewService(api RepliesAPI, pub EventPublisher, ledger Ledger, m *metrics.Metrics, batchSize int, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if batchSize <= 0 || batchSize > MaxConfirmBatch {
		batchSize = MaxConfirmBatch
	}
	return &Service{
		api:       api,
		publisher: pub,
		ledger:    ledger,
		metrics:   m,
		batchSize: batchSize,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one pass: check, forward, confirm.
func (s *Service) Run(ctx context.Context) (Result, error) {
	var res Result
	if s == nil || s.api == nil || s.publisher == nil {
		return res, fmt.Errorf("relay service is not initialized")
	}

	start := s.now()
	pending, err := s.api.CheckReplies(ctx)
	s.observe(opCheckReplies, start, err)
	if err != nil {
		s.metrics.RecordPoll(metrics.PollFailed)
		return res, fmt.Errorf("check replies: %w", err)
	}
	if pending == nil || len(pending.Replies) == 0 {
		s.metrics.RecordPoll(metrics.PollOK)
		return res, nil
	}

	res.Received = len(pending.Replies)
	s.metrics.RecordReceived(res.Received)

	accepted := s.forwardAll(ctx, pending.Replies, &res)

	errs := s.confirmAll(ctx, accepted, &res)
	s.reportUnconfirmed()
	switch {
	case len(errs) > 0 || res.Failed > 0:
		s.metrics.RecordPoll(metrics.PollPartial)
	default:
		s.metrics.RecordPoll(metrics.PollOK)
	}

	s.log.InfoObj("relay pass completed", "relay_result", map[string]any{
		"received":  res.Received,
		"skipped":   res.Skipped,
		"forwarded": res.Forwarded,
		"failed":    res.Failed,
		"confirmed": res.Confirmed,
	})
	return res, errors.Join(errs...)
}

// forwardAll publishes replies not yet in the ledger and returns the ids safe
// to confirm. Each id is handled at most once per pass.
func (s *Service) forwardAll(ctx context.Context, pending []replies.Reply, res *Result) []string {
	accepted := make([]string, 0, len(pending))
	handled := make(map[string]struct{}, len(pending))
	for _, reply := range pending {
		if _, dup := handled[reply.ReplyID]; dup && reply.ReplyID != "" {
			res.Skipped++
			continue
		}
		handled[reply.ReplyID] = struct{}{}

		if reply.ReplyID == "" {
			res.Failed++
			s.metrics.RecordPublishFailure("missing_id")
			s.log.WarnObj("reply without id skipped", "reply_meta", map[string]any{
				"message_id": reply.MessageID,
			})
			continue
		}

		if s.seen(reply.ReplyID) {
			res.Skipped++
			accepted = append(accepted, reply.ReplyID)
			continue
		}

		if _, err := s.publisher.Publish(ctx, publishers.NewReplyEvent(reply)); err != nil {
			res.Failed++
			s.metrics.RecordPublishFailure("publish")
			s.log.ErrorObj("reply publish failed", "publish_error", map[string]any{
				"reply_id": reply.ReplyID,
				"error":    err.Error(),
			})
			continue
		}

		res.Forwarded++
		s.metrics.RecordForwarded()
		if s.ledger != nil {
			if err := s.ledger.MarkReply(reply.ReplyID); err != nil {
				s.log.WarnObj("ledger mark failed", "ledger_error", map[string]any{
					"reply_id": reply.ReplyID,
					"error":    err.Error(),
				})
			}
		}
		accepted = append(accepted, reply.ReplyID)
	}
	return accepted
}

// seen reports whether the ledger already holds id. Ledger errors count as
// unseen so the reply is forwarded again rather than dropped.
func (s *Service) seen(id string) bool {
	if s.ledger == nil {
		return false
	}
	ok, err := s.ledger.SeenReply(id)
	if err != nil {
		s.log.WarnObj("ledger lookup failed", "ledger_error", map[string]any{
			"reply_id": id,
			"error":    err.Error(),
		})
		return false
	}
	return ok
}

// confirmAll confirms ids in chunks of batchSize.
func (s *Service) confirmAll(ctx context.Context, ids []string, res *Result) []error {
	var errs []error
	for _, chunk := range chunkIDs(ids, s.batchSize) {
		start := s.now()
		_, err := s.api.ConfirmRepliesAsReceived(ctx, replies.ConfirmRepliesRequest{ReplyIDs: chunk})
		s.observe(opConfirmReplies, start, err)
		if err != nil {
			s.recordConfirmError(chunk, err)
			errs = append(errs, fmt.Errorf("confirm %d replies: %w", len(chunk), err))
			continue
		}
		res.Confirmed += len(chunk)
		s.metrics.RecordConfirmed(len(chunk))
		if s.ledger != nil {
			if err := s.ledger.MarkConfirmed(chunk); err != nil {
				s.log.WarnObj("ledger confirm mark failed", "ledger_error", map[string]any{
					"count": len(chunk),
					"error": err.Error(),
				})
			}
		}
	}
	return errs
}

// reportUnconfirmed publishes how many forwarded replies still await a
// successful confirm.
func (s *Service) reportUnconfirmed() {
	if s.ledger == nil {
		return
	}
	ids, err := s.ledger.Unconfirmed()
	if err != nil {
		s.log.WarnObj("ledger unconfirmed lookup failed", "ledger_error", err.Error())
		return
	}
	s.metrics.SetUnconfirmed(len(ids))
	if len(ids) > 0 {
		s.log.WarnObj("forwarded replies awaiting confirm", "ledger_unconfirmed", map[string]any{
			"count": len(ids),
		})
	}
}

func (s *Service) recordConfirmError(chunk []string, err error) {
	kind := replies.ErrorKind(err)
	s.metrics.RecordConfirmError(kind)

	fields := map[string]any{
		"count":  len(chunk),
		"kind":   kind,
		"status": replies.StatusCode(err),
		"error":  err.Error(),
	}
	var clientErr *replies.ClientError
	if errors.As(err, &clientErr) {
		fields["error_response"] = string(clientErr.ErrorResponse)
	}
	s.log.ErrorObj("confirm replies failed", "confirm_error", fields)
}

func (s *Service) observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = replies.ErrorKind(err)
	}
	s.metrics.RecordAPICall(op, outcome, s.now().Sub(start))
}

func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for size < len(ids) {
		ids, chunks = ids[size:], append(chunks, ids[:size:size])
	}
	return append(chunks, ids)
}
