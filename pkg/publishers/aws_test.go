package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/samvad-hq/replies-relay/pkg/jsoncodec"
	"github.com/samvad-hq/replies-relay/pkg/replies"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublisherSendsEvent(t *testing.T) {
	client := &fakeSQS{}
	pub := &sqsPublisher{id: "queue", typ: TypeSQS, queueURL: "https://sqs.local/replies", client: client, log: noopLogger{}}

	evt := NewReplyEvent(replies.Reply{ReplyID: "r-1", SourceNumber: "+61491570156", Content: "yes"})
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.input == nil {
		t.Fatalf("SendMessage not called")
	}
	if aws.ToString(client.input.QueueUrl) != "https://sqs.local/replies" {
		t.Fatalf("queue url = %q", aws.ToString(client.input.QueueUrl))
	}

	var got ReplyEvent
	if err := jsoncodec.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.EventID != evt.EventID || got.Reply.ReplyID != "r-1" {
		t.Fatalf("unexpected body %#v", got)
	}

	attrs := client.input.MessageAttributes
	if aws.ToString(attrs["reply_id"].StringValue) != "r-1" {
		t.Fatalf("reply_id attribute missing: %#v", attrs)
	}
	if aws.ToString(attrs["source_number"].StringValue) != "+61491570156" {
		t.Fatalf("source_number attribute missing: %#v", attrs)
	}
	if _, ok := attrs["message_id"]; ok {
		t.Fatalf("empty message_id should not be sent")
	}
}

func TestSQSPublisherWrapsError(t *testing.T) {
	sendErr := errors.New("throttled")
	pub := &sqsPublisher{id: "queue", typ: TypeSQS, queueURL: "q", client: &fakeSQS{err: sendErr}, log: noopLogger{}}

	err := pub.Publish(context.Background(), NewReplyEvent(replies.Reply{ReplyID: "r-1"}))
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestSNSPublisherSendsEvent(t *testing.T) {
	client := &fakeSNS{}
	pub := &snsPublisher{id: "topic", typ: TypeSNS, topicARN: "arn:aws:sns:eu-west-1:123:replies", client: client, log: noopLogger{}}

	evt := NewReplyEvent(replies.Reply{ReplyID: "r-2", MessageID: "msg-9"})
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if aws.ToString(client.input.TopicArn) != "arn:aws:sns:eu-west-1:123:replies" {
		t.Fatalf("topic arn = %q", aws.ToString(client.input.TopicArn))
	}
	if aws.ToString(client.input.MessageAttributes["message_id"].StringValue) != "msg-9" {
		t.Fatalf("message_id attribute missing: %#v", client.input.MessageAttributes)
	}
}

func TestSNSPublisherWrapsError(t *testing.T) {
	sendErr := errors.New("denied")
	pub := &snsPublisher{id: "topic", typ: TypeSNS, topicARN: "arn", client: &fakeSNS{err: sendErr}, log: noopLogger{}}

	if err := pub.Publish(context.Background(), NewReplyEvent(replies.Reply{ReplyID: "r-1"})); !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestAWSBuildersWithStaticCredentials(t *testing.T) {
	creds := &AWSCredentials{AccessKeyID: "AKIA", SecretAccessKey: "secret"}

	pub, err := newSQSPublisher(context.Background(), PublisherConfig{
		ID:   "queue",
		Type: TypeSQS,
		SQS:  &SQSPublisherConfig{QueueURL: "https://sqs.local/replies", Region: "eu-west-1", Credentials: creds},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSPublisher: %v", err)
	}
	if pub.ID() != "queue" || pub.Type() != TypeSQS {
		t.Fatalf("unexpected publisher %s/%s", pub.ID(), pub.Type())
	}

	pub, err = newSNSPublisher(context.Background(), PublisherConfig{
		ID:   "topic",
		Type: TypeSNS,
		SNS:  &SNSPublisherConfig{TopicARN: "arn:aws:sns:eu-west-1:123:replies", Region: "eu-west-1", Credentials: creds},
	}, nil)
	if err != nil {
		t.Fatalf("newSNSPublisher: %v", err)
	}
	if pub.Type() != TypeSNS {
		t.Fatalf("unexpected type %s", pub.Type())
	}

	if _, err := newSQSPublisher(context.Background(), PublisherConfig{ID: "x", Type: TypeSQS}, nil); err == nil {
		t.Fatalf("expected error for missing sqs block")
	}
	if _, err := newSNSPublisher(context.Background(), PublisherConfig{ID: "x", Type: TypeSNS}, nil); err == nil {
		t.Fatalf("expected error for missing sns block")
	}
}
