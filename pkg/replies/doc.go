// Package replies is a client for the replies endpoints of the messaging API.
//
// Two operations are exposed. CheckReplies polls for replies that have not
// been confirmed yet and ConfirmRepliesAsReceived marks replies as processed
// so the service stops returning them. Both come in a blocking form returning
// (value, error) and an asynchronous form returning a *Future that settles
// exactly once and invokes an optional Callback exactly once.
//
// Errors are typed: *ClientError for a rejected confirm request (HTTP 400),
// *TransportError when no response arrived or the status was not handled,
// and *DeserializationError when a successful response could not be decoded.
//
//	client, err := replies.NewClient(replies.Config{Username: key, Password: secret})
//	resp, err := client.CheckReplies(ctx)
//	...
//	_, err = client.ConfirmRepliesAsReceived(ctx, replies.ConfirmRepliesRequest{ReplyIDs: ids})
//
// The service caps a confirm request at 100 ids and a check-replies page at
// 100 replies. Neither limit is enforced here.
package replies
