package replies

import "time"

// ConfirmRepliesRequest lists the reply ids to confirm. The service accepts
// at most 100 ids per request.
type ConfirmRepliesRequest struct {
	ReplyIDs []string `json:"reply_ids,omitempty"`
}

// VendorAccountID identifies the account that owns a reply.
type VendorAccountID struct {
	VendorID  string `json:"vendor_id,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// Reply is a single inbound reply. DestinationNumber is empty when the
// original message had no source number.
type Reply struct {
	Metadata          map[string]string `json:"metadata,omitempty"`
	MessageID         string            `json:"message_id,omitempty"`
	ReplyID           string            `json:"reply_id,omitempty"`
	DateReceived      time.Time         `json:"date_received"`
	CallbackURL       string            `json:"callback_url,omitempty"`
	DestinationNumber string            `json:"destination_number,omitempty"`
	SourceNumber      string            `json:"source_number,omitempty"`
	VendorAccountID   *VendorAccountID  `json:"vendor_account_id,omitempty"`
	Content           string            `json:"content,omitempty"`
}

// CheckRepliesResponse is the result of CheckReplies. Order is as returned
// by the service and carries no meaning.
type CheckRepliesResponse struct {
	Replies []Reply `json:"replies"`
}

// ReplyIDs returns the ids of all replies in the response.
func (r *CheckRepliesResponse) ReplyIDs() []string {
	if r == nil || len(r.Replies) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Replies))
	for _, reply := range r.Replies {
		ids = append(ids, reply.ReplyID)
	}
	return ids
}
