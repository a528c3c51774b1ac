package handshake

import "encoding/json"

// Response is the structured payload recovered from a decrypted approval
// message. Result keeps non-string JSON values in their raw textual form so
// the acknowledgement predicate can still inspect them.
type Response struct {
	ID     string
	Method string
	Result string
	Error  string
}

// parseResponse parses decrypted text as a signer response. A parse failure
// means the message was not for us and is discarded by the caller.
func parseResponse(text string) (Response, error) {
	var raw struct {
		ID     string          `json:"id"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Response{}, err
	}
	resp := Response{ID: raw.ID, Method: raw.Method, Error: raw.Error}
	if len(raw.Result) > 0 && string(raw.Result) != "null" {
		var s string
		if err := json.Unmarshal(raw.Result, &s); err == nil {
			resp.Result = s
		} else {
			resp.Result = string(raw.Result)
		}
	}
	return resp, nil
}

// AckPredicate decides whether a parsed response counts as approval.
// connSecret is the attempt's correlation secret, for predicates that demand
// an exact echo.
type AckPredicate func(resp Response, connSecret string) bool

// DefaultAckPredicate accepts an explicit "ack" result, a "connect" method
// echo, or any non-empty non-error result. The broad last clause compensates
// for remote signer implementations that answer a connect with their own
// pubkey, the correlation secret, or an empty-object result; it is not a
// protocol guarantee. Callers that only talk to well-behaved signers should
// prefer StrictAckPredicate.
func DefaultAckPredicate(resp Response, _ string) bool {
	if resp.Error != "" {
		return false
	}
	return resp.Result == "ack" || resp.Method == "connect" || resp.Result != ""
}

// StrictAckPredicate accepts only an explicit "ack" or an exact echo of the
// correlation secret.
func StrictAckPredicate(resp Response, connSecret string) bool {
	if resp.Error != "" {
		return false
	}
	return resp.Result == "ack" || (connSecret != "" && resp.Result == connSecret)
}
