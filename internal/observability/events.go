package observability

// EventEnvelope is the connection lifecycle message published on the events
// exchange. Downstream consumers key on event_name.
type EventEnvelope struct {
	EventType string           `json:"event_type"`
	EventName string           `json:"event_name"`
	Payload   LifecyclePayload `json:"payload"`
}

type LifecyclePayload struct {
	WS       WSInfo       `json:"ws"`
	Identity IdentityInfo `json:"identity"`
}

type WSInfo struct {
	Kind   string `json:"kind"`
	Event  string `json:"event"`
	ConnID string `json:"conn_id"`
	Detail string `json:"detail,omitempty"`
}

type IdentityInfo struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
	IP       string `json:"ip,omitempty"`
}

// BuildHeaders carries request correlation onto the AMQP message.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
