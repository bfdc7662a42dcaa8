package ws

import "time"

type ConnInfo struct {
	ConnID      string
	UserID      string
	Username    string
	Role        string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
