package authservice

import (
	"io"

	"github.com/Vadimvill/auth-service/internal/audit"
)

// The audit types are re-exported here so applications can implement
// sinks without importing internal packages.
type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
)

// Audit actions emitted by the engine.
const (
	AuditActionLogin     = audit.ActionLogin
	AuditActionRefresh   = audit.ActionRefresh
	AuditActionLogout    = audit.ActionLogout
	AuditActionValidate  = audit.ActionValidate
	AuditActionRegister  = audit.ActionRegister
	AuditActionUserAdmin = audit.ActionUserAdmin
	AuditActionRoleAdmin = audit.ActionRoleAdmin
	AuditActionPermAdmin = audit.ActionPermAdmin
)

// NewChannelSink returns a sink delivering events into a buffered
// channel, typically consumed by a test or a log shipper goroutine.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON event per line.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
