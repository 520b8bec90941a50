package operations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const (
	ActionSignIn      = "sign-in"
	ActionSignOut     = "sign-out"
	ActionCreateOrder = "create-order"
	ActionUpdateOrder = "update-order"
)

// AuditEntry is one waiter action. Entries go to the service log only.
type AuditEntry struct {
	ID        uuid.UUID       `json:"id"`
	SessionID string          `json:"session_id"`
	Actor     string          `json:"actor"`
	Action    string          `json:"action"`
	Target    string          `json:"target"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	At        time.Time       `json:"at"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}

// SubmitRecord describes an order save attempt. OrderID is zero for a create
// that failed before the server assigned one.
type SubmitRecord struct {
	SessionID string `json:"-"`
	Actor     string `json:"-"`
	TableID   int    `json:"table_id"`
	OrderID   int    `json:"order_id"`
	Items     int    `json:"items"`
	Created   bool   `json:"-"`
}

type AuditLogger struct {
	logger apt.Logger
	now    func() time.Time
}

func NewAuditLogger(logger apt.Logger) *AuditLogger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &AuditLogger{logger: logger, now: time.Now}
}

// Log writes entry as one structured line and returns it with id and time set.
func (a *AuditLogger) Log(ctx context.Context, entry AuditEntry) AuditEntry {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = a.now()
	}

	fields := []interface{}{
		"audit",
		"audit_id", entry.ID.String(),
		"session_id", entry.SessionID,
		"actor", entry.Actor,
		"action", entry.Action,
		"target", entry.Target,
		"success", entry.Success,
		"at", entry.At.Format(time.RFC3339),
		"request_id", apt.RequestIDFrom(ctx),
	}
	if len(entry.Payload) > 0 {
		fields = append(fields, "payload", string(entry.Payload))
	}
	if entry.Error != "" {
		fields = append(fields, "error", entry.Error)
	}
	a.logger.Info(fields...)
	return entry
}

func (a *AuditLogger) LogSignIn(ctx context.Context, sessionID, actor, provider string, err error) AuditEntry {
	return a.Log(ctx, outcome(AuditEntry{
		SessionID: sessionID,
		Actor:     actor,
		Action:    ActionSignIn,
		Target:    provider,
	}, err))
}

func (a *AuditLogger) LogSignOut(ctx context.Context, sessionID, actor string) AuditEntry {
	return a.Log(ctx, AuditEntry{
		SessionID: sessionID,
		Actor:     actor,
		Action:    ActionSignOut,
		Target:    "auth",
		Success:   true,
	})
}

// LogSubmit records an order create or update. err is the failure shown to the
// waiter, or nil.
func (a *AuditLogger) LogSubmit(ctx context.Context, rec SubmitRecord, err error) AuditEntry {
	action := ActionUpdateOrder
	if rec.Created {
		action = ActionCreateOrder
	}
	payload, _ := json.Marshal(rec)
	return a.Log(ctx, outcome(AuditEntry{
		SessionID: rec.SessionID,
		Actor:     rec.Actor,
		Action:    action,
		Target:    "order",
		Payload:   payload,
	}, err))
}

func outcome(entry AuditEntry, err error) AuditEntry {
	entry.Success = err == nil
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}
