package utils

import (
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/models"
)

// Audit actions
const (
	ActionOrderCreate  = "order.create"
	ActionOrderAttach  = "order.attach_items"
	ActionOrderUpdate  = "order.update"
	ActionOrderCancel  = "order.cancel"
	ActionItemCreate   = "item.create"
	ActionItemUpdate   = "item.update"
	ActionItemDelete   = "item.delete"
	ActionCategoryEdit = "category.edit"
	ActionPaymentEdit  = "payment.edit"
	ActionUserUpdate   = "user.update"
	ActionRoleAssign   = "role.assign"
	ActionStaffCreate  = "staff.create"
)

// Audit resources
const (
	ResourceOrder    = "order"
	ResourceItem     = "item"
	ResourceCategory = "category"
	ResourcePayment  = "payment"
	ResourceUser     = "user"
	ResourceRole     = "role"
)

const insertAuditCQL = `
	INSERT INTO audit_logs (
		id, user_id, user_email, action, resource, resource_id,
		ip_address, user_agent, success, error_msg, timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// AuditLogger writes audit rows to Scylla in the background. A nil session
// turns it into a no-op.
type AuditLogger struct {
	session *gocql.Session
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAuditLogger(session *gocql.Session) *AuditLogger {
	return &AuditLogger{session: session, timeout: 5 * time.Second}
}

// Record stores entry asynchronously. Failures are logged.
func (a *AuditLogger) Record(entry models.AuditLog) {
	if a == nil || a.session == nil {
		return
	}
	if entry.ID == (gocql.UUID{}) {
		entry.ID = gocql.TimeUUID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		err := a.session.Query(insertAuditCQL,
			entry.ID, entry.UserID, entry.UserEmail, entry.Action,
			entry.Resource, entry.ResourceID, entry.IPAddress, entry.UserAgent,
			entry.Success, entry.ErrorMsg, entry.Timestamp,
		).WithContext(ctx).Exec()
		if err != nil {
			log.Error().Err(err).Str("action", entry.Action).Msg("Failed to write audit log")
		}
	}()
}

// Wait blocks until pending writes finish.
func (a *AuditLogger) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}

const selectAuditCQL = `
	SELECT id, user_id, user_email, action, resource, resource_id,
		ip_address, user_agent, success, error_msg, timestamp
	FROM audit_logs WHERE resource = ? LIMIT ?`

// ErrAuditDisabled is returned by reads when no Scylla session is configured.
var ErrAuditDisabled = errors.New("audit trail is not configured")

// List returns the newest audit rows of a resource type.
func (a *AuditLogger) List(ctx context.Context, resource string, limit int) ([]models.AuditLog, error) {
	if a == nil || a.session == nil {
		return nil, ErrAuditDisabled
	}
	iter := a.session.Query(selectAuditCQL, resource, limit).WithContext(ctx).Iter()

	logs := make([]models.AuditLog, 0, limit)
	var entry models.AuditLog
	for iter.Scan(&entry.ID, &entry.UserID, &entry.UserEmail, &entry.Action,
		&entry.Resource, &entry.ResourceID, &entry.IPAddress, &entry.UserAgent,
		&entry.Success, &entry.ErrorMsg, &entry.Timestamp) {
		logs = append(logs, entry)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to read audit logs")
	}
	return logs, nil
}
