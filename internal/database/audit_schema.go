package database

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/config"
)

const auditTableCQL = `
	CREATE TABLE IF NOT EXISTS %s.audit_logs (
		id uuid,
		user_id text,
		user_email text,
		action text,
		resource text,
		resource_id text,
		ip_address text,
		user_agent text,
		success boolean,
		error_msg text,
		timestamp timestamp,
		PRIMARY KEY ((resource), timestamp, id)
	) WITH CLUSTERING ORDER BY (timestamp DESC, id ASC)`

// MigrateAudit creates the audit keyspace and table when they are missing.
func MigrateAudit(cfg config.ScyllaConfig) error {
	session, err := scyllaCluster(cfg).CreateSession()
	if err != nil {
		return errors.Wrap(err, "failed to connect to Scylla")
	}
	defer session.Close()

	keyspace := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, cfg.Keyspace)
	if err := session.Query(keyspace).Exec(); err != nil {
		return errors.Wrapf(err, "failed to create keyspace %s", cfg.Keyspace)
	}
	if err := session.Query(fmt.Sprintf(auditTableCQL, cfg.Keyspace)).Exec(); err != nil {
		return errors.Wrap(err, "failed to create audit_logs")
	}

	log.Info().Str("keyspace", cfg.Keyspace).Msg("Audit schema ready")
	return nil
}
