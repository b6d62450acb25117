package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/gocql/gocql"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type Config struct {
	Hosts             []string
	Keyspace          string
	Username          string
	Password          string
	Consistency       gocql.Consistency
	Timeout           time.Duration
	ReplicationFactor int
}

// NewSession ensures schema exists and returns a connected Scylla session.
func NewSession(ctx context.Context, cfg Config, logger *slog.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name: %s", cfg.Keyspace)
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}

	baseSession, err := cluster(cfg, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla: %w", err)
	}
	defer baseSession.Close()
	if err := ensureKeyspace(ctx, baseSession, cfg); err != nil {
		return nil, err
	}

	session, err := cluster(cfg, cfg.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", cfg.Keyspace, err)
	}
	if err := ensureTables(ctx, session); err != nil {
		session.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", cfg.Hosts, "keyspace", cfg.Keyspace)
	}
	return session, nil
}

func cluster(cfg Config, keyspace string) *gocql.ClusterConfig {
	c := gocql.NewCluster(cfg.Hosts...)
	c.Timeout = cfg.Timeout
	c.Consistency = cfg.Consistency
	c.Keyspace = keyspace
	if cfg.Username != "" {
		c.Authenticator = gocql.PasswordAuthenticator{Username: cfg.Username, Password: cfg.Password}
		// avoid long stalls on auth/connect
		c.ConnectTimeout = cfg.Timeout
	}
	return c
}

func ensureKeyspace(ctx context.Context, session *gocql.Session, cfg Config) error {
	cql := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		cfg.Keyspace, cfg.ReplicationFactor,
	)
	if err := session.Query(cql).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

var schema = []struct{ name, cql string }{
	{"messages", `
CREATE TABLE IF NOT EXISTS messages (
	conversation_key text,
	sent_at timestamp,
	message_id text,
	sender_id text,
	receiver_id text,
	property_id text,
	text text,
	read boolean,
	read_at timestamp,
	PRIMARY KEY (conversation_key, sent_at, message_id)
) WITH CLUSTERING ORDER BY (sent_at DESC, message_id DESC);`},
	{"messages_by_id", `
CREATE TABLE IF NOT EXISTS messages_by_id (
	message_id text PRIMARY KEY,
	conversation_key text,
	sent_at timestamp
);`},
	{"peers", `
CREATE TABLE IF NOT EXISTS peers (
	user_id text,
	peer_id text,
	PRIMARY KEY (user_id, peer_id)
);`},
}

func ensureTables(ctx context.Context, session *gocql.Session) error {
	for _, table := range schema {
		if err := session.Query(table.cql).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("create %s table: %w", table.name, err)
		}
	}
	return nil
}

// ParseConsistency maps a configuration value onto a gocql consistency level.
func ParseConsistency(raw string) (gocql.Consistency, error) {
	switch raw {
	case "", "quorum":
		return gocql.Quorum, nil
	case "one":
		return gocql.One, nil
	case "local_quorum":
		return gocql.LocalQuorum, nil
	case "all":
		return gocql.All, nil
	default:
		return gocql.Quorum, fmt.Errorf("unsupported SCYLLA_CONSISTENCY: %s", raw)
	}
}
