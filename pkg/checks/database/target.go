package database

import "fmt"

// Target describes how the grader reaches the database through the
// connection-pooling proxy
type Target struct {
	// Pod is the database pod psql is executed in
	Pod string

	// User is the database role
	User string

	// Database is the database name
	Database string

	// Host is the proxy service the query must travel through
	Host string
}

// DefaultTarget returns the target for the failover exercise namespace.
// Queries run inside the primary database pod but connect back through the
// proxy service, so a broken proxy fails the check even though the data is
// a localhost away.
func DefaultTarget(namespace string) Target {
	return Target{
		Pod:      fmt.Sprintf("%s-postgresql-0", namespace),
		User:     namespace,
		Database: namespace,
		Host:     fmt.Sprintf("pgbouncer.%s.svc.cluster.local", namespace),
	}
}
