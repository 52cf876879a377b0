package selfhosted

import (
	"fmt"

	"github.com/vantigo/teamdb/internal/sqltext"
)

// roleSuffix is appended to the tenant key to form the privilege role name.
// The hyphen forces identifier quoting everywhere the role appears.
const roleSuffix = "-role"

// provisionStatements are the role/user/grant statements run on the scoped
// connection right after CREATE DATABASE. Grants on existing tables and
// sequences cover deployments where a template database seeds objects.
func provisionStatements(dbName, password string) []string {
	db := sqltext.Ident(dbName)
	role := sqltext.Ident(dbName + roleSuffix)
	user := sqltext.Ident(dbName)

	return []string{
		fmt.Sprintf("CREATE ROLE %s WITH LOGIN", role),
		fmt.Sprintf("GRANT CONNECT ON DATABASE %s TO %s", db, role),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", db, role),
		fmt.Sprintf("GRANT CREATE ON SCHEMA public TO %s", role),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL TABLES IN SCHEMA public TO %s", role),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON ALL SEQUENCES IN SCHEMA public TO %s", role),
		fmt.Sprintf("CREATE USER %s WITH PASSWORD %s", user, sqltext.Literal(password)),
		fmt.Sprintf("GRANT %s TO %s", role, user),
	}
}

// teardownStatements drop the tenant database, user, and role. Run against
// the administrative connection, each wrapped best-effort: a failure on one
// must not abort the others.
func teardownStatements(dbName string) []string {
	return []string{
		fmt.Sprintf("DROP DATABASE %s", sqltext.Ident(dbName)),
		fmt.Sprintf("DROP USER %s", sqltext.Ident(dbName)),
		fmt.Sprintf("DROP ROLE %s", sqltext.Ident(dbName+roleSuffix)),
	}
}

func createDatabaseStatement(dbName string) string {
	return fmt.Sprintf("CREATE DATABASE %s", sqltext.Ident(dbName))
}

// revokePublicStatement closes the window where a freshly created database
// is world-connectable: default-deny before any grant.
func revokePublicStatement(dbName string) string {
	return fmt.Sprintf("REVOKE CONNECT ON DATABASE %s FROM PUBLIC", sqltext.Ident(dbName))
}
