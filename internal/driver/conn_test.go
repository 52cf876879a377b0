package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vantigo/teamdb/internal/store"
)

func TestConnParams_DSN(t *testing.T) {
	p := ConnParams{
		Host:     "db.internal",
		Port:     5433,
		SSL:      true,
		User:     "team_1",
		Password: "secret",
		Database: "team_1",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=team_1 password=secret dbname=team_1 sslmode=require",
		p.DSN())
}

func TestConnParams_DSN_Defaults(t *testing.T) {
	p := ConnParams{
		Host:     "localhost",
		User:     "admin",
		Password: "pw",
		Database: "postgres",
	}
	dsn := p.DSN()
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestConnParams_DSN_OptionsSorted(t *testing.T) {
	p := ConnParams{
		Host:     "pooler",
		User:     "u",
		Password: "pw",
		Database: "d",
		Options: map[string]string{
			"pool_mode":   "transaction",
			"application": "teamdb",
		},
	}
	assert.Equal(t,
		"host=pooler port=5432 user=u password=pw dbname=d sslmode=disable application=teamdb pool_mode=transaction",
		p.DSN())
}

func TestParamsFromCredentials(t *testing.T) {
	creds := store.Credentials{
		Host:     "pooled.example.com",
		Port:     6543,
		SSL:      true,
		Database: "team_9",
		User:     "team_9.tenant",
		Password: "pw",
		Options:  map[string]string{"pool_mode": "transaction"},
	}
	p := ParamsFromCredentials(creds)
	assert.Equal(t, creds.Host, p.Host)
	assert.Equal(t, creds.Port, p.Port)
	assert.Equal(t, creds.User, p.User)
	assert.Equal(t, creds.Database, p.Database)
	assert.True(t, p.SSL)
	assert.Equal(t, "transaction", p.Options["pool_mode"])
}
