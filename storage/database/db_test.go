package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutok/edutok/core"
)

func TestDSN(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine:        "postgres",
		Host:          "db",
		Port:          5432,
		Name:          "edutok",
		User:          "edutok",
		Password:      "p@ss",
		AdminUser:     "postgres",
		AdminPassword: "root",
	}}

	tests := []struct {
		name     string
		dbName   string
		admin    bool
		tls      bool
		wantUser string
		wantSSL  string
	}{
		{name: "app user", dbName: "edutok", wantUser: "edutok", wantSSL: "require", tls: true},
		{name: "admin user", dbName: "postgres", admin: true, wantUser: "postgres", wantSSL: "require", tls: true},
		{name: "tls disabled", dbName: "edutok", wantUser: "edutok", wantSSL: "disable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf.Database.DisableTLS = !tt.tls
			u, err := url.Parse(dsn(tt.dbName, tt.admin, conf))
			require.NoError(t, err)

			assert.Equal(t, "postgres", u.Scheme)
			assert.Equal(t, "db:5432", u.Host)
			assert.Equal(t, "/"+tt.dbName, u.Path)
			assert.Equal(t, tt.wantUser, u.User.Username())
			assert.Equal(t, tt.wantSSL, u.Query().Get("sslmode"))
			assert.Equal(t, "utc", u.Query().Get("timezone"))
		})
	}
}
