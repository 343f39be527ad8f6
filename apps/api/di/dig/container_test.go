package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutok/edutok/core/user"
	emailsvc "github.com/edutok/edutok/services/email"
	"github.com/edutok/edutok/tests"
)

func TestNewStorage(t *testing.T) {
	conf := testutil.NewConfig()

	t.Run("memory", func(t *testing.T) {
		s, err := newStorage(conf, newFirebaseClients(conf))
		require.NoError(t, err)
		assert.NotNil(t, s.Reports)
		assert.NotNil(t, s.Profiles)
		assert.Nil(t, s.Grades)
		assert.NoError(t, s.Close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		c := *conf
		c.Storage.Driver = "cassandra"
		_, err := newStorage(&c, newFirebaseClients(&c))
		assert.EqualError(t, err, `unknown storage driver "cassandra"`)
	})
}

func TestNewVerifier(t *testing.T) {
	conf := testutil.NewConfig()

	verifier, err := newVerifier(conf, newFirebaseClients(conf))
	require.NoError(t, err)
	assert.IsType(t, &user.LocalVerifier{}, verifier)

	c := *conf
	c.Auth.Provider = "ldap"
	_, err = newVerifier(&c, newFirebaseClients(&c))
	assert.EqualError(t, err, `unknown auth provider "ldap"`)
}

func TestNewReportService(t *testing.T) {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(logger, conf)
	storage, err := newStorage(conf, newFirebaseClients(conf))
	require.NoError(t, err)

	_, err = newReportService(conf, logger, mailSvc, storage)
	assert.NoError(t, err)

	// server-derived grades need a grade store
	c := *conf
	c.Reports.TrustClientGrades = false
	_, err = newReportService(&c, logger, mailSvc, storage)
	assert.EqualError(t, err, `storage driver "memory" has no grade store; enable reports.trustClientGrades`)
}
