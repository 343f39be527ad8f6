package testutil

import (
	"net/mail"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/user"
	logsvc "github.com/edutok/edutok/services/logger"
)

const SecretKey = "test-secret"

// NewConfig returns the configuration used by tests, independent of the environment.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "EduTok",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		SecretKey:        SecretKey,
		DefaultFromEmail: mail.Address{Name: "EduTok", Address: "noreply@edutok.test"},
		Server: core.ServerConfig{
			Address:        ":0",
			Host:           "localhost",
			PublicBaseURL:  "http://edutok.test",
			DisableReqLogs: true,
		},
		Auth:    core.AuthConfig{Provider: core.AuthLocal, TokenTTL: time.Hour},
		Storage: core.StorageConfig{Driver: core.StorageMemory},
		Reports: core.ReportsConfig{Validity: 15 * 24 * time.Hour, TrustClientGrades: true},
	}
}

// NewLogger returns a silent logger.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(zap.NewNop(), NewConfig())
	logger.Enable(false)
	return logger
}

// FixedClock returns a clock stuck at `t`.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// MakeToken signs a local identity token for `prof`.
func MakeToken(t *testing.T, prof user.Profile) string {
	conf := NewConfig()
	token, err := user.MakeToken(prof, conf.AppName, conf.SecretKey, conf.Auth.TokenTTL)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	return token
}

// Grades returns a small grade history with a duplicated (subject, bimester) pair.
func Grades() []grade.Record {
	return []grade.Record{
		{Subject: "Matemática", Bimester: 1, Grade: 18, Date: 100},
		{Subject: "Matemática", Bimester: 1, Grade: 10, Date: 200},
		{Subject: "História", Bimester: 1, Grade: 13, Date: 50},
	}
}
