package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageFirebase = "firebase"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Auth providers
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		WorkDir          string

		Server   ServerConfig
		Auth     AuthConfig
		Storage  StorageConfig
		Firebase FirebaseConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Reports  ReportsConfig
	}

	ServerConfig struct {
		Address         string
		DebugAddress    string
		Host            string
		PublicBaseURL   string // used to build share links: {PublicBaseURL}/report/{id}
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	AuthConfig struct {
		Provider string // local | firebase
		TokenTTL time.Duration
	}

	StorageConfig struct {
		Driver string // memory | firebase | postgres | redis
	}

	FirebaseConfig struct {
		ProjectID       string
		DatabaseURL     string
		CredentialsFile string
		CredentialsJSON string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	ReportsConfig struct {
		Validity          time.Duration
		TrustClientGrades bool
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the current ENV, e.g. PROD_STORAGE_DRIVER.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
		v.SetDefault("auth.provider", AuthFirebase)
		v.SetDefault("storage.driver", StorageFirebase)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:        v.GetString("appName"),
		Env:            env,
		Build:          v.GetString("build"),
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		WorkDir:        wd,
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			Host:            v.GetString("server.host"),
			PublicBaseURL:   strings.TrimRight(v.GetString("server.publicBaseURL"), "/"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Auth: AuthConfig{
			Provider: v.GetString("auth.provider"),
			TokenTTL: v.GetDuration("auth.tokenTTL"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("storage.driver"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       v.GetString("firebase.projectID"),
			DatabaseURL:     v.GetString("firebase.databaseURL"),
			CredentialsFile: v.GetString("firebase.credentialsFile"),
			CredentialsJSON: v.GetString("firebase.credentialsJSON"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Reports: ReportsConfig{
			Validity:          v.GetDuration("reports.validity"),
			TrustClientGrades: v.GetBool("reports.trustClientGrades"),
		},
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	conf.DefaultFromEmail = *from
	return conf
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "EduTok")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "f3&q9_l0z!c2v=6m^h0bt+w8y@xk1e#p)a4rj7n$u5sdg")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "EduTok <noreply@localhost>")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.publicBaseURL", "http://localhost:8000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("auth.provider", AuthLocal)
	v.SetDefault("auth.tokenTTL", 24*time.Hour)

	v.SetDefault("storage.driver", StorageMemory)

	v.SetDefault("firebase.projectID", "")
	v.SetDefault("firebase.databaseURL", "")
	v.SetDefault("firebase.credentialsFile", "")
	v.SetDefault("firebase.credentialsJSON", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "edutok")
	v.SetDefault("database.user", "edutok")
	v.SetDefault("database.password", "edutok")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("reports.validity", 15*24*time.Hour)
	v.SetDefault("reports.trustClientGrades", true)
}
