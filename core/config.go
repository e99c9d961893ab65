package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Address                string
		DebugAddress           string
		ShutdownTimeout        time.Duration
		SessionExpirationDelta time.Duration
		DisableReqLogs         bool
	}

	databaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	institutionConfig struct {
		Name        string
		EmailDomain string
		EmailTag    string
	}

	attendanceConfig struct {
		WarningThreshold float64
	}

	Config struct {
		Debug          bool
		TestMode       bool
		Env            string
		Build          string
		AppName        string
		SecretKey      string
		WorkDir        string
		DefaultFrom    string
		SendgridApiKey string
		RollbarToken   string
		Server         serverConfig
		Database       databaseConfig
		Institution    institutionConfig
		Attendance     attendanceConfig
	}
)

func (c databaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DefaultFromEmail parses the configured sender, falling back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFrom); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFrom}
}

// NewConfig loads the configuration of the current environment (ENV) from the optional
// config/.env.<env> file and <ENV>_ prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Registrar")
	v.SetDefault("secretKey", "k3x!9b@w#t+vq6=r2(jz)m8&hd_ua4^f$l0c7y5s*gpe1no")
	v.SetDefault("email.defaultFrom", "Registrar <noreply@localhost>")
	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("rollbar.token", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.sessionExpirationDelta", 12*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "registrar")
	v.SetDefault("database.user", "registrar")
	v.SetDefault("database.password", "registrar")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("institution.name", "Gujarat Vidyapith")
	v.SetDefault("institution.emailDomain", "gujaratvidyapith.org")
	v.SetDefault("institution.emailTag", "gvp")
	v.SetDefault("attendance.warningThreshold", 75.0)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		Env:            env,
		Build:          v.GetString("build"),
		AppName:        v.GetString("appName"),
		SecretKey:      v.GetString("secretKey"),
		WorkDir:        wd,
		DefaultFrom:    v.GetString("email.defaultFrom"),
		SendgridApiKey: v.GetString("email.sendgridApiKey"),
		RollbarToken:   v.GetString("rollbar.token"),
		Server: serverConfig{
			Address:                v.GetString("server.address"),
			DebugAddress:           v.GetString("server.debugAddress"),
			ShutdownTimeout:        v.GetDuration("server.shutdownTimeout"),
			SessionExpirationDelta: v.GetDuration("server.sessionExpirationDelta"),
			DisableReqLogs:         v.GetBool("server.disableReqLogs"),
		},
		Database: databaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Institution: institutionConfig{
			Name:        v.GetString("institution.name"),
			EmailDomain: v.GetString("institution.emailDomain"),
			EmailTag:    v.GetString("institution.emailTag"),
		},
		Attendance: attendanceConfig{
			WarningThreshold: v.GetFloat64("attendance.warningThreshold"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: no .env lookup, no environment overrides.
func NewTestConfig() *Config {
	return &Config{
		Debug:       true,
		TestMode:    true,
		Env:         "TEST",
		Build:       "test",
		AppName:     "Registrar",
		SecretKey:   "test-secret-key",
		DefaultFrom: "Registrar <noreply@localhost>",
		Server: serverConfig{
			ShutdownTimeout:        time.Second,
			SessionExpirationDelta: time.Hour,
			DisableReqLogs:         true,
		},
		Institution: institutionConfig{
			Name:        "Gujarat Vidyapith",
			EmailDomain: "gujaratvidyapith.org",
			EmailTag:    "gvp",
		},
		Attendance: attendanceConfig{WarningThreshold: 75},
	}
}
