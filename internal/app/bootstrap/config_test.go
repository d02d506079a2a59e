package bootstrap

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/hackreg/internal/app/system/auth"
)

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "hackreg",
		MailEnabled:          true,
		OTPExpiry:            10 * time.Minute,
		JWTSecret:            strings.Repeat("s", 40),
		JWTExpiry:            auth.DefaultTokenTTL,
		AdminUsername:        "admin",
		AdminPassword:        "a-real-password",
		AuditLogAuth:         "all",
		AuditLogAdmin:        "db",
		AuditLogRegistration: "",
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		prod    bool
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid prod", true, func(*AppConfig) {}, ""},
		{"dev accepts defaults", false, func(c *AppConfig) {
			c.JWTSecret = auth.DevSecret
			c.AdminPassword = DefaultAdminPassword
			c.MailEnabled = false
		}, ""},
		{"missing database", false, func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"short expiry", false, func(c *AppConfig) { c.OTPExpiry = 30 * time.Second }, "otp_expiry"},
		{"bad audit setting", false, func(c *AppConfig) { c.AuditLogAuth = "sometimes" }, "audit_log_auth"},
		{"prod dev secret", true, func(c *AppConfig) { c.JWTSecret = auth.DevSecret }, "jwt_secret"},
		{"prod short secret", true, func(c *AppConfig) { c.JWTSecret = "short" }, "at least 32"},
		{"prod default password", true, func(c *AppConfig) { c.AdminPassword = DefaultAdminPassword }, "admin_password"},
		{"prod mail disabled", true, func(c *AppConfig) { c.MailEnabled = false }, "mail_enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.prod, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://localhost:5173, ,https://hack.example.in ")
	want := []string{"http://localhost:5173", "https://hack.example.in"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitList = %q, want %q", got, want)
	}
	if got := splitList(""); len(got) != 0 {
		t.Errorf("splitList(\"\") = %q, want empty", got)
	}
}
