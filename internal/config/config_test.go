package config

import (
	"log/slog"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "development defaults",
			cfg:  Config{Environment: EnvDevelopment, AuthProvider: AuthProviderJWT, Push: PushConfig{Backend: PushBackendRedis}},
		},
		{
			name:    "testing mode in production",
			cfg:     Config{Environment: EnvProduction, TestingMode: true, EncryptionKey: "k", JWTSecret: "s", AuthProvider: AuthProviderJWT, Push: PushConfig{Backend: PushBackendNone}},
			wantErr: true,
		},
		{
			name:    "production without encryption key",
			cfg:     Config{Environment: EnvProduction, JWTSecret: "s", AuthProvider: AuthProviderJWT, Push: PushConfig{Backend: PushBackendNone}},
			wantErr: true,
		},
		{
			name:    "kafka without brokers",
			cfg:     Config{Environment: EnvDevelopment, AuthProvider: AuthProviderJWT, Push: PushConfig{Backend: PushBackendKafka}},
			wantErr: true,
		},
		{
			name:    "unknown auth provider",
			cfg:     Config{Environment: EnvDevelopment, AuthProvider: "ldap", Push: PushConfig{Backend: PushBackendNone}},
			wantErr: true,
		},
		{
			name:    "production without smtp",
			cfg:     Config{Environment: EnvProduction, EncryptionKey: "k", JWTSecret: "s", AuthProvider: AuthProviderJWT, Push: PushConfig{Backend: PushBackendNone}},
			wantErr: true,
		},
		{
			name: "production complete",
			cfg:  Config{Environment: EnvProduction, EncryptionKey: "k", JWTSecret: "s", AuthProvider: AuthProviderJWT, Mail: MailConfig{SMTPHost: "smtp.campus.test"}, Push: PushConfig{Backend: PushBackendKafka, KafkaBrokers: []string{"kafka:9092"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := parseLogLevel("DEBUG"); got != slog.LevelDebug {
		t.Errorf("parseLogLevel(DEBUG) = %v", got)
	}
	if got := parseLogLevel("bogus"); got != slog.LevelInfo {
		t.Errorf("parseLogLevel(bogus) = %v", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitList() = %v", got)
	}
}
