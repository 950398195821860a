package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "STORE_DRIVER", "KAFKA_BROKERS", "RATE_LIMIT_RPS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreDriverPostgres {
		t.Errorf("expected postgres store, got %s", cfg.Store.Driver)
	}
	if cfg.Kafka.Brokers != nil {
		t.Errorf("expected no kafka brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Server.RateLimitRPS != 20 {
		t.Errorf("expected rate limit 20, got %d", cfg.Server.RateLimitRPS)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard origin, got %v", cfg.Server.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "dispatch-dev")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	if cfg.Store.Driver != StoreDriverFirestore {
		t.Errorf("expected firestore store, got %s", cfg.Store.Driver)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("expected 3s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("expected invalid int to fall back to 0, got %d", cfg.Redis.DB)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Load()
	cfg.Store.Driver = "mongo"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestValidate_FirestoreNeedsProject(t *testing.T) {
	cfg := Load()
	cfg.Store.Driver = StoreDriverFirestore
	cfg.Firestore = FirestoreConfig{}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for firestore without project or credentials")
	}
}

func TestLoadDotEnvUp_FindsParentFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("DISPATCH_TEST_DOTENV=found\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DISPATCH_TEST_DOTENV", "")
	os.Unsetenv("DISPATCH_TEST_DOTENV")

	LoadDotEnvUp(4)

	if got := os.Getenv("DISPATCH_TEST_DOTENV"); got != "found" {
		t.Errorf("expected value from parent .env, got %q", got)
	}
}
