package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_StoreDriverValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default postgres", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StoreDriver != StoreDriverPostgres {
			t.Fatalf("unexpected default store driver: %q", cfg.StoreDriver)
		}
	})

	t.Run("memory accepted", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StoreDriver != StoreDriverMemory {
			t.Fatalf("unexpected store driver: %q", cfg.StoreDriver)
		}
	})

	t.Run("unknown rejected", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "redis")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORE_DRIVER")
		}
	})
}

func TestLoad_LeagueDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LeagueCapacity != 22 {
		t.Fatalf("unexpected default league capacity: %d", cfg.LeagueCapacity)
	}
	if cfg.LeagueSeason != 1 {
		t.Fatalf("unexpected default league season: %d", cfg.LeagueSeason)
	}
	if cfg.LeagueTimezone != "Europe/Istanbul" {
		t.Fatalf("unexpected default league timezone: %q", cfg.LeagueTimezone)
	}
	if cfg.LeagueKickoffHour != 19 {
		t.Fatalf("unexpected default kickoff hour: %d", cfg.LeagueKickoffHour)
	}
	if cfg.DispatchShardCount != 4 {
		t.Fatalf("unexpected default shard count: %d", cfg.DispatchShardCount)
	}
}

func TestLoad_LeagueValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("capacity too small", func(t *testing.T) {
		t.Setenv("LEAGUE_CAPACITY", "1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for LEAGUE_CAPACITY=1")
		}
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("LEAGUE_CAPACITY", "")
		t.Setenv("LEAGUE_TIMEZONE", "Mars/Olympus")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown LEAGUE_TIMEZONE")
		}
	})

	t.Run("kickoff hour out of range", func(t *testing.T) {
		t.Setenv("LEAGUE_TIMEZONE", "")
		t.Setenv("LEAGUE_KICKOFF_HOUR", "24")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for LEAGUE_KICKOFF_HOUR=24")
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_BetterStackRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when BETTERSTACK_ENABLED=true without BETTERSTACK_ENDPOINT")
	}
}

func TestLoad_BetterStackConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "s1765114.eu-fsn-3.betterstackdata.com")
	t.Setenv("BETTERSTACK_TOKEN", "token-123")
	t.Setenv("BETTERSTACK_TIMEOUT", "4s")
	t.Setenv("BETTERSTACK_MIN_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.BetterStackEnabled {
		t.Fatalf("expected BetterStackEnabled=true")
	}
	if cfg.BetterStackEndpoint != "s1765114.eu-fsn-3.betterstackdata.com" {
		t.Fatalf("unexpected BetterStackEndpoint: %q", cfg.BetterStackEndpoint)
	}
	if cfg.BetterStackToken != "token-123" {
		t.Fatalf("unexpected BetterStackToken")
	}
	if cfg.BetterStackTimeout != 4*time.Second {
		t.Fatalf("unexpected BetterStackTimeout: %s", cfg.BetterStackTimeout)
	}
	if cfg.BetterStackMinLevel.String() != "warn" {
		t.Fatalf("unexpected BetterStackMinLevel: %s", cfg.BetterStackMinLevel.String())
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "league-engine-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "league-engine-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_QStashConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=false by default")
		}
	})

	t.Run("enabled requires token and target and internal token", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "")
		t.Setenv("QSTASH_TARGET_BASE_URL", "")
		t.Setenv("INTERNAL_JOB_TOKEN", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QSTASH_ENABLED=true without required env")
		}
	})

	t.Run("enabled with required values", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://league-engine.fly.dev")
		t.Setenv("INTERNAL_JOB_TOKEN", "internal-job-token")
		t.Setenv("QSTASH_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=true")
		}
		if cfg.QStashRetries != 2 {
			t.Fatalf("unexpected qstash retries: %d", cfg.QStashRetries)
		}
		if cfg.InternalJobToken != "internal-job-token" {
			t.Fatalf("unexpected internal job token: %q", cfg.InternalJobToken)
		}
	})
}

func TestLoad_SimEngineConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("SIMENGINE_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SimEngineEnabled {
			t.Fatalf("expected SimEngineEnabled=false by default")
		}
	})

	t.Run("enabled requires base url", func(t *testing.T) {
		t.Setenv("SIMENGINE_ENABLED", "true")
		t.Setenv("SIMENGINE_BASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when SIMENGINE_ENABLED=true without SIMENGINE_BASE_URL")
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("SIMENGINE_ENABLED", "true")
		t.Setenv("SIMENGINE_BASE_URL", "https://sim.league-engine.dev")
		t.Setenv("SIMENGINE_TOKEN", "engine-token")
		t.Setenv("SIMENGINE_TIMEOUT", "15s")
		t.Setenv("SIMENGINE_MAX_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SimEngineEnabled {
			t.Fatalf("expected SimEngineEnabled=true")
		}
		if cfg.SimEngineBaseURL != "https://sim.league-engine.dev" {
			t.Fatalf("unexpected sim engine base url: %q", cfg.SimEngineBaseURL)
		}
		if cfg.SimEngineTimeout != 15*time.Second {
			t.Fatalf("unexpected sim engine timeout: %s", cfg.SimEngineTimeout)
		}
		if cfg.SimEngineMaxRetries != 2 {
			t.Fatalf("unexpected sim engine retries: %d", cfg.SimEngineMaxRetries)
		}
	})
}

func TestLoad_ArtifactStoreConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("enabled requires bucket and credentials", func(t *testing.T) {
		t.Setenv("ARTIFACT_STORE_ENABLED", "true")
		t.Setenv("ARTIFACT_S3_BUCKET", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when ARTIFACT_STORE_ENABLED=true without bucket")
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("ARTIFACT_STORE_ENABLED", "true")
		t.Setenv("ARTIFACT_S3_BUCKET", "match-results")
		t.Setenv("ARTIFACT_S3_ACCESS_KEY_ID", "key-id")
		t.Setenv("ARTIFACT_S3_SECRET_ACCESS_KEY", "secret")
		t.Setenv("ARTIFACT_S3_ENDPOINT", "https://accountid.r2.cloudflarestorage.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.ArtifactStoreEnabled {
			t.Fatalf("expected ArtifactStoreEnabled=true")
		}
		if cfg.ArtifactS3Region != "auto" {
			t.Fatalf("unexpected default region: %q", cfg.ArtifactS3Region)
		}
	})
}
