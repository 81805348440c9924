package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Model.Version == "" {
		t.Fatalf("model defaults not applied")
	}
	if c.Detector.MinHistoryDays != 8 {
		t.Fatalf("min_history_days = %d, want 8", c.Detector.MinHistoryDays)
	}
	if c.Keywords.OverrideThreshold != 3.0 {
		t.Fatalf("override_threshold = %v, want 3.0", c.Keywords.OverrideThreshold)
	}
	if c.Redis.Port != 6379 {
		t.Fatalf("redis.port = %d, want 6379", c.Redis.Port)
	}
	if c.Queue.Workers != 2 || c.Queue.QueueSize != 1000 {
		t.Fatalf("queue defaults not applied: %+v", c.Queue)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	body := `environment: test
model:
  version: v1
  weights:
    technical: 0.5
    sentiment: 0.5
    fundamentals: 0.5
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("expected weight-sum error, got %v", err)
	}
}

func TestLoadRejectsQueueWithoutRedis(t *testing.T) {
	body := `environment: test
queue:
  enabled: true
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "requires redis") {
		t.Fatalf("expected queue/redis error, got %v", err)
	}
}

func TestLoadRejectsConsumerWithoutTopic(t *testing.T) {
	body := `environment: test
kafka:
  enabled: true
  brokers: [localhost:9092]
  consumer:
    enabled: true
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "quotes_topic") {
		t.Fatalf("expected consumer topic error, got %v", err)
	}
}

func TestLoadWithEnvSplitsRedisAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	c, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Redis.Host != "cache.internal" || c.Redis.Port != 6380 {
		t.Fatalf("redis = %s:%d, want cache.internal:6380", c.Redis.Host, c.Redis.Port)
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	if sum := DefaultModel().Weights.Sum(); sum < 0.999999 || sum > 1.000001 {
		t.Fatalf("default weights sum = %v", sum)
	}
}

func TestTierForDescendingPriceLevels(t *testing.T) {
	det := DefaultDetector()
	if got := det.TierFor(620.0); got != 20 {
		t.Fatalf("TierFor(620) = %v, want 20", got)
	}
	if got := det.TierFor(120.0); got != 7 {
		t.Fatalf("TierFor(120) = %v, want 7", got)
	}
	if got := det.TierFor(30.0); got != 1.5 {
		t.Fatalf("TierFor(30) = %v, want 1.5", got)
	}
}
