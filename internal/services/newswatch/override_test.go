package newswatch

import (
	"context"
	"reflect"
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/config"
	"StockPulse/pkg/logger"
)

type stubCooldown struct{ allow bool }

func (s stubCooldown) Allow(ctx context.Context, symbol string) bool { return s.allow }

func testOverride(t *testing.T, allow bool) *Override {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewOverride(config.DefaultKeywords(), stubCooldown{allow: allow}, log)
}

func TestOverrideReplacesDisagreeingLabel(t *testing.T) {
	o := testOverride(t, true)
	articles := []models.NewsArticle{
		{Title: "Acme posts earnings beat", Description: "company announces guidance raise for fiscal year"},
	}

	d := o.Evaluate(context.Background(), "ACME", articles, models.LabelBearish)
	if !d.Triggered {
		t.Fatalf("net %.1f should clear the threshold", d.NetScore)
	}
	if d.Label != models.LabelBullish {
		t.Fatalf("label = %v, want BULLISH", d.Label)
	}
	// 2.0 + 1.8
	if d.NetScore != 3.8 {
		t.Fatalf("net = %v, want 3.8", d.NetScore)
	}
	want := []string{"earnings beat", "guidance raise"}
	if !reflect.DeepEqual(d.TriggeringKeywords, want) {
		t.Fatalf("keywords = %v, want %v", d.TriggeringKeywords, want)
	}
	if Reason(d) == "" {
		t.Fatalf("triggered decision must render a reason")
	}
}

func TestOverrideBelowThresholdKeepsLabel(t *testing.T) {
	o := testOverride(t, true)
	articles := []models.NewsArticle{
		{Title: "Acme announces partnership"}, // 1.3
	}

	d := o.Evaluate(context.Background(), "ACME", articles, models.LabelBearish)
	if d.Triggered || d.Label != models.LabelBearish {
		t.Fatalf("weak evidence must not override: %+v", d)
	}
	if Reason(d) != "" {
		t.Fatalf("no reason without a trigger")
	}
}

func TestOverrideMixedEvidenceCancels(t *testing.T) {
	o := testOverride(t, true)
	articles := []models.NewsArticle{
		{Title: "earnings beat overshadowed by lawsuit"}, // 2.0 - 1.4
	}

	d := o.Evaluate(context.Background(), "ACME", articles, models.LabelBearish)
	if d.Triggered {
		t.Fatalf("net %.1f must stay below threshold", d.NetScore)
	}
	if d.BullishScore != 2.0 || d.BearishScore != 1.4 {
		t.Fatalf("scores = %v / %v, want 2.0 / 1.4", d.BullishScore, d.BearishScore)
	}
}

func TestOverrideAgreementIsNoop(t *testing.T) {
	o := testOverride(t, false) // cooldown would deny, must never be consulted
	articles := []models.NewsArticle{
		{Title: "earnings beat", Description: "guidance raise"},
	}

	d := o.Evaluate(context.Background(), "ACME", articles, models.LabelBullish)
	if d.Triggered || d.CooldownBlocked {
		t.Fatalf("evidence agreeing with the model must change nothing: %+v", d)
	}
	if d.Label != models.LabelBullish {
		t.Fatalf("label = %v, want BULLISH", d.Label)
	}
}

func TestOverrideCooldownBlocks(t *testing.T) {
	o := testOverride(t, false)
	articles := []models.NewsArticle{
		{Title: "earnings beat", Description: "guidance raise"},
	}

	d := o.Evaluate(context.Background(), "ACME", articles, models.LabelBearish)
	if d.Triggered {
		t.Fatalf("cooldown must suppress the trigger")
	}
	if !d.CooldownBlocked {
		t.Fatalf("blocked decision must say so")
	}
	if d.Label != models.LabelBearish {
		t.Fatalf("label = %v, want the base BEARISH", d.Label)
	}
}

func TestOverrideDeterministic(t *testing.T) {
	articles := []models.NewsArticle{
		{Title: "record profit on revenue growth", Description: "analyst upgrade follows"},
	}
	a := testOverride(t, true).Evaluate(context.Background(), "ACME", articles, models.LabelBearish)
	b := testOverride(t, true).Evaluate(context.Background(), "ACME", articles, models.LabelBearish)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs diverged:\n%+v\n%+v", a, b)
	}
	if !a.Triggered {
		// 1.9 + 1.6 + 1.7
		t.Fatalf("net %.1f should trigger", a.NetScore)
	}
}

func TestOverrideBearishDirection(t *testing.T) {
	o := testOverride(t, true)
	articles := []models.NewsArticle{
		{Title: "guidance cut after earnings miss"}, // -1.8 - 2.0
	}

	d := o.Evaluate(context.Background(), "ACME", articles, models.LabelBullish)
	if !d.Triggered || d.Label != models.LabelBearish {
		t.Fatalf("net %+.1f should force BEARISH: %+v", d.NetScore, d)
	}
	want := []string{"earnings miss", "guidance cut"}
	if !reflect.DeepEqual(d.TriggeringKeywords, want) {
		t.Fatalf("keywords = %v, want %v", d.TriggeringKeywords, want)
	}
}
