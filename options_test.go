package conflictkit

import (
	"testing"
	"time"
)

func TestClampInterval(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero stays disabled", 0, 0},
		{"below minimum", time.Second, MinCheckInterval},
		{"at minimum", 5 * time.Second, 5 * time.Second},
		{"in band", 30 * time.Second, 30 * time.Second},
		{"at maximum", 300 * time.Second, 300 * time.Second},
		{"above maximum", 10_000 * time.Second, MaxCheckInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampInterval(tt.in); got != tt.want {
				t.Errorf("clampInterval(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuilderClampsConfiguredInterval(t *testing.T) {
	fetcher := &mockFetcher{}

	low, err := NewDetector(fetcher, "tasks", "42", Options{CheckInterval: time.Second})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := low.Options().CheckInterval; got != MinCheckInterval {
		t.Errorf("interval 1s should clamp to %s, got %s", MinCheckInterval, got)
	}

	high, err := NewDetector(fetcher, "tasks", "42", Options{CheckInterval: 10_000 * time.Second})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := high.Options().CheckInterval; got != MaxCheckInterval {
		t.Errorf("interval 10000s should clamp to %s, got %s", MaxCheckInterval, got)
	}
}

func TestPresets(t *testing.T) {
	silent := PresetSilent()
	if silent.ShowNotification || silent.BlockSave || !silent.LogConflicts {
		t.Error("silent preset should log only")
	}

	notify := PresetNotify()
	if !notify.ShowNotification || notify.BlockSave {
		t.Error("notify preset should inform without blocking")
	}

	strict := PresetStrict()
	if !strict.BlockSave || !strict.ShowNotification {
		t.Error("strict preset should block the save action")
	}

	realtime := PresetRealtime()
	if realtime.CheckInterval != 30*time.Second {
		t.Errorf("realtime preset should poll every 30s, got %s", realtime.CheckInterval)
	}
	if !realtime.ShowNotification {
		t.Error("realtime preset should notify")
	}

	form := PresetFormCustomizer()
	if form.NotificationPosition != PositionInline {
		t.Errorf("formCustomizer preset should position inline, got %s", form.NotificationPosition)
	}
}

func TestPresetByName(t *testing.T) {
	for _, name := range []string{"silent", "notify", "strict", "realtime", "formCustomizer"} {
		if _, ok := PresetByName(name); !ok {
			t.Errorf("preset %q should resolve", name)
		}
	}

	fallback, ok := PresetByName("nonsense")
	if ok {
		t.Error("unknown preset must report false")
	}
	if !fallback.ShowNotification {
		t.Error("unknown preset should fall back to notify")
	}
}
