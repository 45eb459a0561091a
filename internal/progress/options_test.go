package progress

import "testing"

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"zero mature interval", func(o *Options) { o.MatureInterval = 0 }, false},
		{"negative mature interval", func(o *Options) { o.MatureInterval = -1 }, true},
		{"unknown mode", func(o *Options) { o.Mode = "bogus" }, true},
		{"mask above one", func(o *Options) { o.SuspendMaskThreshold = 1.5 }, true},
		{"no difficulty sample", func(o *Options) { o.DifficultySampleNotes = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsNormalize_PercentOverlap(t *testing.T) {
	o := Options{OverlapThreshold: 20}
	o.Normalize()
	if o.Mode != ModeItems || o.OverlapThreshold != 0.2 {
		t.Errorf("normalized = %q %v, want items 0.2", o.Mode, o.OverlapThreshold)
	}
}

func TestClassify_ZeroMatureInterval(t *testing.T) {
	if got := Classify(KindReview, QueueReview, 0, 0); got != StateMature {
		t.Errorf("ivl 0 with threshold 0 = %q, want mature", got)
	}
}
