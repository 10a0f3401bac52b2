package regmap

import (
	"strings"
	"testing"
)

func TestParseValues(t *testing.T) {
	input := `
ALIGNER:
  RW:
    CONFIG_a: 0x5
    CONFIG_b:
      value: 7
    CONFIG_c:
      default: 0b101
`
	ov, err := ParseValues([]byte(input), "")
	if err != nil {
		t.Fatalf("ParseValues failed: %v", err)
	}
	want := []Override{
		{Ref: ParamRef{"ALIGNER", "RW", "CONFIG_a"}, Value: 5},
		{Ref: ParamRef{"ALIGNER", "RW", "CONFIG_b"}, Value: 7},
		{Ref: ParamRef{"ALIGNER", "RW", "CONFIG_c"}, Value: 5},
	}
	if len(ov) != len(want) {
		t.Fatalf("got %d overrides, want %d", len(ov), len(want))
	}
	for i := range want {
		if ov[i] != want[i] {
			t.Errorf("override %d = %v, want %v", i, ov[i], want[i])
		}
	}
}

func TestParseValuesErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"negative", "B: {RW: {p: -1}}", "non-negative integer"},
		{"empty entry", "B: {RW: {p: {other: 1}}}", `neither "value" nor "default"`},
		{"sequence", "B: {RW: {p: [1]}}", "expected an integer or a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValues([]byte(tt.input), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadValuesWithRoot(t *testing.T) {
	ov, err := LoadValues(testdata("values", "econt_config.yaml"), "econt")
	if err != nil {
		t.Fatalf("LoadValues failed: %v", err)
	}
	if len(ov) != 3 {
		t.Fatalf("got %d overrides, want 3", len(ov))
	}
	if ov[1].Ref.Param != "CONFIG_i2c_config_mode" || ov[1].Value != 2 {
		t.Errorf("unexpected second override %v", ov[1])
	}
}

func TestMarshalValuesRoundTrip(t *testing.T) {
	s, err := LoadSchema(testdata("regmaps", "econ_t.yaml"), "econt")
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	cfg := s.Configuration()

	data, err := MarshalValues(cfg)
	if err != nil {
		t.Fatalf("MarshalValues failed: %v", err)
	}
	ov, err := ParseValues(data, "")
	if err != nil {
		t.Fatalf("ParseValues failed: %v\n%s", err, data)
	}
	if len(ov) != cfg.Len() {
		t.Fatalf("got %d overrides, want %d", len(ov), cfg.Len())
	}
	for _, o := range ov {
		def, ok := cfg.Get(o.Ref)
		if !ok {
			t.Errorf("unexpected ref %s", o.Ref)
			continue
		}
		if def.Value != o.Value {
			t.Errorf("%s = 0x%X, want 0x%X", o.Ref, o.Value, def.Value)
		}
	}
}
