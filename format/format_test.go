package format

import "testing"

func TestHumanNumber(t *testing.T) {
	tests := []struct {
		input uint64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1500, "1.5K"},
		{26_200_000, "26.2M"},
		{123_456_789, "123M"},
		{2_000_000_000, "2B"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := HumanNumber(tt.input); got != tt.want {
				t.Errorf("HumanNumber(%d) = %q, erwartet %q", tt.input, got, tt.want)
			}
		})
	}
}
