package models

import "testing"

func TestValidFrequency(t *testing.T) {
	for _, f := range []string{FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly} {
		if !ValidFrequency(f) {
			t.Errorf("ValidFrequency(%q) = false", f)
		}
	}
	for _, f := range []string{"", "hourly", "DAILY", "every-minute"} {
		if ValidFrequency(f) {
			t.Errorf("ValidFrequency(%q) = true", f)
		}
	}
}
