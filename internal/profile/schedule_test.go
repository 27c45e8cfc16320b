package profile

import "testing"

func TestComposeIntervalFallback(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"abc", 300},
		{"-5", 300},
		{"", 300},
		{"0", 300},
		{"45", 45},
		{" 90 ", 90},
		{"45.5", 45},
		{"45s", 45},
		{"+60", 60},
		{"-", 300},
		{"s45", 300},
		{"99999999999999999999", 300},
	}
	for _, tc := range cases {
		s := NewSnapshot()
		s.Interval.Seconds = tc.raw
		got, err := ComposeSchedule(s)
		if err != nil {
			t.Fatalf("ComposeSchedule(%q): %v", tc.raw, err)
		}
		if got != (Interval{Seconds: tc.want}) {
			t.Errorf("ComposeSchedule(%q) = %#v, want Interval{%d}", tc.raw, got, tc.want)
		}
		if got.CronExpression() != "" {
			t.Errorf("interval must not carry a cron expression, got %q", got.CronExpression())
		}
	}
}

func TestComposeCronAdvanced(t *testing.T) {
	cases := []struct {
		time, day string
		want      string
	}{
		{"09:30", "1-5", "30 9 * * 1-5"},
		{"9:30", "*", "30 9 * * *"},
		{"23:59", "0,6", "59 23 * * 0,6"},
		{"", "*", "0 0 * * *"},
		{"25:00", "1", "0 0 * * 1"},
		{"noon", "mon", "0 0 * * mon"},
	}
	for _, tc := range cases {
		s := NewSnapshot()
		if err := s.SelectScheduleMode(ModeCronAdvanced); err != nil {
			t.Fatal(err)
		}
		s.CronAdvanced = CronAdvancedFields{Time: tc.time, Day: tc.day}
		s.Refresh()
		if s.CronExpression != tc.want {
			t.Errorf("time=%q day=%q: expression %q, want %q", tc.time, tc.day, s.CronExpression, tc.want)
		}
	}
}

func TestAdvancedExpressionFormat(t *testing.T) {
	if got := AdvancedExpression(9, 30, "1-5"); got != "30 9 * * 1-5" {
		t.Errorf("got %q", got)
	}
}

func TestComposeCronSimpleUsesPresetVerbatim(t *testing.T) {
	s := NewSnapshot()
	s.CronSimple.Preset = "0 9 * * *"
	if err := s.SelectScheduleMode(ModeCronSimple); err != nil {
		t.Fatal(err)
	}
	if s.CronExpression != "0 9 * * *" {
		t.Errorf("expression = %q", s.CronExpression)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	s := NewSnapshot()
	s.ScheduleMode = ModeCronAdvanced
	s.CronAdvanced = CronAdvancedFields{Time: "07:05", Day: "1-5"}
	s.Refresh()
	first := s.CronExpression
	s.Refresh()
	if s.CronExpression != first {
		t.Errorf("second refresh changed %q to %q", first, s.CronExpression)
	}

	if err := s.SelectScheduleMode(ModeInterval); err != nil {
		t.Fatal(err)
	}
	if s.CronExpression != "" {
		t.Errorf("interval mode expression = %q, want empty", s.CronExpression)
	}
}

func TestParseAdvanced(t *testing.T) {
	got, err := parseAdvanced("30 9 * * 1-5")
	if err != nil {
		t.Fatalf("parseAdvanced: %v", err)
	}
	if got != (CronAdvanced{Hour: 9, Minute: 30, Day: "1-5"}) {
		t.Errorf("got %#v", got)
	}
	for expr, day := range map[string]string{"30 9 * * ": "", "30 9 * * 1 5": "1 5", "30 9 * * mon,fri": "mon,fri"} {
		got, err := parseAdvanced(expr)
		if err != nil {
			t.Errorf("parseAdvanced(%q): %v", expr, err)
			continue
		}
		if got != (CronAdvanced{Hour: 9, Minute: 30, Day: day}) {
			t.Errorf("parseAdvanced(%q) = %#v", expr, got)
		}
	}
	for _, bad := range []string{"", "0 9 * *", "0 9 1 * *", "x 9 * * *", "0 24 * * *"} {
		if _, err := parseAdvanced(bad); err == nil {
			t.Errorf("parseAdvanced(%q): expected error", bad)
		}
	}
}
