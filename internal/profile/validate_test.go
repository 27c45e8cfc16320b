package profile

import "testing"

func TestValidateChannel(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"123", false},
		{"12345678901234567", true},
		{"123456789012345678", true},
		{"1234567890123456789", true},
		{"12345678901234567890", false},
		{"123456789012345678901", false},
		{"1234567890123456a", false},
		{" 12345678901234567", false},
		{"+1234567890123456", false},
	}
	for _, tc := range cases {
		fe := ValidateChannel(tc.raw)
		if got := fe == nil; got != tc.want {
			t.Errorf("ValidateChannel(%q) ok=%v, want %v", tc.raw, got, tc.want)
		}
		if fe != nil && (fe.Kind != FormatError || fe.Field != FieldChannel) {
			t.Errorf("ValidateChannel(%q) = %+v, want channel format error", tc.raw, fe)
		}
	}
}

func TestValidateCredential(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"abc.def.ghi", true},
		{"MTIz.NDU2.Nzg5-_x", true},
		{"a.b.c.d", true},
		{"abc", false},
		{"abc.def", false},
		{".def.ghi", false},
		{"abc..ghi", false},
		{"abc.def.", false},
	}
	for _, tc := range cases {
		fe := ValidateCredential(tc.raw)
		if got := fe == nil; got != tc.want {
			t.Errorf("ValidateCredential(%q) ok=%v, want %v", tc.raw, got, tc.want)
		}
		if fe != nil && fe.Kind != FormatError {
			t.Errorf("ValidateCredential(%q) kind = %s, want %s", tc.raw, fe.Kind, FormatError)
		}
	}
}

func TestValidateProfileName(t *testing.T) {
	if fe := ValidateProfileName("weekly"); fe != nil {
		t.Errorf("unexpected error: %v", fe)
	}
	for _, raw := range []string{"", "   ", "\t\n"} {
		fe := ValidateProfileName(raw)
		if fe == nil {
			t.Fatalf("ValidateProfileName(%q): expected error", raw)
		}
		if fe.Kind != RequiredError || fe.Field != FieldName {
			t.Errorf("ValidateProfileName(%q) = %+v, want name required error", raw, fe)
		}
	}
}

func TestValidateCollectsInFieldOrder(t *testing.T) {
	s := NewSnapshot()
	s.Name = " "
	s.Credential = "nodots"
	s.Channel = "123"

	errs := Validate(s)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	want := []Field{FieldName, FieldCredential, FieldChannel}
	for i, f := range want {
		if errs[i].Field != f {
			t.Errorf("errs[%d].Field = %s, want %s", i, errs[i].Field, f)
		}
	}
}
