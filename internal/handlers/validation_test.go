package handlers

import "testing"

func TestValidateName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		required bool
		wantErr  bool
	}{
		{"valid", "Ana Maria", true, false},
		{"hyphen and apostrophe", "Mary-Jane O'Brien", true, false},
		{"empty required", "", true, true},
		{"empty optional", "", false, false},
		{"too short", "A", true, true},
		{"too long", "Aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true, true},
		{"digits", "Ana123", true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateName(tc.input, tc.required)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateName(%q, %v): got %v, wantErr %v", tc.input, tc.required, err, tc.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		input   string
		wantErr bool
	}{
		{"kid@example.com", false},
		{"a.b-c@sub.example.org", false},
		{"", true},
		{"no-at-sign", true},
		{"spaces in@example.com", true},
		{"missing@tld", true},
	}

	for _, tc := range testCases {
		err := validateEmail(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("validateEmail(%q): got %v, wantErr %v", tc.input, err, tc.wantErr)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		required bool
		wantErr  bool
	}{
		{"valid", "Str0ngPass", true, false},
		{"empty required", "", true, true},
		{"empty optional", "", false, false},
		{"too short", "Ab1", true, true},
		{"no uppercase", "weakpass1", true, true},
		{"no lowercase", "WEAKPASS1", true, true},
		{"no digit", "WeakPassword", true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.input, tc.required)
			if (err != nil) != tc.wantErr {
				t.Errorf("validatePassword(%q, %v): got %v, wantErr %v", tc.input, tc.required, err, tc.wantErr)
			}
		})
	}
}

func TestValidateAnswer(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "gato", false},
		{"valid with surrounding spaces", "  gato  ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"tabs and newlines", "\t\n", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateAnswer(tc.input)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateAnswer(%q): got %v, wantErr %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestValidateDifficulty(t *testing.T) {
	for _, valid := range []string{"", "easy", "medium", "hard"} {
		if err := validateDifficulty(valid); err != nil {
			t.Errorf("validateDifficulty(%q): unexpected error %v", valid, err)
		}
	}
	for _, invalid := range []string{"extreme", "EASY", "1"} {
		if err := validateDifficulty(invalid); err == nil {
			t.Errorf("validateDifficulty(%q): expected error", invalid)
		}
	}
}
