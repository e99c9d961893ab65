package staff

import "testing"

func Test_passwordPolicyTag(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcd123!x", want: pwdComplexityTag},
		{name: "no special", pwd: "Abcd1234x", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Registrar1!", attrs: []string{"registrar"}, want: pwdAttrSimTag},
		{name: "empty attr ignored", pwd: "S3cure!Pwd", attrs: []string{""}},
		{name: "valid", pwd: "S3cure!Pwd", attrs: []string{"admin", "admin@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passwordPolicyTag(tt.pwd, tt.attrs...); got != tt.want {
				t.Errorf("passwordPolicyTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	if err := CheckPasswordPolicy("S3cure!Pwd", "admin"); err != nil {
		t.Errorf("CheckPasswordPolicy() error = %v, want nil", err)
	}
	if err := CheckPasswordPolicy("short"); err == nil || err.Error() != pwdMinLenText {
		t.Errorf("CheckPasswordPolicy() error = %v, want %q", err, pwdMinLenText)
	}
}
