package num

import "testing"

func TestParseDec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		sign    int8
		coef    string
		scale   uint32
		errKind ErrorKind
		wantErr bool
	}{
		{name: "zero", input: "0", sign: 0, coef: "0", scale: 0},
		{name: "neg zero", input: "-0.0", sign: 0, coef: "0", scale: 0},
		{name: "integer", input: "12", sign: 1, coef: "12", scale: 0},
		{name: "leading zero decimal", input: "0.1", sign: 1, coef: "1", scale: 1},
		{name: "trailing zero decimal", input: "1.0", sign: 1, coef: "1", scale: 0},
		{name: "trim trailing zeros", input: "12.3400", sign: 1, coef: "1234", scale: 2},
		{name: "leading dot", input: ".5", sign: 1, coef: "5", scale: 1},
		{name: "trailing dot", input: "5.", sign: 1, coef: "5", scale: 0},
		{name: "leading zeros", input: "-001.2300", sign: -1, coef: "123", scale: 2},
		{name: "empty", input: "", wantErr: true, errKind: ParseEmpty},
		{name: "sign only", input: "+", wantErr: true, errKind: ParseNoDigits},
		{name: "dot only", input: ".", wantErr: true, errKind: ParseNoDigits},
		{name: "double dot", input: "1..2", wantErr: true, errKind: ParseMultipleDots},
		{name: "bad char", input: "1a", wantErr: true, errKind: ParseBadChar},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDec([]byte(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if err.Kind != tc.errKind {
					t.Fatalf("error kind = %v, want %v", err.Kind, tc.errKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Sign != tc.sign {
				t.Fatalf("sign = %d, want %d", got.Sign, tc.sign)
			}
			if string(got.Coef) != tc.coef {
				t.Fatalf("coef = %q, want %q", string(got.Coef), tc.coef)
			}
			if got.Scale != tc.scale {
				t.Fatalf("scale = %d, want %d", got.Scale, tc.scale)
			}
		})
	}
}

func TestDecCanonicalAndParts(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		integral string
		fraction string
	}{
		{input: "12345.67890", want: "12345.6789", integral: "12345", fraction: "6789"},
		{input: "5", want: "5.0", integral: "5", fraction: ""},
		{input: "-0.005", want: "-0.005", integral: "0", fraction: "005"},
		{input: "+000.000", want: "0.0", integral: "0", fraction: ""},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			d, err := ParseDec([]byte(tc.input))
			if err != nil {
				t.Fatalf("ParseDec: %v", err)
			}
			if got := d.String(); got != tc.want {
				t.Fatalf("String() = %q, want %q", got, tc.want)
			}
			i, f := d.Parts()
			if string(i) != tc.integral || string(f) != tc.fraction {
				t.Fatalf("Parts() = %q, %q", i, f)
			}
		})
	}
}

func TestDecCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.5", "1.50", 0},
		{"1.05", "1.5", -1},
		{"-2", "1", -1},
		{"-2.1", "-2.01", -1},
		{"0", "-0.0", 0},
		{"10", "9.999", 1},
	}
	for _, tc := range tests {
		a, _ := ParseDec([]byte(tc.a))
		b, _ := ParseDec([]byte(tc.b))
		if got := a.Compare(b); got != tc.want {
			t.Fatalf("Compare(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := ParseDec([]byte("-1.2.3"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), `number "-1.2.3": multiple dots`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
