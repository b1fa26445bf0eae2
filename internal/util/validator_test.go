package util

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Salsa2024!", true},
		{"Bachata.9x", true},
		{"¡Kizomba1a", true},
		{"salsa2024!", false},
		{"SALSA2024!", false},
		{"SalsaSalsa!", false},
		{"Salsa2024", false},
		{"Sal sa20!", false},
		{"Sa1!", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if (err == nil) != tc.ok {
			t.Fatalf("%q: expected ok=%v got %v", tc.password, tc.ok, err)
		}
	}
}

func TestValidateNombre(t *testing.T) {
	for _, ok := range []string{"Sara", "José María", "Iñaki", "Ñu"} {
		if err := ValidateNombre(ok); err != nil {
			t.Fatalf("%q should be valid: %v", ok, err)
		}
	}
	if err := ValidateNombre("A"); err == nil || err.Error() != MsgTooShort {
		t.Fatalf("expected too short, got %v", err)
	}
	for _, bad := range []string{"Ana  Luz", "Ana1", " Ana", "Ana-Luz"} {
		if err := ValidateNombre(bad); err == nil || err.Error() != MsgFormat {
			t.Fatalf("%q: expected format error, got %v", bad, err)
		}
	}
}

func TestValidateTelefonoAndHora(t *testing.T) {
	if err := ValidateTelefono("612345678"); err != nil {
		t.Fatalf("telefono: %v", err)
	}
	if err := ValidateTelefono("+34612345678"); err == nil {
		t.Fatalf("prefix must be sent separately")
	}
	if err := ValidateTelefono("12345"); err == nil {
		t.Fatalf("too few digits must fail")
	}
	for _, hora := range []string{"00:00", "09:30", "23:59"} {
		if err := ValidateHora(hora); err != nil {
			t.Fatalf("%s: %v", hora, err)
		}
	}
	for _, hora := range []string{"24:00", "9:30", "12:60", "12-30"} {
		if err := ValidateHora(hora); err == nil {
			t.Fatalf("%s should fail", hora)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("ana@example.com"); err != nil {
		t.Fatalf("email: %v", err)
	}
	if err := ValidateEmail("Ana <ana@example.com>"); err == nil || err.Error() != MsgEmail {
		t.Fatalf("display names are not plain addresses, got %v", err)
	}
	if err := ValidateEmail(""); err == nil || err.Error() != MsgRequired {
		t.Fatalf("expected required, got %v", err)
	}
}

func TestValidatorKeepsFirstFailurePerField(t *testing.T) {
	v := NewValidator()
	v.Require("email", "")
	v.FieldError("email", ValidateEmail("x"))
	v.Check(false, "hora", MsgFormat)

	err := v.Err()
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	vErr := err.(*ValidationError)
	if vErr.Fields["email"] != MsgRequired || vErr.Fields["hora"] != MsgFormat {
		t.Fatalf("unexpected fields %+v", vErr.Fields)
	}
	if !strings.HasPrefix(err.Error(), "validação: email:") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if NewValidator().Err() != nil {
		t.Fatalf("empty validator must not fail")
	}
}

func TestNewIDIsUnique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatalf("ids must differ")
	}
}
