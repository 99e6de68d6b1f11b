package identity_test

import (
	"testing"

	identity "github.com/lernago/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestIsValidPhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{
			name:  "Valid number",
			phone: "+374 12345678",
			want:  true,
		},
		{
			name:  "Valid number all nines",
			phone: "+374 99999999",
			want:  true,
		},
		{
			name:  "Missing space",
			phone: "+37412345678",
			want:  false,
		},
		{
			name:  "Wrong country code",
			phone: "+1 12345678",
			want:  false,
		},
		{
			name:  "Too few digits",
			phone: "+374 1234567",
			want:  false,
		},
		{
			name:  "Too many digits",
			phone: "+374 123456789",
			want:  false,
		},
		{
			name:  "Trailing garbage",
			phone: "+374 12345678x",
			want:  false,
		},
		{
			name:  "Empty",
			phone: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.IsValidPhoneNumber(tt.phone))
		})
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	t.Run("formats accepted numbers as E.164", func(t *testing.T) {
		got := identity.NormalizePhoneNumber("+374 91234567")
		assert.Equal(t, "+37491234567", got)
	})

	t.Run("returns input unchanged when unparseable", func(t *testing.T) {
		got := identity.NormalizePhoneNumber("not a number")
		assert.Equal(t, "not a number", got)
	})
}
