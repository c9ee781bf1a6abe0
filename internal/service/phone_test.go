package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"prepends zero", "912345678", "0912345678"},
		{"keeps leading zero", "0912345678", "0912345678"},
		{"strips inner whitespace", " 091 234\t5678 ", "0912345678"},
		{"strips whitespace before prepending", " 91 2345 678", "0912345678"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)

			again, err := NormalizePhone(got)
			assert.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalizePhoneEmpty(t *testing.T) {
	_, err := NormalizePhone("   ")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}
