package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseRole(t *testing.T) {
	for _, s := range []string{"customer", "admin", "super_admin"} {
		r, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}
	for _, s := range []string{"", "CUSTOMER", "root", "superadmin"} {
		_, err := ParseRole(s)
		assert.Error(t, err, "role %q must be rejected", s)
	}
}
