package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCredentials(t *testing.T) {
	t.Parallel()

	hash := "x"
	assert.True(t, (&User{HashedPassword: &hash}).HasCredentials())
	assert.False(t, (&User{}).HasCredentials())
}
