package utils_test

import (
	"meetupd/src-server/utils"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupName(t *testing.T) {
	assert.Equal(t, "João Silva", utils.CleanupName("  joão silva. "))
	assert.Equal(t, "Ana", utils.CleanupName("ana"))
	assert.Equal(t, "Maria De Souza", utils.CleanupName("maria de souza"))
	assert.Equal(t, "", utils.CleanupName("   "))
}
