package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("X_INT", " 42 ")
	t.Setenv("X_BAD_INT", "forty")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_SECS", "30")
	t.Setenv("X_BOOL", "Yes")
	t.Setenv("X_FLOAT", "2.5")
	t.Setenv("X_LIST", "a, b;;c\n")

	assert.Equal(t, 42, GetInt("X_INT", 1))
	assert.Equal(t, 1, GetInt("X_BAD_INT", 1))
	assert.Equal(t, 7, GetInt("X_UNSET", 7))
	assert.Equal(t, 90*time.Second, GetDuration("X_DUR", 0))
	assert.Equal(t, 30*time.Second, GetDuration("X_SECS", 0))
	assert.True(t, GetBool("X_BOOL", false))
	assert.True(t, GetBool("X_UNSET", true))
	assert.Equal(t, 2.5, GetFloat("X_FLOAT", 0))
	assert.Equal(t, []string{"a", "b", "c"}, GetList("X_LIST"))
	assert.Nil(t, GetList("X_UNSET"))
	assert.Equal(t, "dflt", Get("X_UNSET", "dflt"))
}
