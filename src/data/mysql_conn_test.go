package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureParam(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h:3306)/db?parseTime=true", ensureParam("u:p@tcp(h:3306)/db", "parseTime", "true"))
	assert.Equal(t, "u@/db?a=1&parseTime=true", ensureParam("u@/db?a=1", "parseTime", "true"))
	assert.Equal(t, "u@/db?parseTime=false", ensureParam("u@/db?parseTime=false", "parseTime", "true"))
}
