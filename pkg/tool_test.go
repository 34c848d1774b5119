package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Distinct([]string{"a", "b", "a", "c", "b"}))
	assert.Equal(t, []string{"a"}, Distinct([]string{"a", "a", "a"}))
	assert.Empty(t, Distinct(nil))
}
