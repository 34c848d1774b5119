package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeName(t *testing.T) {
	assert.Equal(t, "POINT", ShapeName(1))
	assert.Equal(t, "LINE", ShapeName(2))
	assert.Equal(t, "TORUS", ShapeName(16))
	assert.Equal(t, "", ShapeName(0))
	assert.Equal(t, "", ShapeName(-3))
}

func TestShapeNameRecycles(t *testing.T) {
	assert.Equal(t, "POINT 2", ShapeName(17))
	assert.Equal(t, "TORUS 2", ShapeName(32))
	assert.Equal(t, "POINT 3", ShapeName(33))
}
