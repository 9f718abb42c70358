package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveObjectKey(t *testing.T) {
	assert.Equal(t, "uploads", resolveObjectKey(" uploads ", ""))
	assert.Equal(t, "sales.csv", resolveObjectKey("", "/sales.csv"))
	assert.Equal(t, "uploads/sales.csv", resolveObjectKey("uploads/", "sales.csv"))
	assert.Equal(t, "uploads/2024/sales.csv", resolveObjectKey("uploads", "/uploads/2024/sales.csv"))
}

func TestObjectRelativePath(t *testing.T) {
	assert.Equal(t, "a/b.csv", objectRelativePath("", "a/b.csv"))
	assert.Equal(t, "2024/sales.csv", objectRelativePath("uploads/", "uploads/2024/sales.csv"))
	assert.Equal(t, "uploads", objectRelativePath("uploads", "uploads"))
}
