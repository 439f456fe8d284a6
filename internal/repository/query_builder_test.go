package repository

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
)

func TestBuildConditionsAppliesAliases(t *testing.T) {
	q := NewQueryBuilder()
	assert.False(t, q.HasConditions())

	q.AddCondition("sku", "RING-07")
	q.AddCondition("archived", false)

	conditions := q.BuildConditions(map[string]string{"sku": "o.sku"})

	assert.True(t, q.HasConditions())
	assert.Equal(t, goqu.Ex{"o.sku": "RING-07", "archived": false}, conditions)
}
