package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductPopularity(t *testing.T) {
	p := Product{SalesCount: 3, FavoritesCount: 2, LikesCount: 4, ViewsCount: 7}
	assert.Equal(t, 3*10+2*5+4*2+7, p.Popularity())
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{UnitPrice: decimal.RequireFromString("4.00"), Quantity: 3}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("12")))
}

func TestBeforeCreateAssignsMissingIDs(t *testing.T) {
	o := &Order{}
	assert.NoError(t, o.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, o.ID)

	fixed := uuid.New()
	p := &Product{ID: fixed}
	assert.NoError(t, p.BeforeCreate(nil))
	assert.Equal(t, fixed, p.ID)
}
