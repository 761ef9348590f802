package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, PerPage: 10}, NewPage(0, 0))
	assert.Equal(t, Page{Page: 3, PerPage: 25}, NewPage(3, 25))
	assert.Equal(t, Page{Page: 1, PerPage: 100}, NewPage(-4, 1000))
	assert.Equal(t, 50, NewPage(3, 25).Offset())
}

func TestNewPage_HugePageKeepsOffsetPositive(t *testing.T) {
	for _, perPage := range []int{1, 10, 100} {
		p := NewPage(math.MaxInt, perPage)
		assert.Positive(t, p.Offset())
		assert.Positive(t, p.Offset()+p.PerPage)
	}
	p := NewPage(1_000_000_000_000_000_000, 10)
	assert.Positive(t, p.Offset())
}

func TestPaginateNeverNull(t *testing.T) {
	p := Paginate[Product](nil, 0, NewPage(1, 10))
	assert.NotNil(t, p.Data)
	assert.Empty(t, p.Data)
}
