package transport

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ecommerce/pkg/domain/model"
)

func TestPageFromQueryClampsOverflow(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/products?page=9223372036854775807&limit=100", nil)

	page := pageFromQuery(r)

	assert.Equal(t, model.MaxPageNumber, page.Number)
	assert.GreaterOrEqual(t, page.Offset(), 0)
}
