package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMonthBounds(t *testing.T) {
	from, to := monthBounds(time.Date(2026, time.December, 17, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2026-12-01", from.String())
	assert.Equal(t, "2027-01-01", to.String())

	from, to = monthBounds(time.Date(2024, time.February, 29, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", from.String())
	assert.Equal(t, "2024-03-01", to.String())
}

func TestPathID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	c.SetParamValues("8f14e45f-ceea-4e7a-9f1b-0d6c2f8f3a11")
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, "8f14e45f-ceea-4e7a-9f1b-0d6c2f8f3a11", id)

	c.SetParamValues("17")
	_, ok = pathID(c, "id")
	assert.False(t, ok)
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "pending", orDefault("", "pending"))
	assert.Equal(t, "paid", orDefault("paid", "pending"))
	assert.Nil(t, strPtr(""))
	assert.Equal(t, "x", *strPtr("x"))
	assert.Equal(t, "", deref(nil))
}

func TestSetBcryptCostClamps(t *testing.T) {
	defer SetBcryptCost(bcryptCost)
	SetBcryptCost(1)
	assert.Equal(t, 10, bcryptCost)
	SetBcryptCost(4)
	assert.Equal(t, 4, bcryptCost)
}
