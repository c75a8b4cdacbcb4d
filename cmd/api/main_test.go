package main

import (
	"context"
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
	registerValidators()
}

// recordingCache satisfies stockCache and records invalidations.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(ctx context.Context, ids ...string) {
	c.invalidated = append(c.invalidated, ids...)
}
