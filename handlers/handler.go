package handlers

import (
	"github.com/uptrace/bun"

	"raceday/ranking"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db     *bun.DB
	rank   *ranking.Engine
	JWTKey []byte
}

// New creates a Handler with the given database connection, ranking engine
// and JWT signing key.
func New(db *bun.DB, rank *ranking.Engine, jwtKey []byte) *Handler {
	return &Handler{db: db, rank: rank, JWTKey: jwtKey}
}
