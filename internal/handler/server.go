// Package handler contains the HTTP handlers for the query API.
package handler

import (
	"vitalstore/internal/services"

	"gorm.io/gorm"
)

// Server aggregates the dependencies shared by all HTTP handlers.
type Server struct {
	DB               *gorm.DB
	QueryService     *services.QueryService
	AdherenceService *services.AdherenceService
}

// NewServer creates a new handler server.
func NewServer(
	db *gorm.DB,
	queryService *services.QueryService,
	adherenceService *services.AdherenceService,
) *Server {
	return &Server{
		DB:               db,
		QueryService:     queryService,
		AdherenceService: adherenceService,
	}
}
