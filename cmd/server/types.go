package main

import (
	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/songle"
)

// Server holds HTTP server dependencies
type Server struct {
	service songle.Service
	config  *ServerConfig
	log     *logger.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port       int
	PrivateKey string
	Metrics    bool
}

// NewServer creates a new HTTP server
func NewServer(service songle.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("http"),
	}
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse reports liveness and the loaded catalog size
type HealthResponse struct {
	Status string `json:"status"`
	Today  int64  `json:"today"`
	Songs  int    `json:"songs"`
}

// DashboardTotalResponse is the body of /dashboard/total
type DashboardTotalResponse struct {
	TotalHomeViews    int64 `json:"total_home_views"`
	TotalDaysFinished int64 `json:"total_days_finished"`
}

// DashboardWithinResponse is the body of /dashboard/within
type DashboardWithinResponse struct {
	HomeViews   int64 `json:"home_views"`
	DayFinished int64 `json:"day_finished"`
}

// DashboardClueResponse is the body of /dashboard/clue
type DashboardClueResponse struct {
	Song  string `json:"song"`
	Clue  string `json:"clue"`
	Count int64  `json:"count"`
}
