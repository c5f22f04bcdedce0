package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle aggregates the HTTP handlers assembled in main so route
// registration takes a single value.
type HandlerBundle struct {
	// Metered session endpoints.
	RequestSession gin.HandlerFunc
	StartSession   gin.HandlerFunc
	EndSession     gin.HandlerFunc
	CancelSession  gin.HandlerFunc
	GetSession     gin.HandlerFunc
	StreamBilling  gin.HandlerFunc
	GetPackages    gin.HandlerFunc

	// Scheduled reading endpoints.
	GetSlots          gin.HandlerFunc
	BookReading       gin.HandlerFunc
	RescheduleReading gin.HandlerFunc
	CancelReading     gin.HandlerFunc
	ListReadings      gin.HandlerFunc
	SetAvailability   gin.HandlerFunc

	// Instant reading request endpoints.
	SendRequest    gin.HandlerFunc
	AcceptRequest  gin.HandlerFunc
	DeclineRequest gin.HandlerFunc
	GetRequest     gin.HandlerFunc
}
