package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations and filter parsing

	"username_wallet/internal/domain" // Importing domain models
	"username_wallet/internal/ledger" // Event log read interface

	"username_wallet/internal/utils" // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// pageParams reads page/page_size query params with the usual bounds.
func pageParams(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// ListAccountsHandler returns all registered username accounts, paginated
func ListAccountsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		// Create a cache key based on pagination parameters
		cacheKey := "admin:accounts:page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		// Try to get cached response
		var cached struct {
			Accounts   []domain.Wallet `json:"accounts"`    // List of accounts
			Page       int             `json:"page"`        // Current page
			PageSize   int             `json:"page_size"`   // Page size
			Total      int64           `json:"total"`       // Total number of accounts
			TotalPages int             `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"accounts":    cached.Accounts,   // List of accounts
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of accounts
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		page, pageSize := pageParams(c) // Pagination parameters
		offset := (page - 1) * pageSize // Calculate offset for pagination
		var total int64                 // Total account count
		// Fetch total account count
		if err := db.Model(&domain.Wallet{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count accounts"}) // Return on error
			return
		}
		var accounts []domain.Wallet // Slice to hold accounts
		// Fetch paginated accounts in registration order
		if err := db.Order("created_at asc").Offset(offset).Limit(pageSize).Find(&accounts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"}) // Return on error
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		// Prepare final response data
		respData := gin.H{
			"accounts":    accounts,   // List of accounts
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of accounts
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, 60*time.Second)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

// EventResponse is one event log entry as returned by the admin stream.
type EventResponse struct {
	ID        string    `json:"id"`        // Event UUID
	Kind      string    `json:"kind"`      // UsernameRegistered, SolSent, SolWithdrawn
	Username  string    `json:"username"`  // Handle the transition targeted
	Actor     string    `json:"actor"`     // Base58 public key of the acting party
	Amount    uint64    `json:"amount"`    // Transition amount
	Timestamp time.Time `json:"timestamp"` // Transition time
}

// ListEventsHandler returns the ordered event stream, with optional
// filtering by username, kind, or timestamp range
func ListEventsHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		// Append each query parameter to the key parts
		for _, k := range []string{"username", "kind", "from", "to", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, "")) // Append key-value pair
		}
		// Join key parts to form the final cache key
		cacheKey := "admin:events:" + strings.Join(keyParts, ":")
		var cached struct {
			Events     []EventResponse `json:"events"`      // List of events
			Page       int             `json:"page"`        // Current page
			PageSize   int             `json:"page_size"`   // Page size
			Total      int64           `json:"total"`       // Total number of events
			TotalPages int             `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"events":      cached.Events,     // List of events
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of events
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		// Build the event filter from query params
		filter := ledger.EventFilter{
			Username: c.Query("username"), // Filter by handle
			Kind:     c.Query("kind"),     // Filter by event kind
		}
		if from := c.Query("from"); from != "" {
			if t, err := time.Parse(time.RFC3339, from); err == nil {
				filter.From = t // Filter by start time
			}
		}
		if to := c.Query("to"); to != "" {
			if t, err := time.Parse(time.RFC3339, to); err == nil {
				filter.To = t // Filter by end time
			}
		}
		page, pageSize := pageParams(c) // Pagination parameters
		offset := (page - 1) * pageSize // Calculate offset for pagination
		// Read the ordered event log
		events, total, err := l.Events(c.Request.Context(), filter, offset, pageSize)
		if err != nil {
			// If reading fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
			return
		}
		resp := make([]EventResponse, len(events))
		// Map events to response format
		for i, ev := range events {
			resp[i] = EventResponse{
				ID:        ev.ID,             // Event UUID
				Kind:      ev.Kind,           // Event kind
				Username:  ev.Username,       // Target handle
				Actor:     ev.Actor.String(), // Acting party
				Amount:    ev.Amount,         // Transition amount
				Timestamp: ev.Timestamp,      // Transition time
			}
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		respData := gin.H{
			"events":      resp,       // List of events
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of events
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, 60*time.Second)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}
