package api

import (
	"context"  // Context for Redis operations
	"errors"   // Ledger error matching
	"net/http" // HTTP status codes
	"time"     // Operation timestamps and cache TTLs

	"username_wallet/internal/ledger"     // Ledger state machine
	"username_wallet/internal/middleware" // Caller identity extraction
	"username_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// WalletResponse is the account summary returned by the wallet routes.
type WalletResponse struct {
	Address   string    `json:"address"`    // Base58 derived address
	Owner     string    `json:"owner"`      // Base58 owner public key
	Username  string    `json:"username"`   // Registered handle
	Balance   uint64    `json:"balance"`    // Logical balance in minor units
	CreatedAt time.Time `json:"created_at"` // Registration time
	Bump      uint8     `json:"bump"`       // Derivation disambiguator
}

// walletResponse maps a ledger account to its API shape.
func walletResponse(a *ledger.Account) WalletResponse {
	return WalletResponse{
		Address:   a.Address().String(),
		Owner:     a.Owner.String(),
		Username:  a.Username,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		Bump:      a.Bump,
	}
}

// respondLedgerError translates a ledger error into an HTTP status plus a
// stable machine code clients can branch on.
func respondLedgerError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUsernameTooShort),
		errors.Is(err, ledger.ErrUsernameTooLong),
		errors.Is(err, ledger.ErrInvalidFormat),
		errors.Is(err, ledger.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrBalanceOverflow),
		errors.Is(err, ledger.ErrBalanceUnderflow):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrAccountBusy):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": ledger.Code(err)})
}

// invalidateWalletCache drops the cached lookup for a username and the
// cached list of its owner after a mutation.
func invalidateWalletCache(rdb *redis.Client, username, owner string) {
	if rdb == nil {
		return
	}
	ctx := context.Background()                                    // Context for Redis operations
	_ = utils.DeleteCache(ctx, rdb, utils.WalletCacheKey(username)) // Invalidate lookup cache
	if owner != "" {
		_ = utils.DeleteCache(ctx, rdb, utils.OwnerCacheKey(owner)) // Invalidate owner list cache
	}
}

// RegisterUsernameRequest carries the handle to register.
type RegisterUsernameRequest struct {
	Username string `json:"username" binding:"required"` // Handle to register
}

// RegisterUsernameHandler registers a username for the authenticated caller
func RegisterUsernameHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.CallerIdentity(c) // Caller identity from JWT
		if !ok {
			return
		}
		var req RegisterUsernameRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply the registration transition
		acct, err := l.Register(c.Request.Context(), caller, req.Username, time.Now().UTC())
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		invalidateWalletCache(rdb, acct.Username, acct.Owner.String())
		// Return the created account summary
		c.JSON(http.StatusCreated, gin.H{"message": "Username registered", "wallet": walletResponse(acct)})
	}
}

// AmountRequest carries the amount for send and withdraw.
type AmountRequest struct {
	Amount uint64 `json:"amount"` // Amount in minor units; the ledger validates it
}

// SendSolHandler deposits value to a registered username. Any authenticated
// caller may send to any handle; no ownership check applies.
func SendSolHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.CallerIdentity(c) // Sender identity from JWT
		if !ok {
			return
		}
		username := c.Param("username") // Target handle from the path
		var req AmountRequest           // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply the deposit transition
		balance, err := l.Deposit(c.Request.Context(), caller, username, req.Amount, time.Now().UTC())
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		// Look the account up so the owner's cached list is invalidated too
		owner := ""
		if acct, err := l.Lookup(c.Request.Context(), username); err == nil {
			owner = acct.Owner.String()
		}
		invalidateWalletCache(rdb, username, owner)
		// Return the updated balance
		c.JSON(http.StatusOK, gin.H{"message": "Sol sent", "username": username, "balance": balance})
	}
}

// WithdrawSolHandler withdraws value from a username the caller owns
func WithdrawSolHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.CallerIdentity(c) // Caller identity from JWT
		if !ok {
			return
		}
		username := c.Param("username") // Target handle from the path
		var req AmountRequest           // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply the withdraw transition; only the owner gets past it
		balance, err := l.Withdraw(c.Request.Context(), caller, username, req.Amount, time.Now().UTC())
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		invalidateWalletCache(rdb, username, caller.String())
		// Return the updated balance and the released amount
		c.JSON(http.StatusOK, gin.H{
			"message":  "Sol withdrawn",
			"username": username,
			"balance":  balance,
			"released": req.Amount,
		})
	}
}

// GetWalletHandler returns the account registered for a username
func GetWalletHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")                // Handle from the path
		cacheKey := utils.WalletCacheKey(username)     // Cache key for this lookup
		ctx := context.Background()                    // Context for Redis operations
		if rdb != nil {
			var cached WalletResponse // Cached account summary
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{"wallet": cached, "cached": true})
				return
			}
		}
		// If not in cache, read through the ledger
		acct, err := l.Lookup(c.Request.Context(), username)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		resp := walletResponse(acct)
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second) // Cache for 60 seconds
		}
		c.JSON(http.StatusOK, gin.H{"wallet": resp, "cached": false}) // Return wallet info
	}
}

// ListWalletsHandler returns every username registered by the caller
func ListWalletsHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.CallerIdentity(c) // Caller identity from JWT
		if !ok {
			return
		}
		cacheKey := utils.OwnerCacheKey(caller.String()) // Cache key for this owner
		ctx := context.Background()                      // Context for Redis operations
		if rdb != nil {
			var cached []WalletResponse // Cached account summaries
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{"wallets": cached, "cached": true})
				return
			}
		}
		// Enumerate the caller's accounts
		accts, err := l.AccountsByOwner(c.Request.Context(), caller)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		resp := make([]WalletResponse, len(accts))
		for i, a := range accts {
			resp[i] = walletResponse(a)
		}
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second) // Cache for 60 seconds
		}
		c.JSON(http.StatusOK, gin.H{"wallets": resp, "cached": false}) // Return the list
	}
}
