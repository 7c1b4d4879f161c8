package api

import (
	"crypto/ed25519" // Signer keypair generation
	"crypto/rand"    // Entropy for keypair generation
	"net/http"       // HTTP status codes
	"regexp"         // Regular expressions
	"strings"        // String manipulation

	"username_wallet/internal/domain" // Importing domain models
	"username_wallet/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/mr-tron/base58"  // Base58 key encoding
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Request and Response structs
type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`    // Login name must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`    // Login name must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// isValidLogin checks if the login name contains only alphabetic characters
func isValidLogin(login string) bool {
	matched, _ := regexp.MatchString(`^[A-Za-z]+$`, login) // Regex to match alphabetic characters only
	return matched                                         // Return whether it matched
}

// isValidPassword checks if the password length is between 8 and 15 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 15 // Return true if length is valid
}

// RegisterHandler creates a signer account: login credentials plus a fresh
// ed25519 keypair. The public key becomes the caller identity for every
// ledger operation; the secret key is returned once and never stored.
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate login name and password
		if !isValidLogin(req.Login) {
			// If login is invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Login must be alphabetic only"})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			// If password is invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-15 characters"})
			return
		}
		// Hash the password
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		// Generate the signer keypair
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate keypair"})
			return
		}
		// Create signer with lowercase login to ensure uniqueness
		user := domain.User{
			Login:     strings.ToLower(req.Login), // Lowercased login
			Password:  string(hash),               // Bcrypt hash
			PublicKey: base58.Encode(pub),         // Caller identity
		}
		// Attempt to create the signer in the database
		if err := db.Create(&user).Error; err != nil {
			// If creation fails (e.g., duplicate login), return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Login already exists"})
			return
		}
		// Return the public key and the one-time secret key
		c.JSON(http.StatusCreated, gin.H{
			"message":    "Signer registered successfully",
			"public_key": user.PublicKey,           // Identity used by the ledger
			"secret_key": base58.Encode(priv.Seed()), // Returned once, not retained
		})
	}
}

// LoginHandler authenticates a signer and returns a JWT carrying its public key
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch signer from database
		if err := db.Where("login = ?", strings.ToLower(req.Login)).First(&user).Error; err != nil {
			// If signer not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token with the public key claim
		token, err := utils.GenerateJWT(user.ID, user.PublicKey, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
