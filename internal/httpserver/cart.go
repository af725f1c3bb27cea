package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/domain"
)

type cartService interface {
	GetCart(ctx context.Context, sess auth.Session) ([]domain.CartItem, error)
	AddItemToCart(ctx context.Context, sess auth.Session, item domain.CartItem) error
	RemoveItemFromCart(ctx context.Context, sess auth.Session, id string) error
	SyncCartOnLogin(ctx context.Context, sess auth.Session) error
	Logout(ctx context.Context, sess auth.Session) error
}

type catalogService interface {
	CartItemFor(ctx context.Context, itemType domain.ItemType, itemID, date string) (domain.CartItem, error)
}

type guestKeyService interface {
	cartKeyValidator
	Issue(ctx context.Context) (string, error)
}

type addItemRequest struct {
	ItemType string `json:"itemType" binding:"required"`
	ItemID   string `json:"itemId" binding:"required"`
	Date     string `json:"date"`
}

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
}

func issueGuestHandler(keys guestKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := keys.Issue(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header(headerCartKey, key)
		writeOK(c, http.StatusCreated, gin.H{"cartKey": key})
	}
}

func getCartHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := carts.GetCart(c.Request.Context(), sessionFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []domain.CartItem{}
		}
		writeOK(c, http.StatusOK, cartResponse{Items: items})
	}
}

func addCartItemHandler(carts cartService, catalog catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if !sess.IsAuthenticated() && sess.CartKey() == "" {
			writeError(c, &domain.ValidationError{Field: headerCartKey, Message: "guest cart key required"})
			return
		}
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, &domain.ValidationError{Field: "body", Message: "itemType and itemId are required"})
			return
		}
		itemType, err := domain.ParseItemType(req.ItemType)
		if err != nil {
			writeError(c, err)
			return
		}
		item, err := catalog.CartItemFor(c.Request.Context(), itemType, req.ItemID, req.Date)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := carts.AddItemToCart(c.Request.Context(), sess, item); err != nil {
			writeError(c, err)
			return
		}
		writeOK(c, http.StatusCreated, item)
	}
}

func removeCartItemHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.RemoveItemFromCart(c.Request.Context(), sessionFrom(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		writeOK(c, http.StatusOK, gin.H{"id": c.Param("id")})
	}
}

// syncHandler runs right after the auth collaborator verified the OTP.
func syncHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if !sess.IsAuthenticated() {
			writeError(c, domain.ErrNotAuthenticated)
			return
		}
		if err := carts.SyncCartOnLogin(c.Request.Context(), sess); err != nil {
			writeError(c, err)
			return
		}
		items, err := carts.GetCart(c.Request.Context(), sess)
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []domain.CartItem{}
		}
		writeOK(c, http.StatusOK, cartResponse{Items: items})
	}
}

func logoutHandler(carts cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Logout(c.Request.Context(), sessionFrom(c)); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
