package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"smartval/internal/model"
	"smartval/internal/repository"

	"github.com/gin-gonic/gin"
)

// FavoriteStore is the persistence surface the favorites handler needs.
type FavoriteStore interface {
	CreateFavorite(ctx context.Context, fav *model.FavoriteSnapshot) error
	ListFavorites(ctx context.Context, userID int64) ([]model.FavoriteSnapshot, error)
	DeleteFavorite(ctx context.Context, userID, id int64) error
}

// FavoriteHandler handles favorite-snapshot HTTP requests
type FavoriteHandler struct {
	store FavoriteStore
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(store FavoriteStore) *FavoriteHandler {
	return &FavoriteHandler{store: store}
}

type createFavoriteRequest struct {
	UserID     int64                    `json:"user_id" binding:"required"`
	Attributes model.PropertyAttributes `json:"attributes" binding:"required"`
	Result     model.ValuationResult    `json:"result" binding:"required"`
}

// Create handles POST /api/v1/favorites
func (h *FavoriteHandler) Create(c *gin.Context) {
	var req createFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	fav := &model.FavoriteSnapshot{
		UserID:     req.UserID,
		Attributes: req.Attributes,
		Result:     req.Result,
	}
	if err := h.store.CreateFavorite(c.Request.Context(), fav); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save favorite: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, fav)
}

// List handles GET /api/v1/favorites?user_id=
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing user_id"})
		return
	}

	favorites, err := h.store.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list favorites: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "count": len(favorites)})
}

// Delete handles DELETE /api/v1/favorites/:id?user_id=
func (h *FavoriteHandler) Delete(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing user_id"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid favorite id"})
		return
	}

	if err := h.store.DeleteFavorite(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Favorite not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete favorite: " + err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
