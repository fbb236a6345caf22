package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdb "github.com/nao1215/catalog/internal/catalog/db"
)

// categoryRequest はカテゴリ作成・更新リクエストのJSON構造。
type categoryRequest struct {
	// ID は更新時にパスのIDと一致している必要がある。作成時は無視する。
	ID int `json:"id"`
	// Name はカテゴリ名。
	Name string `json:"name" binding:"required,max=80"`
	// Description はカテゴリの説明。
	Description string `json:"description" binding:"max=300"`
}

// categoryWithProductsResponse は製品一覧を含むカテゴリのJSON構造。
// 製品が無い場合も products は空配列で返す。
type categoryWithProductsResponse struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Products    []catalogdb.Product `json:"products"`
}

// handleCreateCategory はカテゴリ作成を処理するハンドラを返す。
func (s *Server) handleCreateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		category := catalogdb.Category{Name: req.Name, Description: req.Description}
		if err := s.store.CreateCategory(c.Request.Context(), &category); err != nil {
			s.internalError(c, "カテゴリの作成に失敗しました", err)
			return
		}

		c.Header("Location", fmt.Sprintf("/categorias/%d", category.ID))
		c.JSON(http.StatusCreated, category)
	}
}

// handleListCategories はカテゴリ一覧取得を処理するハンドラを返す。
func (s *Server) handleListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.store.ListCategories(c.Request.Context())
		if err != nil {
			s.internalError(c, "カテゴリ一覧の取得に失敗しました", err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// handleGetCategory はカテゴリ詳細取得を処理するハンドラを返す。
func (s *Server) handleGetCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		category, err := s.store.GetCategory(c.Request.Context(), id)
		if errors.Is(err, catalogdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "カテゴリが見つかりません"})
			return
		}
		if err != nil {
			s.internalError(c, "カテゴリの取得に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, category)
	}
}

// handleUpdateCategory はカテゴリ更新を処理するハンドラを返す。
// ボディのIDがパスのIDと異なる場合はストアに触れずに400を返す。
func (s *Server) handleUpdateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if req.ID != id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスのIDとボディのIDが一致しません"})
			return
		}

		ctx := c.Request.Context()
		if _, err := s.store.GetCategory(ctx, id); err != nil {
			if errors.Is(err, catalogdb.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "カテゴリが見つかりません"})
				return
			}
			s.internalError(c, "カテゴリの取得に失敗しました", err)
			return
		}

		category := catalogdb.Category{ID: id, Name: req.Name, Description: req.Description}
		if err := s.store.UpdateCategory(ctx, &category); err != nil {
			// 取得と更新の間に削除された場合
			if errors.Is(err, catalogdb.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "カテゴリが見つかりません"})
				return
			}
			s.internalError(c, "カテゴリの更新に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, category)
	}
}

// handleDeleteCategory はカテゴリ削除を処理するハンドラを返す。
// 所属する製品も削除される。
func (s *Server) handleDeleteCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		err := s.store.DeleteCategory(c.Request.Context(), id)
		if errors.Is(err, catalogdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "カテゴリが見つかりません"})
			return
		}
		if err != nil {
			s.internalError(c, "カテゴリの削除に失敗しました", err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// handleListCategoriesWithProducts は製品を含むカテゴリ一覧取得を処理するハンドラを返す。
func (s *Server) handleListCategoriesWithProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.store.ListCategoriesWithProducts(c.Request.Context())
		if err != nil {
			s.internalError(c, "カテゴリと製品の取得に失敗しました", err)
			return
		}

		responses := make([]categoryWithProductsResponse, 0, len(categories))
		for _, category := range categories {
			products := category.Products
			if products == nil {
				products = []catalogdb.Product{}
			}
			responses = append(responses, categoryWithProductsResponse{
				ID:          category.ID,
				Name:        category.Name,
				Description: category.Description,
				Products:    products,
			})
		}

		c.JSON(http.StatusOK, responses)
	}
}
