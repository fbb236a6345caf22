package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	catalogdb "github.com/nao1215/catalog/internal/catalog/db"
	"github.com/shopspring/decimal"
)

const (
	// MaxPageSize はページ単位の一覧で1ページに返す製品の上限。
	MaxPageSize = 100
	// MaxNameLength は製品名の最大文字数。
	MaxNameLength = 80
	// PriceScale は価格の小数点以下の桁数。
	PriceScale = 2
)

// productRequest は製品作成・更新リクエストのJSON構造。
type productRequest struct {
	// ID は更新時にパスのIDと一致している必要がある。作成時は無視する。
	ID int `json:"id"`
	// Name は製品名。
	Name string `json:"name" binding:"required,max=80"`
	// Description は製品の説明。
	Description string `json:"description" binding:"max=300"`
	// Price は価格。文字列と数値のどちらでも受け付ける。
	Price decimal.Decimal `json:"price"`
	// PurchaseDate はRFC 3339形式の購入日時。
	PurchaseDate time.Time `json:"purchase_date" binding:"required"`
	// Stock は在庫数。
	Stock int `json:"stock" binding:"min=0"`
	// Image は画像のURLまたはパス。
	Image string `json:"image" binding:"max=300"`
	// CategoryID は所属カテゴリのID。
	CategoryID int `json:"category_id" binding:"required,min=1"`
}

// toProduct はリクエストを製品に変換する。
func (r productRequest) toProduct(id int) catalogdb.Product {
	return catalogdb.Product{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		PurchaseDate: r.PurchaseDate.UTC(),
		Stock:        r.Stock,
		Image:        r.Image,
		CategoryID:   r.CategoryID,
	}
}

// bindProduct はボディを製品リクエストとして読み込み、不正な場合は400を返す。
// 価格はPriceScale桁に丸める。
func bindProduct(c *gin.Context) (productRequest, bool) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
		return req, false
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "価格は0以上である必要があります"})
		return req, false
	}
	req.Price = req.Price.Round(PriceScale)
	return req, true
}

// handleCreateProduct は製品作成を処理するハンドラを返す。
// 存在しないカテゴリを参照している場合は400を返す。
func (s *Server) handleCreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindProduct(c)
		if !ok {
			return
		}

		product := req.toProduct(0)
		err := s.store.CreateProduct(c.Request.Context(), &product)
		if errors.Is(err, catalogdb.ErrCategoryReference) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "指定されたカテゴリが存在しません"})
			return
		}
		if err != nil {
			s.internalError(c, "製品の作成に失敗しました", err)
			return
		}

		c.Header("Location", fmt.Sprintf("/produtos/%d", product.ID))
		c.JSON(http.StatusCreated, product)
	}
}

// handleListProducts は製品一覧取得を処理するハンドラを返す。
func (s *Server) handleListProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := s.store.ListProducts(c.Request.Context())
		if err != nil {
			s.internalError(c, "製品一覧の取得に失敗しました", err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// handleGetProduct は製品詳細取得を処理するハンドラを返す。
func (s *Server) handleGetProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		product, err := s.store.GetProduct(c.Request.Context(), id)
		if errors.Is(err, catalogdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("製品 %d が見つかりません", id)})
			return
		}
		if err != nil {
			s.internalError(c, "製品の取得に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// handleUpdateProduct は製品更新を処理するハンドラを返す。
// すべてのフィールドをボディの値で置き換える。
func (s *Server) handleUpdateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		req, ok := bindProduct(c)
		if !ok {
			return
		}
		if req.ID != id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスのIDとボディのIDが一致しません"})
			return
		}

		ctx := c.Request.Context()
		if _, err := s.store.GetProduct(ctx, id); err != nil {
			if errors.Is(err, catalogdb.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("製品 %d が見つかりません", id)})
				return
			}
			s.internalError(c, "製品の取得に失敗しました", err)
			return
		}

		product := req.toProduct(id)
		err := s.store.UpdateProduct(ctx, &product)
		switch {
		case errors.Is(err, catalogdb.ErrCategoryReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "指定されたカテゴリが存在しません"})
			return
		case errors.Is(err, catalogdb.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("製品 %d が見つかりません", id)})
			return
		case err != nil:
			s.internalError(c, "製品の更新に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// handleUpdateProductName は製品名のみの変更を処理するハンドラを返す。
// クエリパラメータ produtoId と produtoNome を使う。
func (s *Server) handleUpdateProductName() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Query("produtoId"))
		if err != nil || id < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "produtoIdが不正です"})
			return
		}
		name := c.Query("produtoNome")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "produtoNomeが必要です"})
			return
		}
		if utf8.RuneCountInString(name) > MaxNameLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("produtoNomeは%d文字以内で指定してください", MaxNameLength)})
			return
		}

		product, err := s.store.UpdateProductName(c.Request.Context(), id, name)
		if errors.Is(err, catalogdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("製品 %d が見つかりません", id)})
			return
		}
		if err != nil {
			s.internalError(c, "製品名の更新に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// handleDeleteProduct は製品削除を処理するハンドラを返す。
func (s *Server) handleDeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		err := s.store.DeleteProduct(c.Request.Context(), id)
		if errors.Is(err, catalogdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("製品 %d が見つかりません", id)})
			return
		}
		if err != nil {
			s.internalError(c, "製品の削除に失敗しました", err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// handleSearchProducts は製品名の部分一致検索を処理するハンドラを返す。
// 一致する製品が無い場合は404と空配列を返す。
func (s *Server) handleSearchProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := s.store.FindProductsByName(c.Request.Context(), c.Param("criterio"))
		if err != nil {
			s.internalError(c, "製品の検索に失敗しました", err)
			return
		}

		if len(products) == 0 {
			c.JSON(http.StatusNotFound, products)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// handleListProductsPaged はページ単位の製品一覧取得を処理するハンドラを返す。
// numeroPagina と tamanhoPagina は1以上が必須で、tamanhoPagina はMaxPageSizeで打ち切る。
func (s *Server) handleListProductsPaged() gin.HandlerFunc {
	return func(c *gin.Context) {
		pageNumber, err := strconv.Atoi(c.Query("numeroPagina"))
		if err != nil || pageNumber < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "numeroPaginaは1以上の整数で指定してください"})
			return
		}
		pageSize, err := strconv.Atoi(c.Query("tamanhoPagina"))
		if err != nil || pageSize < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tamanhoPaginaは1以上の整数で指定してください"})
			return
		}
		pageSize = min(pageSize, MaxPageSize)

		products, err := s.store.ListProductsPaged(c.Request.Context(), pageNumber, pageSize)
		if err != nil {
			s.internalError(c, "製品ページの取得に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, products)
	}
}
