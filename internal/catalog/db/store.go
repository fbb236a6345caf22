package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store はカテゴリと製品の永続化ゲートウェイ。
type Store struct {
	db *gorm.DB
}

// NewStore はStoreを生成する。
func NewStore(gormDB *gorm.DB) *Store {
	return &Store{db: gormDB}
}

// CreateCategory はカテゴリを登録し、採番されたIDをcに設定する。
// 呼び出し側が指定したIDは無視する。
func (s *Store) CreateCategory(ctx context.Context, c *Category) error {
	c.ID = 0
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("カテゴリの登録に失敗: %w", translateError(err))
	}
	return nil
}

// GetCategory はIDでカテゴリを取得する。製品は読み込まない。
func (s *Store) GetCategory(ctx context.Context, id int) (*Category, error) {
	var c Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("カテゴリの取得に失敗: %w", err)
	}
	return &c, nil
}

// ListCategories はすべてのカテゴリをID順に返す。
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗: %w", err)
	}
	return categories, nil
}

// ListCategoriesWithProducts はすべてのカテゴリを所属製品と共に返す。
func (s *Store) ListCategoriesWithProducts(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	err := s.db.WithContext(ctx).
		Preload("Products", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Order("id").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("カテゴリと製品の取得に失敗: %w", err)
	}
	return categories, nil
}

// UpdateCategory はc.IDのカテゴリの全フィールドを置き換える。
func (s *Store) UpdateCategory(ctx context.Context, c *Category) error {
	result := s.db.WithContext(ctx).
		Model(&Category{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":        c.Name,
			"description": c.Description,
		})
	if result.Error != nil {
		return fmt.Errorf("カテゴリの更新に失敗: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory はカテゴリを削除する。所属する製品も連鎖して削除される。
func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("カテゴリの削除に失敗: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProduct は製品を登録し、採番されたIDをpに設定する。
// 所属カテゴリが存在しない場合はErrCategoryReferenceを返す。
func (s *Store) CreateProduct(ctx context.Context, p *Product) error {
	p.ID = 0
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		err = translateError(err)
		if errors.Is(err, ErrCategoryReference) {
			return err
		}
		return fmt.Errorf("製品の登録に失敗: %w", err)
	}
	return nil
}

// GetProduct はIDで製品を取得する。
func (s *Store) GetProduct(ctx context.Context, id int) (*Product, error) {
	var p Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("製品の取得に失敗: %w", err)
	}
	return &p, nil
}

// ListProducts はすべての製品をID順に返す。
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	products := []Product{}
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("製品一覧の取得に失敗: %w", err)
	}
	return products, nil
}

// ListProductsPaged はID順に並べた製品のうち、pageNumber番目（1始まり）のページを返す。
// 範囲外のページは空のスライスになる。
func (s *Store) ListProductsPaged(ctx context.Context, pageNumber, pageSize int) ([]Product, error) {
	if pageNumber < 1 || pageSize < 1 {
		return nil, fmt.Errorf("ページ指定が不正です: page=%d size=%d", pageNumber, pageSize)
	}

	products := []Product{}
	err := s.db.WithContext(ctx).
		Order("id").
		Offset((pageNumber - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("製品ページの取得に失敗: %w", err)
	}
	return products, nil
}

// FindProductsByName は名前に text を含む製品を大文字小文字を区別せずに検索する。
// 大文字小文字の同一視はASCII以外の文字（Óとóなど）にも適用する。
// text中の % と _ はワイルドカードではなく文字として扱う。
func (s *Store) FindProductsByName(ctx context.Context, text string) ([]Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"

	condition := unicodeLowerFunc + `(name) LIKE ? ESCAPE '\'`
	if s.db.Dialector.Name() == DriverPostgres {
		condition = `name ILIKE ? ESCAPE '\'`
	}

	products := []Product{}
	err := s.db.WithContext(ctx).
		Where(condition, pattern).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("製品の検索に失敗: %w", err)
	}
	return products, nil
}

// UpdateProduct はp.IDの製品の全フィールドを置き換える。
func (s *Store) UpdateProduct(ctx context.Context, p *Product) error {
	result := s.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":          p.Name,
			"description":   p.Description,
			"price":         p.Price,
			"purchase_date": p.PurchaseDate,
			"stock":         p.Stock,
			"image":         p.Image,
			"category_id":   p.CategoryID,
		})
	if result.Error != nil {
		err := translateError(result.Error)
		if errors.Is(err, ErrCategoryReference) {
			return err
		}
		return fmt.Errorf("製品の更新に失敗: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProductName は製品名のみを変更し、変更後の製品を返す。
func (s *Store) UpdateProductName(ctx context.Context, id int, name string) (*Product, error) {
	result := s.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", id).
		Update("name", name)
	if result.Error != nil {
		return nil, fmt.Errorf("製品名の更新に失敗: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct は製品を削除する。
func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("製品の削除に失敗: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
