package db

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// setupTestStore はマイグレーション済みのインメモリSQLiteでStoreを生成する。
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	gormDB, err := Open(DriverSQLite, InMemoryDSN, false)
	if err != nil {
		t.Fatalf("Open()でエラーが発生: %v", err)
	}
	t.Cleanup(func() { Close(gormDB) })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if err := Migrate(gormDB, DriverSQLite, logger); err != nil {
		t.Fatalf("Migrate()でエラーが発生: %v", err)
	}

	return NewStore(gormDB)
}

// createTestCategory はテスト用のカテゴリを登録する。
func createTestCategory(t *testing.T, s *Store, name string) *Category {
	t.Helper()

	c := &Category{Name: name, Description: name + "の説明"}
	if err := s.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory()でエラーが発生: %v", err)
	}
	return c
}

// newTestProduct はcategoryIDに属するテスト用の製品を返す。
func newTestProduct(name string, categoryID int) *Product {
	return &Product{
		Name:         name,
		Description:  name + "の説明",
		Price:        decimal.RequireFromString("1280.50"),
		PurchaseDate: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Stock:        5,
		Image:        "images/" + name + ".png",
		CategoryID:   categoryID,
	}
}

// createTestProduct はテスト用の製品を登録する。
func createTestProduct(t *testing.T, s *Store, name string, categoryID int) *Product {
	t.Helper()

	p := newTestProduct(name, categoryID)
	if err := s.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("CreateProduct()でエラーが発生: %v", err)
	}
	return p
}

func TestStore_Category(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("登録時に指定したIDは無視され採番されること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)

		c := &Category{ID: 999, Name: "書籍", Description: "本"}
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory()でエラーが発生: %v", err)
		}
		if c.ID != 1 {
			t.Errorf("ID = %d, want 1", c.ID)
		}

		got, err := s.GetCategory(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetCategory()でエラーが発生: %v", err)
		}
		if got.Name != "書籍" || got.Description != "本" {
			t.Errorf("カテゴリ = %+v, want name=書籍 description=本", got)
		}
	})

	t.Run("存在しないIDはErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)

		if _, err := s.GetCategory(ctx, 42); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetCategory() error = %v, want ErrNotFound", err)
		}
		if err := s.UpdateCategory(ctx, &Category{ID: 42, Name: "x"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateCategory() error = %v, want ErrNotFound", err)
		}
		if err := s.DeleteCategory(ctx, 42); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteCategory() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("更新で全フィールドが置き換わること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c := createTestCategory(t, s, "家電")

		if err := s.UpdateCategory(ctx, &Category{ID: c.ID, Name: "生活家電"}); err != nil {
			t.Fatalf("UpdateCategory()でエラーが発生: %v", err)
		}
		got, err := s.GetCategory(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetCategory()でエラーが発生: %v", err)
		}
		if got.Name != "生活家電" {
			t.Errorf("Name = %q, want %q", got.Name, "生活家電")
		}
		if got.Description != "" {
			t.Errorf("Description = %q, want empty", got.Description)
		}
	})

	t.Run("一覧はID順に返ること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		for _, name := range []string{"A", "B", "C"} {
			createTestCategory(t, s, name)
		}

		got, err := s.ListCategories(ctx)
		if err != nil {
			t.Fatalf("ListCategories()でエラーが発生: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("件数 = %d, want 3", len(got))
		}
		for i, c := range got {
			if c.ID != i+1 {
				t.Errorf("got[%d].ID = %d, want %d", i, c.ID, i+1)
			}
		}
	})

	t.Run("カテゴリを削除すると所属製品も削除されること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c := createTestCategory(t, s, "食品")
		other := createTestCategory(t, s, "雑貨")
		p := createTestProduct(t, s, "りんご", c.ID)
		kept := createTestProduct(t, s, "皿", other.ID)

		if err := s.DeleteCategory(ctx, c.ID); err != nil {
			t.Fatalf("DeleteCategory()でエラーが発生: %v", err)
		}
		if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProduct() error = %v, want ErrNotFound", err)
		}
		if _, err := s.GetProduct(ctx, kept.ID); err != nil {
			t.Errorf("他カテゴリの製品が削除された: %v", err)
		}
	})

	t.Run("製品付き一覧で各カテゴリに製品が紐づくこと", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c1 := createTestCategory(t, s, "文具")
		createTestCategory(t, s, "空")
		createTestProduct(t, s, "ペン", c1.ID)
		createTestProduct(t, s, "ノート", c1.ID)

		got, err := s.ListCategoriesWithProducts(ctx)
		if err != nil {
			t.Fatalf("ListCategoriesWithProducts()でエラーが発生: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("件数 = %d, want 2", len(got))
		}
		if len(got[0].Products) != 2 {
			t.Errorf("文具の製品数 = %d, want 2", len(got[0].Products))
		}
		if got[0].Products[0].Name != "ペン" {
			t.Errorf("先頭の製品 = %q, want %q", got[0].Products[0].Name, "ペン")
		}
		if len(got[1].Products) != 0 {
			t.Errorf("空カテゴリの製品数 = %d, want 0", len(got[1].Products))
		}
	})
}

func TestStore_Product(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("登録した製品の各フィールドが保存されること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c := createTestCategory(t, s, "本")

		p := newTestProduct("Go入門", c.ID)
		p.ID = 77
		if err := s.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct()でエラーが発生: %v", err)
		}
		if p.ID != 1 {
			t.Errorf("ID = %d, want 1", p.ID)
		}

		got, err := s.GetProduct(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetProduct()でエラーが発生: %v", err)
		}
		if !got.Price.Equal(decimal.RequireFromString("1280.5")) {
			t.Errorf("Price = %s, want 1280.5", got.Price)
		}
		if !got.PurchaseDate.Equal(p.PurchaseDate) {
			t.Errorf("PurchaseDate = %v, want %v", got.PurchaseDate, p.PurchaseDate)
		}
		if got.Image != "images/Go入門.png" {
			t.Errorf("Image = %q, want %q", got.Image, "images/Go入門.png")
		}
		if got.CategoryID != c.ID {
			t.Errorf("CategoryID = %d, want %d", got.CategoryID, c.ID)
		}
	})

	t.Run("存在しないカテゴリを参照するとErrCategoryReferenceになること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)

		err := s.CreateProduct(ctx, newTestProduct("孤児", 404))
		if !errors.Is(err, ErrCategoryReference) {
			t.Errorf("CreateProduct() error = %v, want ErrCategoryReference", err)
		}

		c := createTestCategory(t, s, "本")
		p := createTestProduct(t, s, "辞書", c.ID)
		p.CategoryID = 404
		if err := s.UpdateProduct(ctx, p); !errors.Is(err, ErrCategoryReference) {
			t.Errorf("UpdateProduct() error = %v, want ErrCategoryReference", err)
		}
	})

	t.Run("更新で全フィールドが置き換わること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c1 := createTestCategory(t, s, "旧")
		c2 := createTestCategory(t, s, "新")
		p := createTestProduct(t, s, "椅子", c1.ID)

		replacement := &Product{
			ID:           p.ID,
			Name:         "机",
			Price:        decimal.NewFromInt(9800),
			PurchaseDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			Stock:        0,
			CategoryID:   c2.ID,
		}
		if err := s.UpdateProduct(ctx, replacement); err != nil {
			t.Fatalf("UpdateProduct()でエラーが発生: %v", err)
		}

		got, err := s.GetProduct(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetProduct()でエラーが発生: %v", err)
		}
		if got.Name != "机" || got.Stock != 0 || got.Image != "" || got.CategoryID != c2.ID {
			t.Errorf("製品 = %+v, want 置き換え後の値", got)
		}
		if !got.Price.Equal(decimal.NewFromInt(9800)) {
			t.Errorf("Price = %s, want 9800", got.Price)
		}
	})

	t.Run("存在しない製品の更新と削除はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c := createTestCategory(t, s, "本")

		p := newTestProduct("幻", c.ID)
		p.ID = 10
		if err := s.UpdateProduct(ctx, p); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateProduct() error = %v, want ErrNotFound", err)
		}
		if _, err := s.UpdateProductName(ctx, 10, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateProductName() error = %v, want ErrNotFound", err)
		}
		if err := s.DeleteProduct(ctx, 10); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteProduct() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("削除した製品は取得できないこと", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c := createTestCategory(t, s, "本")
		p := createTestProduct(t, s, "雑誌", c.ID)

		if err := s.DeleteProduct(ctx, p.ID); err != nil {
			t.Fatalf("DeleteProduct()でエラーが発生: %v", err)
		}
		if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProduct() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("名前だけを変更できること", func(t *testing.T) {
		t.Parallel()
		s := setupTestStore(t)
		c := createTestCategory(t, s, "本")
		p := createTestProduct(t, s, "旧名", c.ID)

		got, err := s.UpdateProductName(ctx, p.ID, "新名")
		if err != nil {
			t.Fatalf("UpdateProductName()でエラーが発生: %v", err)
		}
		if got.Name != "新名" {
			t.Errorf("Name = %q, want %q", got.Name, "新名")
		}
		if got.Stock != p.Stock || got.Description != p.Description {
			t.Errorf("名前以外が変更された: %+v", got)
		}
	})
}

func TestStore_ListProductsPaged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := setupTestStore(t)
	c := createTestCategory(t, s, "本")
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5"} {
		createTestProduct(t, s, name, c.ID)
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantNames []string
	}{
		{name: "1ページ目", page: 1, size: 2, wantNames: []string{"p1", "p2"}},
		{name: "2ページ目", page: 2, size: 2, wantNames: []string{"p3", "p4"}},
		{name: "最終ページは端数になる", page: 3, size: 2, wantNames: []string{"p5"}},
		{name: "範囲外のページは空", page: 4, size: 2, wantNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListProductsPaged(ctx, tt.page, tt.size)
			if err != nil {
				t.Fatalf("ListProductsPaged()でエラーが発生: %v", err)
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("件数 = %d, want %d", len(got), len(tt.wantNames))
			}
			for i, p := range got {
				if p.Name != tt.wantNames[i] {
					t.Errorf("got[%d].Name = %q, want %q", i, p.Name, tt.wantNames[i])
				}
			}
		})
	}

	t.Run("0以下の指定はエラーになること", func(t *testing.T) {
		if _, err := s.ListProductsPaged(ctx, 0, 2); err == nil {
			t.Error("ページ番号0でエラーが返るべき")
		}
		if _, err := s.ListProductsPaged(ctx, 1, 0); err == nil {
			t.Error("ページサイズ0でエラーが返るべき")
		}
	})
}

func TestStore_FindProductsByName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := setupTestStore(t)
	c := createTestCategory(t, s, "本")
	for _, name := range []string{"ABCdef", "xyzabc", "100%オフ", "snake_case", "snakeXcase", "Óleo de soja", "Açúcar"} {
		createTestProduct(t, s, name, c.ID)
	}

	tests := []struct {
		name      string
		text      string
		wantNames []string
	}{
		{name: "大文字小文字を区別しないこと", text: "abc", wantNames: []string{"ABCdef", "xyzabc"}},
		{name: "ASCII以外の大文字を小文字で検索できること", text: "óleo", wantNames: []string{"Óleo de soja"}},
		{name: "ASCII以外の小文字を大文字で検索できること", text: "ÓLEO", wantNames: []string{"Óleo de soja"}},
		{name: "登録した名前そのもので検索できること", text: "Óleo de soja", wantNames: []string{"Óleo de soja"}},
		{name: "セディーユとアクセントを大文字で検索できること", text: "AÇÚCAR", wantNames: []string{"Açúcar"}},
		{name: "%はワイルドカードにならないこと", text: "0%", wantNames: []string{"100%オフ"}},
		{name: "_はワイルドカードにならないこと", text: "e_c", wantNames: []string{"snake_case"}},
		{name: "一致しない場合は空スライス", text: "存在しない", wantNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindProductsByName(ctx, tt.text)
			if err != nil {
				t.Fatalf("FindProductsByName()でエラーが発生: %v", err)
			}
			if got == nil {
				t.Fatal("結果がnilになった")
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("件数 = %d, want %d (%+v)", len(got), len(tt.wantNames), got)
			}
			for i, p := range got {
				if p.Name != tt.wantNames[i] {
					t.Errorf("got[%d].Name = %q, want %q", i, p.Name, tt.wantNames[i])
				}
			}
		})
	}
}
