package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category は製品をグループ化するカテゴリ。
type Category struct {
	// ID はストアが採番する一意識別子。作成後は変更されない。
	ID int `gorm:"primaryKey" json:"id"`
	// Name はカテゴリ名。
	Name string `gorm:"size:80;not null" json:"name"`
	// Description はカテゴリの説明。
	Description string `gorm:"size:300" json:"description"`
	// Products はカテゴリに属する製品。明示的に要求された場合のみ読み込まれる。
	Products []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
}

// TableName はCategoryのテーブル名を返す。
func (Category) TableName() string {
	return "categories"
}

// Product はいずれか1つのカテゴリに属するカタログ製品。
type Product struct {
	// ID はストアが採番する一意識別子。作成後は変更されない。
	ID int `gorm:"primaryKey" json:"id"`
	// Name は製品名。
	Name string `gorm:"size:80;not null" json:"name"`
	// Description は製品の説明。
	Description string `gorm:"size:300" json:"description"`
	// Price は価格。負の値は許可しない。
	Price decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	// PurchaseDate は購入日時。
	PurchaseDate time.Time `gorm:"not null" json:"purchase_date"`
	// Stock は在庫数。負の値は許可しない。
	Stock int `gorm:"not null;default:0" json:"stock"`
	// Image は画像のURLまたはパス。
	Image string `gorm:"size:300" json:"image"`
	// CategoryID は所属カテゴリのID。参照整合性はストアが保証する。
	CategoryID int `gorm:"not null;index" json:"category_id"`
}

// TableName はProductのテーブル名を返す。
func (Product) TableName() string {
	return "products"
}
