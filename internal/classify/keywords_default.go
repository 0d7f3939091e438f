package classify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// KeywordSpec names the keywords that indicate one subcategory. Specs are
// resolved against the stored taxonomy at startup; a spec whose
// subcategory is missing is skipped.
type KeywordSpec struct {
	CategoryType    model.CategoryType
	SubcategoryName string
	Keywords        []string
}

// ResolveKeywordRules binds keyword specs to the stored taxonomy. Specs
// naming a subcategory that does not exist are skipped with a warning so
// a trimmed taxonomy does not break startup.
func ResolveKeywordRules(ctx context.Context, specs []KeywordSpec, subcategories service.SubcategoryDirectory) ([]KeywordRule, error) {
	var rules []KeywordRule
	for _, spec := range specs {
		sub, err := subcategories.SubcategoryByName(ctx, spec.CategoryType, spec.SubcategoryName)
		if errors.Is(err, common.ErrNotFound) {
			slog.Warn("keyword spec references unknown subcategory",
				"category_type", spec.CategoryType, "subcategory", spec.SubcategoryName)
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, kw := range spec.Keywords {
			rules = append(rules, KeywordRule{Keyword: kw, Subcategory: *sub})
		}
	}
	return rules, nil
}

// DefaultKeywordSpecs returns the built-in keyword table for Japanese
// bank and card statement text. Keywords are matched against normalized
// descriptions, so half-width katakana and full-width latin variants are
// covered automatically.
func DefaultKeywordSpecs() []KeywordSpec {
	return []KeywordSpec{
		{model.CategoryTypeExpense, "食費", []string{
			"スターバックス", "マクドナルド", "すき家", "吉野家", "サイゼリヤ",
			"セブンイレブン", "ファミリーマート", "ローソン", "レストラン", "カフェ", "コーヒー",
		}},
		{model.CategoryTypeExpense, "日用品", []string{
			"マツモトキヨシ", "ドラッグ", "ニトリ", "無印良品", "ダイソー",
		}},
		{model.CategoryTypeExpense, "交通費", []string{
			"jr東日本", "jr西日本", "メトロ", "タクシー", "suica", "pasmo", "etc",
		}},
		{model.CategoryTypeExpense, "水道光熱費", []string{
			"電力", "電気料金", "ガス", "水道",
		}},
		{model.CategoryTypeExpense, "通信費", []string{
			"nttドコモ", "ソフトバンク", "楽天モバイル", "kddi", "インターネット",
		}},
		{model.CategoryTypeExpense, "住居", []string{
			"家賃", "管理費", "賃貸",
		}},
		{model.CategoryTypeExpense, "医療・健康", []string{
			"病院", "クリニック", "薬局", "歯科",
		}},
		{model.CategoryTypeExpense, "趣味・娯楽", []string{
			"netflix", "spotify", "映画", "カラオケ", "書店",
		}},
		{model.CategoryTypeIncome, "給与", []string{
			"給与", "給料", "賞与", "ボーナス",
		}},
		{model.CategoryTypeIncome, "利息・配当", []string{
			"利息", "配当",
		}},
		{model.CategoryTypeTransfer, "口座振替", []string{
			"口座振替", "資金移動",
		}},
		{model.CategoryTypeRepayment, "カード返済", []string{
			"カード引落", "三井住友カード", "jcb", "ビューカード", "返済",
		}},
		{model.CategoryTypeInvestment, "投資信託", []string{
			"投信", "証券", "積立",
		}},
	}
}
