// Package chocolate declares the column groups of the chocolate bar ratings
// dataset and assembles its feature preprocessor.
package chocolate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
	"github.com/YuminosukeSato/chocotune/preprocessing"
	"github.com/YuminosukeSato/chocotune/sklearn/compose"
	"github.com/YuminosukeSato/chocotune/sklearn/feature_extraction/text"
)

// Input columns.
const (
	Target = "rating"

	Ref                 = "ref"
	CompanyManufacturer = "company_manufacturer"
	CompanyLocation     = "company_location"
	ReviewDate          = "review_date"
	CountryOfBeanOrigin = "country_of_bean_origin"
	BarName             = "specific_bean_origin_or_bar_name"
	CocoaPercent        = "cocoa_percent"
	Ingredients         = "ingredients"
	Characteristics     = "most_memorable_characteristics"
)

// IngredientClasses is the fixed label universe of the ingredients column.
var IngredientClasses = []string{
	"B",  // beans
	"S",  // sugar
	"S*", // sweetener other than white cane or beet sugar
	"C",  // cocoa butter
	"V",  // vanilla
	"L",  // lecithin
	"Sa", // salt
}

// Column groups, in branch order.
var (
	CategoricalColumns = []string{CompanyManufacturer, CompanyLocation, CountryOfBeanOrigin}
	DateColumns        = []string{ReviewDate}
	SetColumns         = []string{Ingredients}
	PercentColumns     = []string{CocoaPercent}
	TextColumns        = []string{Characteristics}
	DroppedColumns     = []string{Ref, BarName}
)

// Branch names, as scikit-learn's make_column_transformer would generate them.
const (
	OneHotBranch   = "onehotencoder"
	ScalerBranch   = "standardscaler"
	OrdinalBranch  = "ordinalencoder"
	SetBranch      = "pipeline-1"
	PercentBranch  = "pipeline-2"
	CountBranch    = "pipeline-3"
	TextBranch     = "countvectorizer"
	DropBranch     = "drop"
	VocabularyPath = "columntransformer__" + TextBranch + "__max_features"
)

// Variant selects how the review year and the ingredients count are encoded.
type Variant int

const (
	// VariantStandard standardizes review_date as a literal number
	// (zero mean, unit variance). Every category is kept in the one-hot
	// blocks.
	VariantStandard Variant = iota + 1

	// VariantOrdinal maps review_date to its rank among the years seen at
	// fit (unseen years -> -1), adds the standardized leading ingredient
	// count as a derived feature, and collapses rare categories: makers
	// seen fewer than 5 times, locations and origins fewer than 2.
	VariantOrdinal
)

func (v Variant) String() string {
	switch v {
	case VariantStandard:
		return "standard"
	case VariantOrdinal:
		return "ordinal"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant accepts the names printed by Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "standard", "":
		return VariantStandard, nil
	case "ordinal":
		return VariantOrdinal, nil
	}
	return 0, scigoErrors.NewValidationError("variant", "must be \"standard\" or \"ordinal\"", s)
}

// MinFrequency returns the per-column infrequent thresholds of v.
func (v Variant) MinFrequency() map[string]int {
	if v != VariantOrdinal {
		return nil
	}
	return map[string]int{
		CompanyManufacturer: 5,
		CompanyLocation:     2,
		CountryOfBeanOrigin: 2,
	}
}

// NewPreprocessor builds the column router for variant v. Every encoder
// shares policy for values not seen at fit.
func NewPreprocessor(v Variant, policy preprocessing.UnknownPolicy) (*compose.ColumnTransformer, error) {
	if v != VariantStandard && v != VariantOrdinal {
		return nil, scigoErrors.NewValidationError("variant", "unknown preprocessor variant", int(v))
	}
	branches := []compose.Branch{{
		Name:    OneHotBranch,
		Columns: CategoricalColumns,
		Transformer: preprocessing.NewOneHotEncoder(
			preprocessing.WithDropIfBinary(),
			preprocessing.WithMinFrequency(v.MinFrequency()),
			preprocessing.WithOneHotPolicy(policy),
		),
	}}
	if v == VariantOrdinal {
		branches = append(branches, compose.Branch{
			Name:        OrdinalBranch,
			Columns:     DateColumns,
			Transformer: preprocessing.NewOrdinalEncoder(policy),
		})
	} else {
		branches = append(branches, compose.Branch{
			Name:    ScalerBranch,
			Columns: DateColumns,
			Transformer: compose.NewChain[mat.Matrix](
				preprocessing.NewNumericParser(), preprocessing.NewStandardScalerDefault()),
		})
	}
	branches = append(branches,
		compose.Branch{
			Name:    SetBranch,
			Columns: SetColumns,
			Transformer: compose.NewChain[[][]string](
				preprocessing.NewSetParser(), preprocessing.NewSetValueEncoder(IngredientClasses, policy)),
		},
		compose.Branch{
			Name:    PercentBranch,
			Columns: PercentColumns,
			Transformer: compose.NewChain[mat.Matrix](
				preprocessing.NewPercentParser(), preprocessing.NewStandardScalerDefault()),
		},
	)
	if v == VariantOrdinal {
		branches = append(branches, compose.Branch{
			Name:    CountBranch,
			Columns: SetColumns,
			Derived: true,
			Transformer: compose.NewChain[mat.Matrix](
				preprocessing.NewLeadingCountParser(), preprocessing.NewStandardScalerDefault()),
		})
	}
	branches = append(branches,
		compose.Branch{
			Name:        TextBranch,
			Columns:     TextColumns,
			Transformer: text.NewCountVectorizer(),
		},
		compose.Drop(DropBranch, DroppedColumns...),
	)
	return compose.NewColumnTransformer(branches...)
}

// VocabularySize returns the fitted vocabulary size of the text branch.
func VocabularySize(ct *compose.ColumnTransformer) (int, error) {
	b, ok := ct.Branch(TextBranch)
	if !ok {
		return 0, scigoErrors.Newf("preprocessor has no %q branch", TextBranch)
	}
	cv, ok := b.Transformer.(*text.CountVectorizer)
	if !ok {
		return 0, scigoErrors.Newf("branch %q is %T, not a CountVectorizer", TextBranch, b.Transformer)
	}
	if !cv.State.IsFitted() {
		return 0, scigoErrors.Newf("branch %q is not fitted", TextBranch)
	}
	return cv.VocabularySize(), nil
}
