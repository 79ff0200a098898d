// Package chocotune tunes regression models that predict chocolate bar
// ratings from the Flavors of Cacao reviews.
//
// chocotune assembles a scikit-learn style feature pipeline over the raw
// review columns (one-hot makers and origins, the review year, the
// ingredient set, the cocoa percentage and a bag of words over the tasting
// notes), puts one of five regressors behind it, and runs a randomized
// cross-validated search over the regressor's hyperparameters together with
// the size of the text vocabulary.
//
// # Quick Start
//
//	family := families.NewRidge()
//	h := tuning.NewHarness(family, tuning.WithSearchIter(20))
//	res, err := h.TuneAndDump("data/train_df.csv", "results/models", "results/cv_scores")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Search.BestScore, res.Search.BestParams)
//
// The dumped search can be reloaded and used for prediction:
//
//	search, err := tuning.LoadArtifact(res.TunedPath)
//	pred, err := search.Predict(X)
//
// # Packages
//
//   - core/frame: column-oriented string table loaded from CSV
//   - core/model: estimator contracts, fitted state, gob persistence
//   - core/parallel: bounded errgroup fan-out
//   - preprocessing: parsers, SetValueEncoder, one-hot, ordinal, scaler
//   - sklearn/feature_extraction/text: CountVectorizer
//   - sklearn/compose: ColumnTransformer and two-step chains
//   - sklearn/pipeline: preprocessor plus estimator
//   - sklearn/tree, sklearn/ensemble, sklearn/neighbors, sklearn/svm,
//     sklearn/linear_model: the regressors
//   - sklearn/model_selection: distributions, KFold, RandomizedSearchCV
//   - metrics: regression metrics and named scorers
//   - chocolate: the dataset's column groups and preprocessor
//   - tuning: the harness, artifacts, metrics export and score plot
//   - families: the five registered model families
//   - cmd/chocotune: command line
//
// # Command Line
//
//	chocotune tune ridge --train data/train_df.csv --plot
//	chocotune inspect results/models/tuned_ridge.gob
//	chocotune families
package chocotune
