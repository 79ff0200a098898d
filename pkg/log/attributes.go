package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or transformer type.
	// Examples: "Ridge", "ColumnTransformer", "SVR"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "search"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ColumnsKey  = "data.columns"
	PathKey     = "data.path"
)

// Tuning context.
const (
	// RunIDKey carries the unique id of one TuneAndDump invocation.
	RunIDKey = "run.id"

	// FamilyKey names the model family being tuned.
	FamilyKey = "tuning.family"

	CandidatesKey = "tuning.candidates"
	CandidateKey  = "tuning.candidate"
	FoldKey       = "tuning.fold"
	FoldsKey      = "tuning.folds"
	ParamsKey     = "tuning.params"
	ScoringKey    = "tuning.scoring"
	ScoreKey      = "tuning.score"
	VocabularyKey = "tuning.vocabulary_size"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Performance.
const (
	DurationMsKey = "perf.duration_ms"
	WorkersKey    = "perf.workers"
)

// Error context.
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSearch    = "search"
	OperationDump      = "dump"

	PhaseDiscovery     = "discovery"
	PhaseSearch        = "search"
	PhaseRefit         = "refit"
	PhasePersistence   = "persistence"
	PhasePreprocessing = "preprocessing"
)
