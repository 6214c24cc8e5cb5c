package model

// WarningKind identifies a recoverable, per-record data-quality issue.
type WarningKind string

const (
	// WarningSchemaCoercion marks a field that was missing or malformed and
	// replaced with its schema default.
	WarningSchemaCoercion WarningKind = "schema_coercion"
	// WarningAmbiguousClassification marks a record that matched no keyword
	// and received the default category.
	WarningAmbiguousClassification WarningKind = "ambiguous_classification"
	// WarningNormalization marks a field the normalizer could not clean
	// without emptying it.
	WarningNormalization WarningKind = "normalization"
)

// Warning is one logged, non-fatal issue.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Index   int         `json:"index"`
	ID      string      `json:"id,omitempty"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
}

// ClassificationSource says which rule produced a category.
type ClassificationSource string

const (
	ClassifiedByOverride ClassificationSource = "override"
	ClassifiedByKeyword  ClassificationSource = "keyword"
	ClassifiedByDefault  ClassificationSource = "default"
	ClassifiedByExisting ClassificationSource = "existing"
)

// Classification is the classifier's decision for one record.
type Classification struct {
	Category string               `json:"category"`
	Source   ClassificationSource `json:"source"`
	Keyword  string               `json:"keyword,omitempty"`
}

// MatchKind says how a duplicate pair was detected.
type MatchKind string

const (
	MatchExactID   MatchKind = "exact_id"
	MatchExactName MatchKind = "exact_name"
	MatchExactSlug MatchKind = "exact_slug"
	MatchFuzzyName MatchKind = "fuzzy_name"
)

// DuplicatePair links a later record to the earlier record it duplicates.
// Indexes refer to positions in the catalog the detector was given, which
// keeps pairs unambiguous even when ids collide.
type DuplicatePair struct {
	KeptIndex    int       `json:"kept_index"`
	KeptID       string    `json:"kept_id"`
	DroppedIndex int       `json:"dropped_index"`
	DroppedID    string    `json:"dropped_id"`
	Similarity   float64   `json:"similarity"`
	Match        MatchKind `json:"match"`
}

// Artifact is a record flagged as a scraped navigation/UI fragment.
type Artifact struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// DetectReport is the read-only output of duplicate/artifact detection.
type DetectReport struct {
	Duplicates []DuplicatePair `json:"duplicates"`
	Artifacts  []Artifact      `json:"artifacts"`
}

// Reclassification records a category change.
type Reclassification struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	From    string               `json:"from"`
	To      string               `json:"to"`
	Source  ClassificationSource `json:"source"`
	Keyword string               `json:"keyword,omitempty"`
}

// RemovalKind groups removals by cause.
type RemovalKind string

const (
	RemovalArtifact  RemovalKind = "artifact"
	RemovalDuplicate RemovalKind = "duplicate"
)

// Removal records one record dropped from the catalog.
type Removal struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Kind   RemovalKind `json:"kind"`
	Reason string      `json:"reason"`
}

// DuplicateResolution records which side of a duplicate pair survived.
type DuplicateResolution struct {
	KeptID      string    `json:"kept_id"`
	KeptName    string    `json:"kept_name"`
	DroppedID   string    `json:"dropped_id"`
	DroppedName string    `json:"dropped_name"`
	Similarity  float64   `json:"similarity"`
	Match       MatchKind `json:"match"`
}

// ReportCounts summarizes a reconciliation run.
type ReportCounts struct {
	Input        int `json:"input"`
	Output       int `json:"output"`
	Reclassified int `json:"reclassified"`
	Removed      int `json:"removed"`
	Artifacts    int `json:"artifacts"`
	Duplicates   int `json:"duplicates"`
	Warnings     int `json:"warnings"`
}

// CategoryCount is one row of the post-reconcile category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ChangeReport is the human-facing summary of one reconciliation.
type ChangeReport struct {
	Counts       ReportCounts          `json:"counts"`
	Reclassified []Reclassification    `json:"reclassified"`
	Removed      []Removal             `json:"removed"`
	Duplicates   []DuplicateResolution `json:"duplicates"`
	Warnings     []Warning             `json:"warnings"`
	Categories   []CategoryCount       `json:"categories"`
}
