// Package catalog holds the fixed reference data of the assessment framework:
// the regulatory principles, the benchmark-to-principle map, and the
// document-type-to-question mappings. Catalogs are injected into services so
// tests can substitute alternative schemes.
package catalog

// Principle codes of the current framework. Each principle is worth up to
// PrincipleMaxPoints normalized points toward the model score.
const (
	PrincipleTransparency   = "transparency"
	PrincipleFairness       = "fairness"
	PrincipleRobustness     = "robustness"
	PrinciplePrivacy        = "privacy"
	PrincipleAccountability = "accountability"
)

const (
	// PrincipleMaxPoints is the per-principle ceiling of the model score.
	PrincipleMaxPoints = 4.0
	// ModelMaxPoints is the model-score ceiling, all principles at max.
	ModelMaxPoints = 20.0
)

// DocumentMapping ties a document type to the questionnaire answer it
// evidences and the points awarded when the answer flips to positive.
type DocumentMapping struct {
	QuestionCode  string
	PositiveValue string
	NegativeValue string
	Points        float64
}

// Registry question constants. The propagator writes one of two canonical
// shapes for this question on every use case a company owns.
const (
	RegistryQuestionCode  = "reg_centralized_registry"
	RegistryAnswerYes     = "yes"
	RegistryAnswerNo      = "no"
	RegistryNameDetailKey = "registry_name"
	RegistryNameMaydai    = "maydai"
)

// Catalog is the injected reference data set.
type Catalog struct {
	principles         []string
	benchmarkPrinciple map[string]string
	documentMappings   map[string]DocumentMapping
	documentTypes      map[string]bool
}

// Default returns the production catalog.
func Default() *Catalog {
	c := &Catalog{
		principles: []string{
			PrincipleTransparency,
			PrincipleFairness,
			PrincipleRobustness,
			PrinciplePrivacy,
			PrincipleAccountability,
		},
		benchmarkPrinciple: map[string]string{
			"model_card_completeness": PrincipleTransparency,
			"explanation_fidelity":    PrincipleTransparency,
			"bias_bbq":                PrincipleFairness,
			"bias_winogender":         PrincipleFairness,
			"adversarial_advglue":     PrincipleRobustness,
			"ood_wilds":               PrincipleRobustness,
			"membership_inference":    PrinciplePrivacy,
			"data_extraction":         PrinciplePrivacy,
			"incident_traceability":   PrincipleAccountability,
		},
		documentMappings: map[string]DocumentMapping{
			"risk_assessment": {
				QuestionCode:  "gov_risk_assessment",
				PositiveValue: "yes_documented",
				NegativeValue: "no",
				Points:        10,
			},
			"data_governance_policy": {
				QuestionCode:  "gov_data_policy",
				PositiveValue: "yes",
				NegativeValue: "no",
				Points:        8,
			},
			"human_oversight_plan": {
				QuestionCode:  "gov_human_oversight",
				PositiveValue: "yes",
				NegativeValue: "no",
				Points:        6,
			},
			"incident_response_plan": {
				QuestionCode:  "gov_incident_response",
				PositiveValue: "yes",
				NegativeValue: "no",
				Points:        6,
			},
			// Technical documentation is collected but not tied to a scored question.
			"technical_documentation": {},
		},
		documentTypes: map[string]bool{},
	}
	for t := range c.documentMappings {
		c.documentTypes[t] = true
	}
	return c
}

// New builds a catalog from explicit tables, for tests and alternative schemes.
func New(principles []string, benchmarkPrinciple map[string]string, mappings map[string]DocumentMapping) *Catalog {
	types := make(map[string]bool, len(mappings))
	for t := range mappings {
		types[t] = true
	}
	return &Catalog{
		principles:         principles,
		benchmarkPrinciple: benchmarkPrinciple,
		documentMappings:   mappings,
		documentTypes:      types,
	}
}

// Principles returns the fixed principle codes in catalog order.
func (c *Catalog) Principles() []string { return c.principles }

// PrincipleFor resolves the principle a benchmark identifier evidences.
func (c *Catalog) PrincipleFor(benchmark string) (string, bool) {
	p, ok := c.benchmarkPrinciple[benchmark]
	return p, ok
}

// KnownDocumentType reports whether docType belongs to the fixed enumerated set.
func (c *Catalog) KnownDocumentType(docType string) bool {
	return c.documentTypes[docType]
}

// MappingFor returns the question mapping a document type evidences. A known
// document type with an empty mapping has no score effect.
func (c *Catalog) MappingFor(docType string) (DocumentMapping, bool) {
	m, ok := c.documentMappings[docType]
	if !ok || m.QuestionCode == "" {
		return DocumentMapping{}, false
	}
	return m, true
}
