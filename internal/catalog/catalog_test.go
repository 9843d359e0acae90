package catalog

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if got := len(c.Principles()); got != 5 {
		t.Fatalf("got %d principles, want 5", got)
	}

	if p, ok := c.PrincipleFor("bias_bbq"); !ok || p != PrincipleFairness {
		t.Errorf("PrincipleFor(bias_bbq) = %q, %v", p, ok)
	}
	if _, ok := c.PrincipleFor("made_up_benchmark"); ok {
		t.Error("unknown benchmark resolved to a principle")
	}
}

func TestDocumentMappings(t *testing.T) {
	c := Default()

	if !c.KnownDocumentType("risk_assessment") {
		t.Error("risk_assessment should be known")
	}
	if c.KnownDocumentType("crystal_ball_report") {
		t.Error("unknown type accepted")
	}

	m, ok := c.MappingFor("risk_assessment")
	if !ok {
		t.Fatal("risk_assessment has no mapping")
	}
	if m.QuestionCode == "" || m.PositiveValue == "" || m.NegativeValue == "" || m.Points <= 0 {
		t.Errorf("incomplete mapping: %+v", m)
	}

	// Known but unscored: collected without a question mapping.
	if _, ok := c.MappingFor("technical_documentation"); ok {
		t.Error("technical_documentation should have no scoring mapping")
	}
	if !c.KnownDocumentType("technical_documentation") {
		t.Error("technical_documentation should still be a known type")
	}
}
