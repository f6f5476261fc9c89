package ner

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"CrisisMonitor/internal/ports"
)

// LabelGPE is the prose entity label for countries, cities and states.
const LabelGPE = "GPE"

// ProseExtractor finds geopolitical entities with the prose English model.
type ProseExtractor struct{}

var _ ports.LocationExtractor = ProseExtractor{}

func NewProseExtractor() ProseExtractor {
	return ProseExtractor{}
}

func (ProseExtractor) Extract(text string) ([]ports.Span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("ner: %w", err)
	}

	var spans []ports.Span
	for _, ent := range doc.Entities() {
		if ent.Label != LabelGPE {
			continue
		}
		spans = append(spans, ports.Span{Text: ent.Text, Label: ent.Label})
	}
	return spans, nil
}
