package sqlinline

import (
	"testing"

	"reelmate/internal/infra"
)

func TestStatementsCarryUniqueMarkers(t *testing.T) {
	statements := map[string]string{
		"QCreateGenerationJobsSchema": QCreateGenerationJobsSchema,
		"QInsertGenerationJob":        QInsertGenerationJob,
		"QSelectGenerationJob":        QSelectGenerationJob,
		"QListGenerationJobs":         QListGenerationJobs,
		"QSwapGenerationJob":          QSwapGenerationJob,
		"QSelectIntegrationToken":     QSelectIntegrationToken,
		"QUpsertIntegrationToken":     QUpsertIntegrationToken,
	}
	seen := make(map[string]string, len(statements))
	for name, stmt := range statements {
		marker, body, err := infra.ExtractMarker(stmt)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if body == "" {
			t.Fatalf("%s: empty body", name)
		}
		if other, dup := seen[marker]; dup {
			t.Fatalf("%s reuses marker %s from %s", name, marker, other)
		}
		seen[marker] = name
	}
}
