package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "examboard/pkg/domain-errors"
)

// IDs arrive from path params and request bodies, so parsing is the trust
// boundary: empty, malformed and nil UUIDs must all be rejected the same way.
func TestParseIDs(t *testing.T) {
	parsers := map[string]func(string) error{
		"exam":        func(s string) error { _, err := ParseExamID(s); return err },
		"institution": func(s string) error { _, err := ParseInstitutionID(s); return err },
		"quota":       func(s string) error { _, err := ParseQuotaRecordID(s); return err },
		"stage":       func(s string) error { _, err := ParseStageID(s); return err },
		"registrant":  func(s string) error { _, err := ParseRegistrantID(s); return err },
		"draft":       func(s string) error { _, err := ParseDraftID(s); return err },
		"operator":    func(s string) error { _, err := ParseOperatorID(s); return err },
	}

	rejected := []string{
		"",
		"   ",
		"not-a-uuid",
		"'; DROP TABLE registrants;--",
		"550e8400\x00-e29b-41d4-a716-446655440000",
		strings.Repeat("7", 500),
		uuid.Nil.String(),
	}

	for name, parse := range parsers {
		t.Run(name+" accepts valid uuid", func(t *testing.T) {
			require.NoError(t, parse(uuid.NewString()))
			require.NoError(t, parse("550E8400-E29B-41D4-A716-446655440000"))
		})
		for _, input := range rejected {
			t.Run(name+" rejects "+input, func(t *testing.T) {
				err := parse(input)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			})
		}
	}
}

func TestIDsRoundTripThroughJSON(t *testing.T) {
	type payload struct {
		Exam  ExamID  `json:"exam_id"`
		Stage StageID `json:"stage_id"`
	}
	in := payload{Exam: ExamID(uuid.New()), Stage: StageID(uuid.New())}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Exam.String())

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
	assert.False(t, out.Stage.IsNil())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("regular")
	require.NoError(t, err)
	assert.Equal(t, CategoryRegular, c)

	c, err = ParseCategory("irregular")
	require.NoError(t, err)
	assert.Equal(t, CategoryIrregular, c)

	for _, bad := range []string{"", "Regular", "private"} {
		_, err := ParseCategory(bad)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}
