package review

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVerdicts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status string
		want   string
	}{
		{"approved", `Status changed for review "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`},
		{"reviewing", `Status changed for review "hw1". Работа взята на проверку ревьюером.`},
		{"rejected", `Status changed for review "hw1". Работа проверена: у ревьюера есть замечания.`},
	}
	for _, tt := range tests {
		name, text, err := Extract(Item{Name: "hw1", Status: tt.status})
		require.NoError(t, err)
		assert.Equal(t, "hw1", name)
		assert.Equal(t, tt.want, text)

		// Same input, same output.
		_, again, err := Extract(Item{Name: "hw1", Status: tt.status})
		require.NoError(t, err)
		assert.Equal(t, text, again)
	}
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()

	_, _, err := Extract(Item{Status: "approved"})
	assert.True(t, errors.Is(err, ErrMissingItemName))

	_, _, err = Extract(Item{Name: "hw1"})
	re, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnrecognizedStatus, re.Kind)
	assert.Equal(t, "Unexpected review status: no status.", re.Notice())

	_, _, err = Extract(Item{Name: "hw1", Status: "unknown_code"})
	re, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnrecognizedStatus, re.Kind)
	assert.Equal(t, "Unexpected review status: undocumented.", re.Notice())

	// An explicit empty status is a value, just not a documented one.
	_, _, err = Extract(Item{Name: "hw1", Status: "", HasStatus: true})
	re, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Unexpected review status: undocumented.", re.Notice())
}
