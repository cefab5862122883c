package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategoryString(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		category ErrorCategory
		expected string
	}{
		"Schema":        {category: Schema, expected: "Schema Error"},
		"NotFound":      {category: NotFound, expected: "Not Found Error"},
		"Validation":    {category: Validation, expected: "Validation Error"},
		"RemoteLookup":  {category: RemoteLookup, expected: "Remote Lookup Error"},
		"Configuration": {category: Configuration, expected: "Configuration Error"},
		"Runtime":       {category: Runtime, expected: "Runtime Error"},
		"Unknown":       {category: ErrorCategory(99), expected: "Error"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.category.String())
		})
	}
}

func TestDeployErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("setting value: %w", OptionSettingNotFound("A.B", "Fargate"))

	assert.True(t, stderrors.Is(err, &DeployError{Code: CodeOptionSettingNotFound}))
	assert.False(t, stderrors.Is(err, &DeployError{Code: CodeValidationFailed}))
	assert.True(t, IsCode(err, CodeOptionSettingNotFound))
	assert.Equal(t, CodeOptionSettingNotFound, CodeOf(err))
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Wrap(nil, Runtime, ""))
		assert.Nil(t, WrapWithMessage(nil, Runtime, "", "outer"))
	})

	t.Run("wraps error with category and code", func(t *testing.T) {
		t.Parallel()
		inner := stderrors.New("boom")
		result := Wrap(inner, Configuration, CodeInvalidConfiguration, "fix it")

		assert.Equal(t, Configuration, result.Category)
		assert.Equal(t, CodeInvalidConfiguration, result.Code)
		assert.Len(t, result.Remediation, 1)
		assert.ErrorIs(t, result, inner)
	})

	t.Run("wraps error with message", func(t *testing.T) {
		t.Parallel()
		result := WrapWithMessage(stderrors.New("inner"), Runtime, CodeRemoteLookupFailed, "outer")
		assert.Equal(t, "outer: inner", result.Message)
	})
}

func TestAsDeployError(t *testing.T) {
	t.Parallel()

	original := NewNotFoundError(CodeSessionNotFound, "missing")
	assert.Same(t, original, AsDeployError(fmt.Errorf("wrapped: %w", original)))
	assert.Nil(t, AsDeployError(stderrors.New("plain")))
	assert.False(t, IsDeployError(stderrors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(stderrors.New("plain")))
}

func TestValidationFailed(t *testing.T) {
	t.Parallel()

	err := ValidationFailed("bad", []string{"first problem", "second problem"})

	assert.Equal(t, Validation, err.Category)
	assert.Equal(t, "first problem\nsecond problem", err.Message)
	assert.Equal(t, "bad", err.Value)
}

func TestInvalidOverrideValue(t *testing.T) {
	t.Parallel()

	err := InvalidOverrideValue("Task CPU", 300, []string{"256", "512"})

	assert.Equal(t, CodeInvalidOverrideValue, err.Code)
	assert.Contains(t, err.Message, `"300"`)
	assert.Contains(t, err.Message, "256, 512")
	assert.Equal(t, 300, err.Value)
}

func TestSchemaConstructors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err      *DeployError
		code     Code
		contains string
	}{
		"recipe parse": {
			err:      RecipeParseError("/r/a.recipe", stderrors.New("unexpected EOF")),
			code:     CodeRecipeParse,
			contains: "/r/a.recipe",
		},
		"duplicate id": {
			err:      DuplicateRecipeID("Fargate", "/a", "/b"),
			code:     CodeDuplicateRecipeID,
			contains: "Fargate",
		},
		"rule test type": {
			err:      InvalidRuleTestType("Fargate", "Bogus"),
			code:     CodeInvalidRuleTestType,
			contains: "[Bogus]",
		},
		"validator type": {
			err:      UnknownValidatorType("Bogus"),
			code:     CodeUnknownValidatorType,
			contains: "Bogus",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NotNil(t, tt.err)
			assert.Equal(t, Schema, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, strings.Contains(tt.err.Error(), tt.contains))
		})
	}
}
