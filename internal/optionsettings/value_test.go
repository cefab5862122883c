package optionsettings

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
	"github.com/ariel-frischer/recipedeploy/internal/recipe"
)

func prepared(t *testing.T, items ...*recipe.OptionSettingItem) []*recipe.OptionSettingItem {
	t.Helper()
	require.NoError(t, recipe.PrepareSettings(items))
	return items
}

// checkerFunc adapts a function to the Checker interface.
type checkerFunc func(item *recipe.OptionSettingItem, value any) []string

func (f checkerFunc) Check(item *recipe.OptionSettingItem, value any) []string { return f(item, value) }

func TestSetValueCoercion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		typ   recipe.OptionSettingValueType
		input any
		want  any
	}{
		"string true becomes bool":   {typ: recipe.TypeString, input: "true", want: true},
		"mixed case false":           {typ: recipe.TypeString, input: "False", want: false},
		"string 42 becomes int":      {typ: recipe.TypeString, input: "42", want: 42},
		"plain string kept":          {typ: recipe.TypeString, input: "hello", want: "hello"},
		"t stays a string":           {typ: recipe.TypeString, input: "t", want: "t"},
		"double parses decimals":     {typ: recipe.TypeDouble, input: "0.5", want: 0.5},
		"decimal on string type":     {typ: recipe.TypeString, input: "0.5", want: "0.5"},
		"integral float for int":     {typ: recipe.TypeInt, input: 512.0, want: 512},
		"bool stored as is":          {typ: recipe.TypeBool, input: true, want: true},
		"nil becomes empty":          {typ: recipe.TypeString, input: nil, want: ""},
		"key value from json":        {typ: recipe.TypeKeyValue, input: `{"A":"1","B":"2"}`, want: map[string]string{"A": "1", "B": "2"}},
		"key value from map":         {typ: recipe.TypeKeyValue, input: map[string]any{"PORT": 80}, want: map[string]string{"PORT": "80"}},
		"key value empty string":     {typ: recipe.TypeKeyValue, input: "", want: map[string]string{}},
		"list from json is a set":    {typ: recipe.TypeList, input: `["b","a","b"]`, want: []string{"a", "b"}},
		"list from slice":            {typ: recipe.TypeList, input: []any{"subnet-2", "subnet-1"}, want: []string{"subnet-1", "subnet-2"}},
		"list from strings deduped":  {typ: recipe.TypeList, input: []string{"x", "x"}, want: []string{"x"}},
		"list from empty string":     {typ: recipe.TypeList, input: "", want: []string{}},
		"int type keeps text digits": {typ: recipe.TypeInt, input: "1024", want: 1024},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			items := prepared(t, &recipe.OptionSettingItem{Id: "Setting", Type: tt.typ})
			overlay := NewOverlay()

			require.NoError(t, SetValue(items[0], overlay, tt.input, nil))
			got := GetValue(items[0], overlay, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetValueRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		typ   recipe.OptionSettingValueType
		input any
	}{
		"key value bad json": {typ: recipe.TypeKeyValue, input: "{not json"},
		"list of objects":    {typ: recipe.TypeList, input: `[{"a":1}]`},
		"unsupported type":   {typ: recipe.TypeString, input: struct{}{}},
		"key value number":   {typ: recipe.TypeKeyValue, input: 5},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			items := prepared(t, &recipe.OptionSettingItem{Id: "Setting", Type: tt.typ})
			overlay := NewOverlay()

			err := SetValue(items[0], overlay, tt.input, nil)
			require.Error(t, err)
			assert.Equal(t, deployerrors.CodeValidationFailed, deployerrors.CodeOf(err))
			assert.Zero(t, overlay.Len())
		})
	}
}

func TestDefaultsAndTokens(t *testing.T) {
	t.Parallel()

	items := prepared(t,
		&recipe.OptionSettingItem{Id: "RoleArn", Type: recipe.TypeString, DefaultValue: "arn:aws:iam::{AccountId}:role/x"},
		&recipe.OptionSettingItem{Id: "Bucket", Type: recipe.TypeString, DefaultValue: "{StackName}-{Unknown}"},
		&recipe.OptionSettingItem{Id: "Empty", Type: recipe.TypeString},
		&recipe.OptionSettingItem{Id: "Count", Type: recipe.TypeInt, DefaultValue: 2.0},
		&recipe.OptionSettingItem{Id: "Tags", Type: recipe.TypeKeyValue},
		&recipe.OptionSettingItem{Id: "Subnets", Type: recipe.TypeList, DefaultValue: []any{"b", "a"}},
	)
	tokens := Tokens{"AccountId": "123456789012", "{StackName}": "web"}
	overlay := NewOverlay()

	assert.Equal(t, "arn:aws:iam::123456789012:role/x", GetValue(items[0], overlay, tokens, nil))
	assert.Equal(t, "web-{Unknown}", GetValue(items[1], overlay, tokens, nil))
	assert.Equal(t, "", GetValue(items[2], overlay, tokens, nil))
	assert.Equal(t, 2, GetValue(items[3], overlay, tokens, nil))
	assert.Equal(t, map[string]string{}, GetValue(items[4], overlay, tokens, nil))
	assert.Equal(t, []string{"a", "b"}, GetValue(items[5], overlay, tokens, nil))
	assert.Equal(t, "arn:aws:iam::{AccountId}:role/x", GetValue(items[0], overlay, nil, nil))
}

func TestSubstituteTokens(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input  string
		tokens Tokens
		want   string
	}{
		"no tokens":         {input: "{A}", want: "{A}"},
		"repeated token":    {input: "{A}/{A}", tokens: Tokens{"A": "x"}, want: "x/x"},
		"braced key":        {input: "{A}-b", tokens: Tokens{"{A}": "a"}, want: "a-b"},
		"no placeholders":   {input: "plain", tokens: Tokens{"A": "x"}, want: "plain"},
		"unknown untouched": {input: "{A}{B}", tokens: Tokens{"A": "1"}, want: "1{B}"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SubstituteTokens(tt.input, tt.tokens))
		})
	}
}

func TestSetValueValidation(t *testing.T) {
	t.Parallel()

	items := prepared(t, &recipe.OptionSettingItem{Id: "Name", Type: recipe.TypeString, DefaultValue: "default"})
	overlay := NewOverlay()

	failing := checkerFunc(func(_ *recipe.OptionSettingItem, value any) []string {
		if value == "" {
			return []string{"can not be empty", "must match ^[a-z]+$"}
		}
		return nil
	})

	err := SetValue(items[0], overlay, "", failing)
	require.Error(t, err)
	de := deployerrors.AsDeployError(err)
	require.NotNil(t, de)
	assert.Equal(t, deployerrors.CodeValidationFailed, de.Code)
	assert.Equal(t, "can not be empty\nmust match ^[a-z]+$", de.Message)
	assert.Equal(t, "", de.Value)
	assert.Equal(t, "default", GetValue(items[0], overlay, nil, nil))

	require.NoError(t, SetValue(items[0], overlay, "web", failing))
	assert.Equal(t, "web", GetValue(items[0], overlay, nil, nil))

	// A nil checker skips validators.
	require.NoError(t, SetValue(items[0], overlay, "", nil))
	assert.Equal(t, "", GetValue(items[0], overlay, nil, nil))
}

func TestSetValueAllowedValuesAndMapping(t *testing.T) {
	t.Parallel()

	items := prepared(t,
		&recipe.OptionSettingItem{Id: "Cpu", Type: recipe.TypeInt, AllowedValues: []string{"256", "512"}},
		&recipe.OptionSettingItem{
			Id:            "EnvironmentType",
			Type:          recipe.TypeString,
			AllowedValues: []string{"SingleInstance", "LoadBalanced"},
			ValueMapping:  map[string]string{"SingleInstance": "Single Instance", "LoadBalanced": "Load Balanced"},
		},
	)
	overlay := NewOverlay()

	require.NoError(t, SetValue(items[0], overlay, "512", nil))
	assert.Equal(t, 512, GetValue(items[0], overlay, nil, nil))
	require.NoError(t, SetValue(items[0], overlay, 256, nil))

	err := SetValue(items[0], overlay, "300", nil)
	assert.Equal(t, deployerrors.CodeInvalidOverrideValue, deployerrors.CodeOf(err))
	assert.Equal(t, 256, GetValue(items[0], overlay, nil, nil))

	require.NoError(t, SetValue(items[1], overlay, "Load Balanced", nil))
	assert.Equal(t, "LoadBalanced", GetValue(items[1], overlay, nil, nil))
	require.NoError(t, SetValue(items[1], overlay, "SingleInstance", nil))
	assert.Equal(t, "SingleInstance", GetValue(items[1], overlay, nil, nil))
}

func objectSchema(t *testing.T) *recipe.OptionSettingItem {
	t.Helper()
	items := prepared(t, &recipe.OptionSettingItem{
		Id:   "AutoScaling",
		Type: recipe.TypeObject,
		ChildOptionSettings: []*recipe.OptionSettingItem{
			{Id: "Enabled", Type: recipe.TypeBool, DefaultValue: false},
			{Id: "MinCapacity", Type: recipe.TypeInt, DefaultValue: 1.0},
			{Id: "MaxCapacity", Type: recipe.TypeInt, DefaultValue: 3.0},
			{Id: "ScalingType", Type: recipe.TypeString, DefaultValue: "Cpu", AllowedValues: []string{"Cpu", "Memory"}},
		},
	})
	return items[0]
}

func TestObjectValues(t *testing.T) {
	t.Parallel()

	auto := objectSchema(t)
	overlay := NewOverlay()

	want := map[string]any{"Enabled": false, "MinCapacity": 1, "MaxCapacity": 3, "ScalingType": "Cpu"}
	if diff := cmp.Diff(want, GetValue(auto, overlay, nil, nil)); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, SetValue(auto, overlay, map[string]any{"Enabled": true, "MaxCapacity": 6.0}, nil))
	assert.Equal(t, []string{"AutoScaling.Enabled", "AutoScaling.MaxCapacity"}, overlay.Keys())

	require.NoError(t, SetValue(auto, overlay, `{"MinCapacity":"2"}`, nil))

	onlyCapacity := func(item *recipe.OptionSettingItem) bool { return item.Id != "ScalingType" }
	got := GetValue(auto, overlay, nil, onlyCapacity)
	want = map[string]any{"Enabled": true, "MinCapacity": 2, "MaxCapacity": 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filtered value mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, map[string]any{"Enabled": false, "MinCapacity": 1, "MaxCapacity": 3, "ScalingType": "Cpu"},
		DefaultValue(auto, nil))
}

func TestObjectAggregatesChildFailures(t *testing.T) {
	t.Parallel()

	auto := objectSchema(t)
	overlay := NewOverlay()

	err := SetValue(auto, overlay, map[string]any{
		"Enabled":     true,
		"ScalingType": "Disk",
		"Bogus":       1,
	}, nil)
	require.Error(t, err)
	de := deployerrors.AsDeployError(err)
	require.NotNil(t, de)
	assert.Equal(t, deployerrors.CodeValidationFailed, de.Code)
	assert.Contains(t, de.Message, "AutoScaling.Bogus")
	assert.Contains(t, de.Message, "AutoScaling.ScalingType")

	// Valid siblings are still applied.
	v, ok := overlay.Get("AutoScaling.Enabled")
	require.True(t, ok)
	assert.Equal(t, true, v)
	_, ok = overlay.Get("AutoScaling.ScalingType")
	assert.False(t, ok)

	err = SetValue(auto, overlay, 12, nil)
	assert.Equal(t, deployerrors.CodeValidationFailed, deployerrors.CodeOf(err))
}

func TestOverlayIsolation(t *testing.T) {
	t.Parallel()

	items := prepared(t, &recipe.OptionSettingItem{Id: "Subnets", Type: recipe.TypeList})
	first, second := NewOverlay(), NewOverlay()

	require.NoError(t, SetValue(items[0], first, []string{"subnet-1"}, nil))
	assert.Equal(t, []string{}, GetValue(items[0], second, nil, nil))

	got := GetValue(items[0], first, nil, nil).([]string)
	got[0] = "mutated"
	assert.Equal(t, []string{"subnet-1"}, GetValue(items[0], first, nil, nil))

	clone := first.Clone()
	require.NoError(t, SetValue(items[0], clone, []string{"subnet-9"}, nil))
	assert.Equal(t, []string{"subnet-1"}, GetValue(items[0], first, nil, nil))
	assert.Nil(t, items[0].DefaultValue)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input any
		want  string
	}{
		"nil":    {input: nil, want: ""},
		"string": {input: "x", want: "x"},
		"bool":   {input: true, want: "true"},
		"int":    {input: 42, want: "42"},
		"float":  {input: 0.25, want: "0.25"},
		"list":   {input: []string{"a", "b"}, want: `["a","b"]`},
		"map":    {input: map[string]string{"b": "2", "a": "1"}, want: `{"a":"1","b":"2"}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatValue(tt.input))
		})
	}
}
