package recipe

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ariel-frischer/recipedeploy/internal/dag"
	deployerrors "github.com/ariel-frischer/recipedeploy/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Prepare checks a freshly decoded recipe and finalises its settings tree:
// required fields, rule test types, unique sibling ids, sibling-only
// dependencies without cycles, fully qualified ids and parent links.
// It must run once, before the definition is shared.
func (r *RecipeDefinition) Prepare() error {
	if err := validate.Struct(r); err != nil {
		return deployerrors.NewSchemaError(deployerrors.CodeRecipeParse,
			fmt.Sprintf("recipe %q is missing required fields: %v", r.Id, err))
	}

	for _, rule := range r.RecommendationRules {
		for _, test := range rule.Tests {
			if !test.Type.Valid() {
				return deployerrors.InvalidRuleTestType(r.Id, string(test.Type))
			}
		}
	}

	if err := PrepareSettings(r.OptionSettings); err != nil {
		return fmt.Errorf("preparing recipe %s: %w", r.Id, err)
	}
	return nil
}

// Prepare checks a deployment bundle definition and finalises its parameters.
func (d *DeploymentBundleDefinition) Prepare() error {
	if err := validate.Struct(d); err != nil {
		return deployerrors.NewSchemaError(deployerrors.CodeRecipeParse,
			fmt.Sprintf("deployment bundle definition is invalid: %v", err))
	}
	if err := PrepareSettings(d.Parameters); err != nil {
		return fmt.Errorf("preparing deployment bundle %s: %w", d.Type, err)
	}
	return nil
}

// PrepareSettings finalises a list of top-level settings in place.
func PrepareSettings(items []*OptionSettingItem) error {
	return prepareLevel(items, nil)
}

func prepareLevel(items []*OptionSettingItem, parent *OptionSettingItem) error {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.Id] {
			return deployerrors.NewSchemaError(deployerrors.CodeRecipeParse,
				fmt.Sprintf("option setting id %q is declared twice under %q", item.Id, fqidOf(parent)))
		}
		seen[item.Id] = true

		item.parent = parent
		if parent == nil {
			item.fullyQualifiedID = item.Id
		} else {
			item.fullyQualifiedID = parent.fullyQualifiedID + "." + item.Id
		}
		item.DefaultValue = normalizeNumber(item.DefaultValue, item.Type)
		for i := range item.DependsOn {
			item.DependsOn[i].Value = normalizeNumber(item.DependsOn[i].Value, "")
		}
	}

	if err := resolveSiblingDependencies(items, parent); err != nil {
		return err
	}

	for _, item := range items {
		if err := prepareLevel(item.ChildOptionSettings, item); err != nil {
			return err
		}
	}
	return nil
}

// resolveSiblingDependencies rewrites every DependsOn id to a bare sibling id
// and rejects anything that does not name a sibling, or that forms a cycle.
func resolveSiblingDependencies(items []*OptionSettingItem, parent *OptionSettingItem) error {
	prefix := ""
	if parent != nil {
		prefix = parent.fullyQualifiedID + "."
	}

	ids := make([]string, 0, len(items))
	byID := make(map[string]bool, len(items))
	for _, item := range items {
		ids = append(ids, item.Id)
		byID[item.Id] = true
	}

	var edges []dag.Edge
	for _, item := range items {
		for i, dep := range item.DependsOn {
			sibling := strings.TrimPrefix(dep.Id, prefix)
			if !byID[sibling] {
				return deployerrors.NewSchemaError(deployerrors.CodeUnsupportedDependency,
					fmt.Sprintf("option setting %q depends on %q, which is not a sibling setting; only sibling dependencies are supported",
						item.fullyQualifiedID, dep.Id))
			}
			item.DependsOn[i].Id = sibling
			edges = append(edges, dag.Edge{From: item.Id, To: sibling})
		}
	}
	if len(edges) == 0 {
		return nil
	}

	graph, err := dag.Build(ids, edges)
	if err != nil {
		return deployerrors.Wrap(err, deployerrors.Schema, deployerrors.CodeRecipeParse)
	}
	if cycle := graph.FindCycle(); cycle != nil {
		for i := range cycle {
			cycle[i] = prefix + cycle[i]
		}
		return deployerrors.NewSchemaError(deployerrors.CodeCyclicDependency,
			fmt.Sprintf("option setting dependencies form a cycle: %s", strings.Join(cycle, " -> ")))
	}
	return nil
}

// normalizeNumber turns JSON float64 values into int when they are integral,
// and ints into float64 for Double settings, so defaults compare by kind.
func normalizeNumber(v any, typ OptionSettingValueType) any {
	switch n := v.(type) {
	case float64:
		if typ != TypeDouble && n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
			return int(n)
		}
	case int:
		if typ == TypeDouble {
			return float64(n)
		}
	}
	return v
}

func fqidOf(item *OptionSettingItem) string {
	if item == nil {
		return "<root>"
	}
	return item.fullyQualifiedID
}
