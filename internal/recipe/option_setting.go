package recipe

import "strings"

// OptionSettingItem is one node of a recipe's settings schema.
//
// Id is persisted in settings files and must never be renamed once released.
// ChildOptionSettings is only meaningful when Type is Object.
type OptionSettingItem struct {
	Id              string                 `json:"Id" yaml:"Id" validate:"required"`
	ParentSettingId string                 `json:"ParentSettingId" yaml:"ParentSettingId"`
	Name            string                 `json:"Name" yaml:"Name"`
	Description     string                 `json:"Description" yaml:"Description"`
	Type            OptionSettingValueType `json:"Type" yaml:"Type" validate:"required,oneof=String Int Double Bool KeyValue Object List"`
	TypeHint        TypeHint               `json:"TypeHint" yaml:"TypeHint"`
	TypeHintData    map[string]any         `json:"TypeHintData" yaml:"TypeHintData"`

	// DefaultValue may be a string containing {Token} placeholders.
	DefaultValue  any               `json:"DefaultValue" yaml:"DefaultValue"`
	AllowedValues []string          `json:"AllowedValues" yaml:"AllowedValues"`
	ValueMapping  map[string]string `json:"ValueMapping" yaml:"ValueMapping"`

	AdvancedSetting bool  `json:"AdvancedSetting" yaml:"AdvancedSetting"`
	Updatable       bool  `json:"Updatable" yaml:"Updatable"`
	Visible         *bool `json:"Visible" yaml:"Visible"`
	// Category only applies to top-level settings.
	Category string `json:"Category" yaml:"Category"`

	ChildOptionSettings []*OptionSettingItem `json:"ChildOptionSettings" yaml:"ChildOptionSettings" validate:"dive"`
	Validators          []ValidatorConfig    `json:"Validators" yaml:"Validators" validate:"dive"`
	DependsOn           []PropertyDependency `json:"DependsOn" yaml:"DependsOn" validate:"dive"`

	fullyQualifiedID string
	parent           *OptionSettingItem
}

// PropertyDependency gates a setting's visibility on a sibling's effective value.
type PropertyDependency struct {
	// Id names a sibling setting; after preparation it is always the bare sibling id.
	Id        string                      `json:"Id" yaml:"Id" validate:"required"`
	Value     any                         `json:"Value" yaml:"Value"`
	Operation PropertyDependencyOperation `json:"Operation" yaml:"Operation" validate:"omitempty,oneof=Equals NotEmpty"`
}

// EffectiveOperation returns Operation, defaulting to Equals.
func (d PropertyDependency) EffectiveOperation() PropertyDependencyOperation {
	if d.Operation == "" {
		return OperationEquals
	}
	return d.Operation
}

// FullyQualifiedID returns the dot-joined chain of ids from the schema root.
// Empty until the owning recipe has been prepared.
func (o *OptionSettingItem) FullyQualifiedID() string {
	return o.fullyQualifiedID
}

// Parent returns the enclosing Object setting, or nil for top-level settings.
func (o *OptionSettingItem) Parent() *OptionSettingItem {
	return o.parent
}

// IsVisible reports the static visibility flag, which defaults to true.
func (o *OptionSettingItem) IsVisible() bool {
	return o.Visible == nil || *o.Visible
}

// IsObject reports whether the node groups child settings.
func (o *OptionSettingItem) IsObject() bool {
	return o.Type == TypeObject
}

// Child returns the direct child with the given id, or nil.
func (o *OptionSettingItem) Child(id string) *OptionSettingItem {
	for _, c := range o.ChildOptionSettings {
		if c.Id == id {
			return c
		}
	}
	return nil
}

// IsAllowed reports whether value is acceptable under AllowedValues. An empty
// allowed set accepts everything.
func (o *OptionSettingItem) IsAllowed(value string) bool {
	if len(o.AllowedValues) == 0 {
		return true
	}
	for _, v := range o.AllowedValues {
		if v == value {
			return true
		}
	}
	return false
}

// DisplayName returns Name, or Id when no name is set.
func (o *OptionSettingItem) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Id
}

// FindOptionSetting resolves a fully qualified id against a list of top-level
// settings. Resolution stops early at a KeyValue node, whose remaining path
// segments address map keys rather than schema nodes.
func FindOptionSetting(items []*OptionSettingItem, fullyQualifiedID string) *OptionSettingItem {
	if fullyQualifiedID == "" {
		return nil
	}

	var found *OptionSettingItem
	level := items
	for _, id := range strings.Split(fullyQualifiedID, ".") {
		found = nil
		for _, item := range level {
			if item.Id == id {
				found = item
				break
			}
		}
		if found == nil {
			return nil
		}
		if found.Type == TypeKeyValue {
			return found
		}
		level = found.ChildOptionSettings
	}
	return found
}

// Walk visits every node of the tree depth-first in declaration order. Walking
// stops at the first non-nil error returned by fn.
func Walk(items []*OptionSettingItem, fn func(*OptionSettingItem) error) error {
	for _, item := range items {
		if err := fn(item); err != nil {
			return err
		}
		if err := Walk(item.ChildOptionSettings, fn); err != nil {
			return err
		}
	}
	return nil
}
