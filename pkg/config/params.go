package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

type valueSwap struct {
	Old []interface{}
	New interface{}
}

type paramReplacement struct {
	NewKey string
	Values []valueSwap
}

// replacedParams maps legacy keys and values onto the current schema. A
// replacement may rename the key, rewrite specific old values, or both.
// Keys and values with no entry pass through unchanged.
var replacedParams = map[string]paramReplacement{
	"weight_decay": {
		NewKey: "adam_weight_decay",
	},
	"deis_train_scheduler": {
		NewKey: "noise_scheduler",
		Values: []valueSwap{{
			Old: []interface{}{true},
			New: "DDPM",
		}},
	},
	"optimizer": {
		Values: []valueSwap{{
			Old: []interface{}{"8Bit Adam"},
			New: "8bit AdamW",
		}},
	},
	"save_safetensors": {
		Values: []valueSwap{{
			Old: []interface{}{false},
			New: true,
		}},
	},
}

// ValidateParam applies the rename/value migration table to one key/value
// pair. The mapping is deterministic and idempotent: current keys and values
// map to themselves.
func ValidateParam(key string, value interface{}) (string, interface{}) {
	replacement, ok := replacedParams[key]
	if !ok {
		return key, value
	}
	if replacement.NewKey != "" {
		key = replacement.NewKey
	}
	for _, swap := range replacement.Values {
		for _, old := range swap.Old {
			if value == old {
				value = swap.New
			}
		}
	}
	return key, value
}

// LoadParams applies an arbitrary key/value dictionary onto the config. Each
// key is stripped of the legacy "db_" prefix and run through the migration
// table; unknown keys are ignored. If a legacy scheduler name had to be
// upgraded, the config is re-saved immediately so the file on disk converges.
func (c *TrainingConfig) LoadParams(params map[string]interface{}) error {
	schedSwap := false
	for key, value := range params {
		key = strings.Replace(key, "db_", "", 1)

		if key == "attention" && value == "flash_attention" {
			attentions := ListAttentions()
			value = attentions[len(attentions)-1]
			if DebugLog != nil {
				DebugLog("replacing flash attention in config with %v", value)
			}
		}

		if key == "scheduler" {
			if name, ok := value.(string); ok {
				if upgraded, swapped := upgradeSchedulerName(name); swapped {
					schedSwap = true
					value = upgraded
				}
			}
		}

		newKey, newValue := ValidateParam(key, value)
		if err := c.setField(newKey, newValue); err != nil {
			// A renamed key can carry a legacy value the migration table
			// does not remap; drop it instead of failing the whole load.
			if newKey != key {
				if DebugLog != nil {
					DebugLog("dropping unmapped legacy value for %s: %v", key, err)
				}
				continue
			}
			return err
		}
	}
	if schedSwap && c.ModelDir != "" {
		return c.Save(false)
	}
	return nil
}

// upgradeSchedulerName maps a legacy short scheduler name onto the current
// list by case-insensitive substring match. Names already in the list pass
// through.
func upgradeSchedulerName(name string) (string, bool) {
	names := SchedulerNames()
	for _, n := range names {
		if name == n {
			return name, false
		}
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), strings.ToLower(name)) {
			if DebugLog != nil {
				DebugLog("updating scheduler name to: %s", n)
			}
			return n, true
		}
	}
	return name, false
}

var trainingFieldIndex = buildJSONFieldIndex(reflect.TypeOf(TrainingConfig{}))

func buildJSONFieldIndex(t reflect.Type) map[string]int {
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		idx[strings.Split(tag, ",")[0]] = i
	}
	return idx
}

// setField assigns a decoded JSON value onto the struct field whose json tag
// matches key. JSON decodes every number as float64, so numeric values are
// coerced onto the typed fields, clamped to the field's declared bounds.
func (c *TrainingConfig) setField(key string, value interface{}) error {
	i, ok := trainingFieldIndex[key]
	if !ok {
		return nil
	}
	field := reflect.ValueOf(c).Elem().Field(i)
	return assignValue(field, key, value, FieldByKey(key))
}

func assignValue(field reflect.Value, key string, value interface{}, meta *FieldMeta) error {
	if field.Kind() == reflect.Ptr {
		if value == nil {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assignValue(field.Elem(), key, value, meta)
	}

	switch field.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("key %s: expected string, got %T", key, value)
		}
		field.SetString(s)
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("key %s: expected bool, got %T", key, value)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
		if meta != nil {
			n = meta.Clamp(n)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		n, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
		if meta != nil {
			n = meta.Clamp(n)
		}
		field.SetFloat(n)
	case reflect.Slice:
		// concepts_list arrives as []interface{} of dicts
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
		target := reflect.New(field.Type())
		if err := json.Unmarshal(data, target.Interface()); err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
		field.Set(target.Elem())
	default:
		return fmt.Errorf("key %s: unsupported field kind %s", key, field.Kind())
	}
	return nil
}

// Get returns the current value for a json key, dereferencing optional
// fields. The second result is false for unknown keys.
func (c *TrainingConfig) Get(key string) (interface{}, bool) {
	i, ok := trainingFieldIndex[key]
	if !ok {
		return nil, false
	}
	field := reflect.ValueOf(c).Elem().Field(i)
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return nil, true
		}
		field = field.Elem()
	}
	return field.Interface(), true
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
