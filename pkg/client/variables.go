package client

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
)

// resolveVariables returns typed values for every variable of feature. An
// enabled variation overrides the defaults.
func resolveVariables(feature *entities.Feature, variation *entities.Variation, reasons *decide.Reasons) map[string]any {
	out := make(map[string]any, len(feature.Variables))
	for _, variable := range feature.Variables {
		raw := variable.DefaultValue
		if variation != nil && variation.FeatureEnabled {
			if override, ok := variation.Variables[variable.ID]; ok {
				raw = override
			}
		}

		value, err := typedValue(variable.Type, raw)
		if err != nil {
			reasons.AddError("Variable value for key [%s] is invalid or wrong type.", variable.Key)
			continue
		}
		out[variable.Key] = value
	}
	return out
}

func typedValue(t entities.VariableType, raw string) (any, error) {
	switch t {
	case entities.VariableString, "":
		return raw, nil
	case entities.VariableInteger:
		return strconv.Atoi(raw)
	case entities.VariableDouble:
		return strconv.ParseFloat(raw, 64)
	case entities.VariableBoolean:
		return strconv.ParseBool(raw)
	case entities.VariableJSON:
		var v map[string]any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown variable type %q", t)
	}
}
