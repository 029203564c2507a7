package workflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// SelectWorkflow returns the first active definition for the entity type whose
// conditions all hold against the request data, in the order given. A nil
// result means no workflow applies and the request is auto-approved.
func SelectWorkflow(definitions []*entity.WorkflowDefinition, entityType string, requestData map[string]interface{}) *entity.WorkflowDefinition {
	for _, def := range definitions {
		if def == nil || !def.Active || def.EntityType != entityType {
			continue
		}
		if Matches(def, requestData) {
			return def
		}
	}
	return nil
}

// Matches reports whether every condition of the definition holds.
// A definition without conditions always matches.
func Matches(def *entity.WorkflowDefinition, requestData map[string]interface{}) bool {
	for _, cond := range def.Conditions {
		if !Evaluate(cond, requestData) {
			return false
		}
	}
	return true
}

// Evaluate applies a single condition to the request data
func Evaluate(cond entity.Condition, requestData map[string]interface{}) bool {
	switch cond.Kind {
	case entity.ConditionAmountGreaterThan:
		v, ok := numberField(requestData, amountField(cond))
		return ok && v > cond.Threshold
	case entity.ConditionAmountLessThan:
		v, ok := numberField(requestData, amountField(cond))
		return ok && v < cond.Threshold
	case entity.ConditionFieldEquals:
		raw, ok := requestData[cond.Field]
		if !ok || raw == nil {
			return false
		}
		return fmt.Sprint(raw) == cond.Value
	default:
		// Unknown kinds are rejected when the definition is created
		return false
	}
}

func amountField(cond entity.Condition) string {
	if cond.Field == "" {
		return entity.DefaultAmountField
	}
	return cond.Field
}

// numberField extracts a numeric value, accepting JSON-decoded and string forms
func numberField(data map[string]interface{}, field string) (float64, bool) {
	raw, ok := data[field]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
