package handlers

import (
	"encoding/json"
	"strconv"
)

// textValue turns a loosely typed JSON value into request text. Absent and
// empty values (null, false, 0, "", [] and {}) become "".
func textValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []interface{}:
		if len(t) == 0 {
			return ""
		}
	case map[string]interface{}:
		if len(t) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
