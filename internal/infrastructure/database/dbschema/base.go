package dbschema

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// BaseModel is the common column set shared by all tables.
type BaseModel struct {
	ID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// marshalJSON converts a free-form map into a jsonb column value. A nil
// map stores SQL NULL.
func marshalJSON(m map[string]any) datatypes.JSON {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// unmarshalJSON converts a jsonb column value back into a map. Corrupt or
// NULL payloads come back as nil.
func unmarshalJSON(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
