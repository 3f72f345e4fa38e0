package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONStringArray stores a string slice as a JSON text column so the same
// model works on Postgres and SQLite.
type JSONStringArray []string

// Value implements the driver.Valuer interface
func (a JSONStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONStringArray", value)
	}

	if err := json.Unmarshal(bytes, a); err != nil {
		// A plain-text legacy value becomes a single-element list
		*a = JSONStringArray{string(bytes)}
	}
	return nil
}

// Cocktail is one AI-generated cocktail sheet: the creative name, the
// ingredient list with quantities, a short story, a music suggestion, the
// image prompt handed to the image pipeline, and the original user request.
type Cocktail struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"size:200;not null;index" json:"name"`
	Ingredients   JSONStringArray `gorm:"type:text;not null" json:"ingredients"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	MusicAmbiance string          `gorm:"type:text;not null" json:"music_ambiance"`
	ImagePrompt   string          `gorm:"type:text" json:"image_prompt"`
	UserPrompt    string          `gorm:"type:text;not null" json:"user_prompt"`
	ImagePath     string          `gorm:"size:255" json:"image_path,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName keeps the table name used by the first deployment
func (Cocktail) TableName() string {
	return "cocktails"
}
