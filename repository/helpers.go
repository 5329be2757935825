package repository

import (
	"encoding/json"

	"gorm.io/gorm"

	"repairhub-server/models"
)

// encodeStrings matches the json serializer used by the models, for columns
// written through update maps where gorm does not apply field serializers.
func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

// paginate applies page to q; a zero limit means no limit.
func paginate(q *gorm.DB, page models.Page) *gorm.DB {
	if page.Limit <= 0 {
		return q
	}
	return q.Offset(page.Offset()).Limit(page.Limit)
}
