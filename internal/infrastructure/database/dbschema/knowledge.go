package dbschema

import (
	"flowcore-server/services/message-worker/internal/domain/knowledge"
	"flowcore-server/services/message-worker/internal/infrastructure/database"
)

// KnowledgeEntry represents one knowledge base article
type KnowledgeEntry struct {
	BaseModel
	WorkspaceID string `gorm:"type:uuid;index;not null"`
	Title       string `gorm:"type:varchar(256);not null"`
	Content     string `gorm:"type:text;not null"`
}

func (KnowledgeEntry) TableName() string {
	return database.TablePrefix + "knowledge_base"
}

// EtoD converts database schema to domain entry (Entity to Domain)
func (k *KnowledgeEntry) EtoD() *knowledge.Entry {
	return &knowledge.Entry{
		ID:          k.ID,
		WorkspaceID: k.WorkspaceID,
		Title:       k.Title,
		Content:     k.Content,
		CreatedAt:   k.CreatedAt,
	}
}
