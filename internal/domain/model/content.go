package model

import (
	"time"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
)

// Content is a single user submission: exactly one of TextContent or
// ImageKey is set, enforced at upload time.
type Content struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"user_id"`
	TextContent    *string             `json:"text_content"`
	ImageKey       *string             `json:"image_path"`
	Status         enums.ContentStatus `json:"status"`
	Decision       enums.Decision      `json:"decision"`
	ExpertResponse *string             `json:"expert_response"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (c Content) IsText() bool {
	return c.TextContent != nil
}

func (c Content) IsImage() bool {
	return c.ImageKey != nil
}
