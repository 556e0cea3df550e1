package dto

import "time"

type ContentResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	TextContent    *string   `json:"text_content,omitempty"`
	ImagePath      *string   `json:"image_path,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	Status         string    `json:"status"`
	Decision       *string   `json:"decision,omitempty"`
	ExpertResponse *string   `json:"expert_response,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ContentListResponse struct {
	Items []ContentResponse `json:"items"`
}
