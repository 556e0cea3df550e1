package dto

type QueueItemResponse struct {
	Content   ContentResponse `json:"content"`
	UserEmail string          `json:"user_email"`
}

type QueueResponse struct {
	Items []QueueItemResponse `json:"items"`
}

type StatsResponse struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Done        int `json:"done"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
}

type ReviewRequest struct {
	Decision       string `json:"decision"`
	ExpertResponse string `json:"expert_response"`
}
