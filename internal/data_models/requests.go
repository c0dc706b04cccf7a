package dto

import (
	model "taskhub.com/taskhub/internal/models"
	"taskhub.com/taskhub/internal/registry"
)

type RegisterRequest struct {
	URL      string  `json:"url"`
	Title    *string `json:"title,omitempty"`
	Duration *int    `json:"duration,omitempty"`
}

type BatchRegisterRequest struct {
	Items []registry.RegisterItem `json:"items"`
}

type UpdateStatusRequest struct {
	Status       model.Status `json:"status"`
	DownloadType *int         `json:"download_type,omitempty"`
	Log          *string      `json:"log,omitempty"`
}

type MarkSuccessRequest struct {
	DownloadType int    `json:"download_type"`
	Log          string `json:"log,omitempty"`
}

type MarkFailedRequest struct {
	Log string `json:"log"`
}

type MarkProcessingRequest struct {
	Log string `json:"log,omitempty"`
}

type DeleteRequest struct {
	Reason string `json:"reason"`
}

type BatchDeleteRequest struct {
	IDs    []int64 `json:"ids"`
	Reason string  `json:"reason"`
}

type RestoreRequest struct {
	Status *model.Status `json:"status,omitempty"`
	Log    string        `json:"log,omitempty"`
}
