package model

import "time"

// Golink связывает короткий псевдоним вида go/<name> с целевым URL.
type Golink struct {
	ID        string    `json:"id"`
	ShortLink string    `json:"short_link"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateGolinkRequest тело запроса на создание ссылки.
type CreateGolinkRequest struct {
	ShortLink string `json:"short_link"`
	URL       string `json:"url"`
}

// UpdateGolinkRequest тело запроса на изменение ссылки. Менять можно только URL.
type UpdateGolinkRequest struct {
	URL string `json:"url"`
}

// PaginationInfo метаданные постраничной выдачи.
type PaginationInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse ответ списка при запросе с параметрами пагинации.
type PaginatedResponse struct {
	Data       []Golink       `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}

// MessageResponse простой ответ с сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
