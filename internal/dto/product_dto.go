package dto

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Ingredients []string `json:"ingredients" validate:"dive,min=2,max=50"`
	PeriodYear  int      `json:"period_year" validate:"min=0"`
	PeriodMonth int      `json:"period_month" validate:"min=0"`
	PeriodWeek  int      `json:"period_week" validate:"min=0"`
	PeriodDay   int      `json:"period_day" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=2,max=100"`
	Ingredients *[]string `json:"ingredients" validate:"omitempty,dive,min=2,max=50"`
	PeriodYear  *int      `json:"period_year" validate:"omitempty,min=0"`
	PeriodMonth *int      `json:"period_month" validate:"omitempty,min=0"`
	PeriodWeek  *int      `json:"period_week" validate:"omitempty,min=0"`
	PeriodDay   *int      `json:"period_day" validate:"omitempty,min=0"`
}

type ProductFilter struct {
	Name  string
	Page  int
	Limit int
}

type ProductResponse struct {
	ID          string   `json:"id"`
	ProductCode string   `json:"product_code"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	PeriodYear  int      `json:"period_year"`
	PeriodMonth int      `json:"period_month"`
	PeriodWeek  int      `json:"period_week"`
	PeriodDay   int      `json:"period_day"`
	CreatedBy   string   `json:"created_by,omitempty"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
