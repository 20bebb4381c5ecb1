package dto

type RegisterDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,strongpwd"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=20"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ReportDTO struct {
	WasteType   string  `json:"waste_type" validate:"required"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Location    string  `json:"location" validate:"required"`
	Description string  `json:"description"`
}

type FacilityDTO struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address" validate:"required"`
	AcceptedTypes string `json:"accepted_types"`
	Contact       string `json:"contact"`
}

type TrainingModuleDTO struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Level   string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

type RoleDTO struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}
