package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Name        string `json:"name"        binding:"required,max=200"`
	Level       string `json:"level"       binding:"required,max=50"`
	Description string `json:"description" binding:"required"`
	Image       string `json:"image"       binding:"omitempty,max=500"`
}

// UpdateCourseRequest 更新课程请求，空值字段保持不变
type UpdateCourseRequest struct {
	Name        *string `json:"name"        binding:"omitempty,max=200"`
	Level       *string `json:"level"       binding:"omitempty,max=50"`
	Description *string `json:"description"`
	Image       *string `json:"image"       binding:"omitempty,max=500"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Level       string `json:"level"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}
