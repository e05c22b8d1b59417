package dto

// ── 课节模块 DTO ──
// 请求字段沿用前端约定的 camelCase

// CreateLectureRequest 创建课节请求
// 必填字段在 Service 层统一校验，以返回一致的缺失字段提示
type CreateLectureRequest struct {
	Course     string `json:"course"`
	Instructor string `json:"instructor"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	BatchName  string `json:"batchName" binding:"max=100"`
}

// UpdateLectureRequest 更新课节请求（部分更新）
// batchName 为空字符串表示清空；其余字段为空字符串视为未提供
// instructor 显式 null 表示取消分配
type UpdateLectureRequest struct {
	Course     Optional[string] `json:"course"`
	Instructor Optional[string] `json:"instructor"`
	Date       Optional[string] `json:"date"`
	StartTime  Optional[string] `json:"startTime"`
	EndTime    Optional[string] `json:"endTime"`
	BatchName  Optional[string] `json:"batchName"`
	Status     Optional[string] `json:"status"`
}

// AssignLectureRequest 分配讲师与日期
type AssignLectureRequest struct {
	InstructorID string `json:"instructorId"`
	Date         string `json:"date"`
}

// LectureListRequest 课节列表查询参数
type LectureListRequest struct {
	Course     string `form:"course"     binding:"omitempty,uuid"`
	Instructor string `form:"instructor" binding:"omitempty,uuid"`
	Status     string `form:"status"     binding:"omitempty,lecture_status"`
	From       string `form:"from"       binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"         binding:"omitempty,datetime=2006-01-02"`
}

// LectureResponse 课节信息响应
type LectureResponse struct {
	ID         string           `json:"id"`
	Course     *CourseBrief     `json:"course,omitempty"`
	Instructor *InstructorBrief `json:"instructor,omitempty"`
	Date       string           `json:"date"` // YYYY-MM-DD
	StartTime  string           `json:"startTime"`
	EndTime    string           `json:"endTime"`
	BatchName  string           `json:"batchName"`
	Status     string           `json:"status"`
	Version    int              `json:"version"`
	CreatedAt  string           `json:"createdAt"`
	UpdatedAt  string           `json:"updatedAt"`
}

// CourseBrief 课程展示信息（嵌入课节响应）
type CourseBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// InstructorBrief 讲师展示信息（嵌入课节响应）
type InstructorBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LectureConflictResponse 409 冲突响应数据
type LectureConflictResponse struct {
	Date     string           `json:"date"`
	Conflict *LectureResponse `json:"conflict"`
}

// InstructorScheduleResponse 讲师排课表
type InstructorScheduleResponse struct {
	Instructor UserResponse      `json:"instructor"`
	Lectures   []LectureResponse `json:"lectures"`
}
