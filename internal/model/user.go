package model

// ── 用户角色码（由认证服务维护，写入 JWT 与 users.roles）──

const (
	RoleStudent     = "STUDENT"
	RoleFaculty     = "FACULTY"
	RoleCoordinator = "COORDINATOR"
	RoleAdmin       = "ADMIN"
)

// User 用户表，对应 users（只读引用数据，维护在认证 / 基础数据模块）
type User struct {
	UserID    string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FirstName string      `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName  string      `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email     string      `gorm:"type:varchar(255);not null"                     json:"email"`
	Roles     StringArray `gorm:"type:text[];not null;default:'{}'"              json:"roles"`
	FacultyID *string     `gorm:"type:uuid"                                      json:"faculty_id,omitempty"`
	IsActive  bool        `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 姓名
func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

// IsStudent 是否具备学生身份
func (u *User) IsStudent() bool { return u.Roles.Contains(RoleStudent) }

// IsFaculty 是否具备教师身份（教师或协调员）
func (u *User) IsFaculty() bool { return u.Roles.Contains(RoleFaculty, RoleCoordinator) }

// Career 专业表，对应 careers
type Career struct {
	CareerID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"career_id"`
	Name      string `gorm:"type:varchar(200);not null"                     json:"name"`
	FacultyID string `gorm:"type:uuid;not null"                             json:"faculty_id"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Career) TableName() string { return "careers" }
