package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionMediaUpload allows uploading exam PDFs and audio files.
	PermissionMediaUpload Permission = "media:upload"

	// PermissionCurriculumRead allows viewing programs, levels, rules and mappings.
	PermissionCurriculumRead Permission = "curriculum:read"

	// PermissionCurriculumWrite allows editing the curriculum ladder, placement rules and exam mappings.
	PermissionCurriculumWrite Permission = "curriculum:write"

	// PermissionExamsRead allows viewing exam lists and details.
	PermissionExamsRead Permission = "exams:read"

	// PermissionExamsWrite allows creating exams and editing exams the teacher may edit.
	PermissionExamsWrite Permission = "exams:write"

	// PermissionExamsManageAll marks the holder as an administrator for every exam.
	PermissionExamsManageAll Permission = "exams:manage_all"

	// PermissionSessionsRead allows viewing student sessions and results.
	PermissionSessionsRead Permission = "sessions:read"

	// PermissionSessionsGrade allows grading long answers manually.
	PermissionSessionsGrade Permission = "sessions:grade"

	PermissionClassesRead  Permission = "classes:read"
	PermissionClassesWrite Permission = "classes:write"

	// PermissionStudentsRead allows viewing student lists and details.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows updating and deleting students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionStudentsResetSession allows resetting a student's login session.
	PermissionStudentsResetSession Permission = "students:reset_session"

	PermissionTeachersRead  Permission = "teachers:read"
	PermissionTeachersWrite Permission = "teachers:write"

	// PermissionRolesRead allows viewing roles and permissions.
	PermissionRolesRead Permission = "roles:read"

	// PermissionRolesWrite allows creating, updating, and deleting roles.
	PermissionRolesWrite Permission = "roles:write"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionMediaUpload,
	PermissionCurriculumRead,
	PermissionCurriculumWrite,
	PermissionExamsRead,
	PermissionExamsWrite,
	PermissionExamsManageAll,
	PermissionSessionsRead,
	PermissionSessionsGrade,
	PermissionClassesRead,
	PermissionClassesWrite,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionStudentsResetSession,
	PermissionTeachersRead,
	PermissionTeachersWrite,
	PermissionRolesRead,
	PermissionRolesWrite,
}

// HasPermission reports whether perms contains p.
func HasPermission(perms []string, p Permission) bool {
	for _, v := range perms {
		if v == string(p) {
			return true
		}
	}
	return false
}
