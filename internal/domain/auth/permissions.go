package auth

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

const (
	PermDirectoryRead       = "core.directory.read"
	PermDirectoryWrite      = "core.directory.write"
	PermTemplatesRead       = "templates.read"
	PermTemplatesWrite      = "templates.write"
	PermAssignmentsRead     = "assignments.read"
	PermAssignmentsWrite    = "assignments.write"
	PermEvaluationsRead     = "evaluations.read"
	PermEvaluationsWrite    = "evaluations.write"
	PermEvaluationsReview   = "evaluations.review"
	PermEvaluationsComplete = "evaluations.complete"
	PermSettingsRead        = "settings.read"
	PermSettingsWrite       = "settings.write"
	PermReportsRead         = "reports.read"
	PermAuditRead           = "audit.read"
	PermSystemAdmin         = "admin.system"
)

var DefaultPermissions = []string{
	PermDirectoryRead,
	PermDirectoryWrite,
	PermTemplatesRead,
	PermTemplatesWrite,
	PermAssignmentsRead,
	PermAssignmentsWrite,
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermEvaluationsReview,
	PermEvaluationsComplete,
	PermSettingsRead,
	PermSettingsWrite,
	PermReportsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermDirectoryRead,
		PermTemplatesRead,
		PermAssignmentsRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
	},
	RoleManager: {
		PermDirectoryRead,
		PermTemplatesRead,
		PermAssignmentsRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermEvaluationsComplete,
		PermReportsRead,
	},
	RoleHR: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermTemplatesRead,
		PermTemplatesWrite,
		PermAssignmentsRead,
		PermAssignmentsWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermEvaluationsComplete,
		PermSettingsRead,
		PermSettingsWrite,
		PermReportsRead,
		PermAuditRead,
	},
	RoleAdmin: {
		PermDirectoryRead,
		PermDirectoryWrite,
		PermTemplatesRead,
		PermTemplatesWrite,
		PermAssignmentsRead,
		PermAssignmentsWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermEvaluationsComplete,
		PermSettingsRead,
		PermSettingsWrite,
		PermReportsRead,
		PermAuditRead,
		PermSystemAdmin,
	},
}
