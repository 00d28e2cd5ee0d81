package user

import "slices"

type Permission string

const (
	// Attendance
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceClock   Permission = "attendance.clock"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManage  Permission = "attendance.manage"

	// Payroll
	PermissionPayrollView   Permission = "payroll.view"
	PermissionPayrollManage Permission = "payroll.manage"

	// Security
	PermissionSecurityView Permission = "security.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceClock,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionSecurityView,
	},
	RoleAdmin: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceClock,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionSecurityView,
	},
	RoleManager: {
		// Managers see the outlet's attendance and payroll but do not run payroll
		PermissionAttendanceViewOwn,
		PermissionAttendanceClock,
		PermissionAttendanceViewAll,
		PermissionPayrollView,
	},
	RoleStaff: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceClock,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	return slices.Contains(permissions, permission)
}
