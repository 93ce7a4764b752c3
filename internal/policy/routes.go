package policy

import "fitsync/internal/model"

// Declared role sets for the guarded API surface. The router builds its
// guards from these values so the pure policy and the HTTP layer can never
// disagree about who sees what.
var (
	RouteProfile = Route{
		Path:  "/user/profile",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer, model.RoleUser},
	}

	RouteUsers = Route{
		Path:  "/user/all",
		Roles: []model.Role{model.RoleAdmin},
	}

	RouteUserToggle = Route{
		Path:  "/user/toggle-status",
		Roles: []model.Role{model.RoleAdmin},
	}

	RouteTrainers = Route{
		Path:     "/trainer",
		Roles:    []model.Role{model.RoleAdmin, model.RoleTrainer},
		Fallback: LandingDashboard,
	}

	RouteTrainerManage = Route{
		Path:  "/trainer/manage",
		Roles: []model.Role{model.RoleAdmin},
	}

	RouteEquipment = Route{
		Path:  "/equipment",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer, model.RoleUser},
	}

	RouteEquipmentManage = Route{
		Path:  "/equipment/manage",
		Roles: []model.Role{model.RoleAdmin},
	}

	RouteLoans = Route{
		Path:  "/loans",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer},
	}

	RouteLoanCreate = Route{
		Path:  "/loans/create",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer, model.RoleUser},
	}

	RouteEntryLogs = Route{
		Path:  "/entry-logs/all",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer},
	}

	RouteEntryHistory = Route{
		Path:  "/entry-logs/user-history",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer, model.RoleUser},
	}

	RouteCheckIn = Route{
		Path:  "/entry-logs",
		Roles: []model.Role{model.RoleAdmin, model.RoleTrainer, model.RoleUser},
	}
)
