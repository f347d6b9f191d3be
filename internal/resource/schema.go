package resource

// Resource names.
const (
	Users         = "users"
	Projects      = "projects"
	Tasks         = "tasks"
	TimeIntervals = "time-intervals"
	Screenshots   = "screenshots"
)

// DefaultSchema returns the descriptors for every resource the service exposes.
func DefaultSchema() *Schema {
	return NewSchema(users(), projects(), tasks(), timeIntervals(), screenshots())
}

func users() *Resource {
	return &Resource{
		Name:       Users,
		Table:      "users",
		PrimaryKey: "id",
		Timestamps: true,
		Columns: map[string]ColumnType{
			"id":          Int,
			"full_name":   Text,
			"email":       Text,
			"manual_time": Bool,
			"active":      Bool,
			"created_at":  Time,
			"updated_at":  Time,
		},
		Relations: map[string]Relation{
			"time_intervals": {Target: TimeIntervals, LocalKey: "id", ForeignKey: "user_id", Many: true},
			"tasks":          {Target: Tasks, LocalKey: "id", ForeignKey: "user_id", Many: true},
		},
	}
}

func projects() *Resource {
	return &Resource{
		Name:       Projects,
		Table:      "projects",
		PrimaryKey: "id",
		SoftDelete: "deleted_at",
		Timestamps: true,
		Columns: map[string]ColumnType{
			"id":          Int,
			"company_id":  Int,
			"name":        Text,
			"description": Text,
			"created_at":  Time,
			"updated_at":  Time,
			"deleted_at":  Time,
		},
		Fillable: []string{"company_id", "name", "description"},
		Relations: map[string]Relation{
			"tasks": {Target: Tasks, LocalKey: "id", ForeignKey: "project_id", Many: true},
		},
		Rules: map[string]string{
			"name":        "required,max=255",
			"description": "omitempty,max=65535",
		},
		ProjectPath: "id",
		Methods: map[string]string{
			MethodList:    "projects.list",
			MethodCount:   "projects.list",
			MethodShow:    "projects.show",
			MethodCreate:  "projects.create",
			MethodEdit:    "projects.edit",
			MethodDestroy: "projects.remove",
		},
		Cascade: []Child{{Resource: Tasks, ForeignKey: "project_id"}},
	}
}

func tasks() *Resource {
	return &Resource{
		Name:       Tasks,
		Table:      "tasks",
		PrimaryKey: "id",
		SoftDelete: "deleted_at",
		Timestamps: true,
		Columns: map[string]ColumnType{
			"id":          Int,
			"project_id":  Int,
			"task_name":   Text,
			"description": Text,
			"active":      Bool,
			"user_id":     Int,
			"assigned_by": Int,
			"priority_id": Int,
			"due_date":    Time,
			"created_at":  Time,
			"updated_at":  Time,
			"deleted_at":  Time,
		},
		Fillable: []string{"project_id", "task_name", "description", "active", "user_id", "assigned_by", "priority_id", "due_date"},
		Relations: map[string]Relation{
			"project":        {Target: Projects, LocalKey: "project_id", ForeignKey: "id"},
			"user":           {Target: Users, LocalKey: "user_id", ForeignKey: "id"},
			"time_intervals": {Target: TimeIntervals, LocalKey: "id", ForeignKey: "task_id", Many: true},
		},
		Rules: map[string]string{
			"project_id":  "required,exists=projects",
			"task_name":   "required,max=255",
			"user_id":     "required,exists=users",
			"description": "omitempty,max=65535",
			"due_date":    "omitempty,date",
		},
		OwnerPath:   "user_id",
		ProjectPath: "project_id",
		Methods: map[string]string{
			MethodList:    "tasks.list",
			MethodCount:   "tasks.list",
			MethodShow:    "tasks.show",
			MethodCreate:  "tasks.create",
			MethodEdit:    "tasks.edit",
			MethodDestroy: "tasks.remove",
		},
		Cascade: []Child{{Resource: TimeIntervals, ForeignKey: "task_id"}},
	}
}

func timeIntervals() *Resource {
	return &Resource{
		Name:       TimeIntervals,
		Table:      "time_intervals",
		PrimaryKey: "id",
		SoftDelete: "deleted_at",
		Timestamps: true,
		Columns: map[string]ColumnType{
			"id":             Int,
			"task_id":        Int,
			"user_id":        Int,
			"start_at":       Time,
			"end_at":         Time,
			"is_manual":      Bool,
			"count_mouse":    Int,
			"count_keyboard": Int,
			"created_at":     Time,
			"updated_at":     Time,
			"deleted_at":     Time,
		},
		Fillable: []string{"task_id", "user_id", "start_at", "end_at", "is_manual", "count_mouse", "count_keyboard"},
		Relations: map[string]Relation{
			"task":        {Target: Tasks, LocalKey: "task_id", ForeignKey: "id"},
			"user":        {Target: Users, LocalKey: "user_id", ForeignKey: "id"},
			"screenshots": {Target: Screenshots, LocalKey: "id", ForeignKey: "time_interval_id", Many: true},
		},
		Rules: map[string]string{
			"task_id":        "required,exists=tasks",
			"user_id":        "required,exists=users",
			"start_at":       "required,date",
			"end_at":         "required,date",
			"count_mouse":    "omitempty,min=0",
			"count_keyboard": "omitempty,min=0",
		},
		UniqueBy:    []string{"user_id", "start_at", "end_at"},
		OwnerPath:   "user_id",
		ProjectPath: "task.project_id",
		Methods: map[string]string{
			MethodList:         "time-intervals.list",
			MethodCount:        "time-intervals.list",
			MethodCreate:       "time-intervals.create",
			MethodManualCreate: "time-intervals.create",
			MethodEdit:         "time-intervals.edit",
			MethodBulkEdit:     "time-intervals.bulk-edit",
			MethodShow:         "time-intervals.show",
			MethodDestroy:      "time-intervals.remove",
			MethodBulkDestroy:  "time-intervals.bulk-remove",
		},
		Cascade: []Child{{Resource: Screenshots, ForeignKey: "time_interval_id"}},
	}
}

func screenshots() *Resource {
	return &Resource{
		Name:       Screenshots,
		Table:      "screenshots",
		PrimaryKey: "id",
		SoftDelete: "deleted_at",
		Timestamps: true,
		Columns: map[string]ColumnType{
			"id":               Int,
			"time_interval_id": Int,
			"path":             Text,
			"thumbnail_path":   Text,
			"created_at":       Time,
			"updated_at":       Time,
			"deleted_at":       Time,
		},
		Fillable: []string{"time_interval_id", "path", "thumbnail_path"},
		Relations: map[string]Relation{
			"time_interval": {Target: TimeIntervals, LocalKey: "time_interval_id", ForeignKey: "id"},
		},
		Rules: map[string]string{
			"time_interval_id": "required,exists=time_intervals",
			"path":             "required",
		},
		OwnerPath:   "time_interval.user_id",
		ProjectPath: "time_interval.task.project_id",
		Methods: map[string]string{
			MethodList:    "screenshots.list",
			MethodCount:   "screenshots.list",
			MethodShow:    "screenshots.show",
			MethodCreate:  "screenshots.create",
			MethodDestroy: "screenshots.remove",
		},
	}
}
